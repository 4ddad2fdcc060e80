package content

// Article 首页推荐文章
type Article struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	ImageURL    string `json:"imageUrl" yaml:"imageUrl"`
	Link        string `json:"link" yaml:"link"`
}

// GalleryImage 图片墙中的一张图片
type GalleryImage struct {
	ImageURL string `json:"imageUrl" yaml:"imageUrl"`
	Alt      string `json:"alt" yaml:"alt"`
}

// ResourceLink 外部资源链接
type ResourceLink struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Catalog 聚合页面上展示的全部静态内容。
type Catalog struct {
	Articles  []Article      `json:"articles" yaml:"articles"`
	Gallery   []GalleryImage `json:"gallery" yaml:"gallery"`
	Resources []ResourceLink `json:"resources" yaml:"resources"`
}

// Seed provides the default promotional content shown on the home page.
func Seed() Catalog {
	return Catalog{
		Articles: []Article{
			{
				Title:       "The Power of Community",
				Description: "Discover how women supporting women can change the world.",
				ImageURL:    "https://picsum.photos/400/200",
				Link:        "#",
			},
			{
				Title:       "Breaking Barriers",
				Description: "Stories of women who have overcome challenges and achieved greatness.",
				ImageURL:    "https://picsum.photos/401/200",
				Link:        "#",
			},
		},
		Gallery: []GalleryImage{
			{ImageURL: "https://picsum.photos/200/200", Alt: "Inspiring quote"},
			{ImageURL: "https://picsum.photos/201/200", Alt: "Empowerment"},
		},
		Resources: []ResourceLink{
			{Name: "Women Who Code", URL: "https://www.womenwhocode.com/"},
			{Name: "Girls Who Code", URL: "https://girlswhocode.com/"},
		},
	}
}
