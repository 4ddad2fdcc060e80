package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store exposes static content retrieval for HTTP handlers.
type Store interface {
	Articles() []Article
	Gallery() []GalleryImage
	Resources() []ResourceLink
}

// MemoryStore implements Store with in-memory slices; callers always receive copies.
type MemoryStore struct {
	catalog Catalog
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied catalog.
func NewMemoryStore(catalog Catalog) *MemoryStore {
	return &MemoryStore{catalog: Catalog{
		Articles:  append([]Article(nil), catalog.Articles...),
		Gallery:   append([]GalleryImage(nil), catalog.Gallery...),
		Resources: append([]ResourceLink(nil), catalog.Resources...),
	}}
}

// Articles returns the configured articles.
func (s *MemoryStore) Articles() []Article {
	return append([]Article{}, s.catalog.Articles...)
}

// Gallery returns the configured gallery images.
func (s *MemoryStore) Gallery() []GalleryImage {
	return append([]GalleryImage{}, s.catalog.Gallery...)
}

// Resources returns the configured resource links.
func (s *MemoryStore) Resources() []ResourceLink {
	return append([]ResourceLink{}, s.catalog.Resources...)
}

// LoadFile 从 YAML 文件读取内容目录，文件中缺失的分组保持为空。
func LoadFile(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read content file %s: %w", path, err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse content file %s: %w", path, err)
	}

	for i, a := range catalog.Articles {
		if a.Title == "" {
			return Catalog{}, fmt.Errorf("content file %s: article %d has no title", path, i)
		}
	}
	for i, r := range catalog.Resources {
		if r.Name == "" || r.URL == "" {
			return Catalog{}, fmt.Errorf("content file %s: resource %d needs name and url", path, i)
		}
	}
	return catalog, nil
}
