package content

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-affirm/backend/internal/model/content"
	"github.com/zhouzirui/z-affirm/backend/pkg/utils"
)

// Handler 静态内容的HTTP处理器
type Handler struct {
	store content.Store
}

// New 创建内容处理器
func New(store content.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册内容相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/articles", h.handleArticles)
	r.Get("/gallery", h.handleGallery)
	r.Get("/resources", h.handleResources)
	r.Get("/content", h.handleCatalog)
}

func (h *Handler) handleArticles(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Articles())
}

func (h *Handler) handleGallery(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Gallery())
}

func (h *Handler) handleResources(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Resources())
}

// handleCatalog 一次返回首页需要的全部内容
func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, content.Catalog{
		Articles:  h.store.Articles(),
		Gallery:   h.store.Gallery(),
		Resources: h.store.Resources(),
	})
}
