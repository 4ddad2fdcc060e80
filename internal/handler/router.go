package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zhouzirui/z-affirm/backend/internal/handler/affirmation"
	"github.com/zhouzirui/z-affirm/backend/internal/handler/content"
	middlewarePkg "github.com/zhouzirui/z-affirm/backend/internal/middleware"
	contentModel "github.com/zhouzirui/z-affirm/backend/internal/model/content"
	"github.com/zhouzirui/z-affirm/backend/pkg/utils"
)

// Health /healthz 的响应
type Health struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Enabled  bool   `json:"enabled"`
}

// NewRouter wires HTTP routes to core services.
// generator 为 nil 时 affirmation 接口返回 503，其余接口照常工作。
func NewRouter(contents contentModel.Store, generator affirmation.Generator, provider string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))
	r.Use(middlewarePkg.Metrics)

	affirmationHandler := affirmation.New(generator, provider)
	contentHandler := content.New(contents)

	r.Route("/api", func(api chi.Router) {
		affirmationHandler.RegisterRoutes(api)
		contentHandler.RegisterRoutes(api)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, Health{
			Status:   "ok",
			Provider: provider,
			Enabled:  generator != nil,
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
