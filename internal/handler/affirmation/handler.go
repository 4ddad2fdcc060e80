package affirmation

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	model "github.com/zhouzirui/z-affirm/backend/internal/model/affirmation"
	"github.com/zhouzirui/z-affirm/backend/pkg/logger"
	"github.com/zhouzirui/z-affirm/backend/pkg/metrics"
	"github.com/zhouzirui/z-affirm/backend/pkg/utils"
)

const outcomeOK = "ok"

// Generator 生成 affirmation 的能力，由 service 层实现。
type Generator interface {
	Generate(ctx context.Context, req model.Request) (model.Response, error)
}

// Handler affirmation 的 HTTP 处理器
type Handler struct {
	generator Generator
	provider  string
}

// New 创建处理器。generator 为 nil 表示未配置模型，接口返回 503。
func New(generator Generator, provider string) *Handler {
	return &Handler{
		generator: generator,
		provider:  provider,
	}
}

// RegisterRoutes 注册 affirmation 相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/affirmations", h.handleGenerate)
	r.Get("/affirmations/ws", h.handleWebSocket)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "affirmation generation unavailable")
		return
	}

	req, err := model.DecodeRequest(r.Body)
	if err != nil {
		logger.FromContext(r.Context()).Debug("invalid affirmation request body", zap.Error(err))
		respondGenerateError(w, err)
		return
	}

	resp, err := h.generate(r.Context(), req)
	if err != nil {
		respondGenerateError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// generate 调用生成器并记录指标与日志。
func (h *Handler) generate(ctx context.Context, req model.Request) (model.Response, error) {
	start := time.Now()
	resp, err := h.generator.Generate(ctx, req)
	elapsed := time.Since(start)

	log := logger.FromContext(ctx).With(zap.String("provider", h.provider), zap.Duration("duration", elapsed))
	if err != nil {
		kind := model.KindOf(err)
		metrics.ObserveGeneration(h.provider, string(kind), elapsed)
		if kind == model.KindInvalidInput {
			log.Debug("affirmation request rejected", zap.Error(err))
		} else {
			log.Warn("affirmation generation failed", zap.String("kind", string(kind)), zap.Error(err))
		}
		return model.Response{}, err
	}

	metrics.ObserveGeneration(h.provider, outcomeOK, elapsed)
	log.Info("affirmation generated")
	return resp, nil
}

func respondGenerateError(w http.ResponseWriter, err error) {
	e := model.AsError(err)
	utils.RespondErrorCode(w, e.HTTPStatus(), string(e.Kind), e.UserMessage())
}
