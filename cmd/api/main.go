package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/z-affirm/backend/internal/config"
	"github.com/zhouzirui/z-affirm/backend/internal/handler"
	affirmationHandler "github.com/zhouzirui/z-affirm/backend/internal/handler/affirmation"
	"github.com/zhouzirui/z-affirm/backend/internal/model/content"
	"github.com/zhouzirui/z-affirm/backend/internal/service/affirmation"
	"github.com/zhouzirui/z-affirm/backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zl, err := logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if envErr != nil {
		zl.Debug("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	store, err := loadContent(cfg.Content)
	if err != nil {
		zl.Fatal("failed to load content", zap.Error(err))
	}

	generator := newGenerator(ctx, zl, cfg.AI)

	router := handler.NewRouter(store, generator, cfg.AI.Provider, cfg.CORS.AllowedOrigins)

	if err := startServer(ctx, zl, cfg.Server, router); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}

// newGenerator 初始化生成服务；未配置或初始化失败时返回 nil，服务以只读内容模式运行。
func newGenerator(ctx context.Context, zl *zap.Logger, aiCfg config.AIConfig) affirmationHandler.Generator {
	if !aiCfg.Enabled() {
		zl.Warn("text generation provider not configured, affirmation endpoints disabled",
			zap.String("provider", aiCfg.Provider))
		return nil
	}

	chatModel, err := aiCfg.NewChatModel(ctx)
	if err != nil {
		zl.Error("failed to create chat model", zap.String("provider", aiCfg.Provider), zap.Error(err))
		return nil
	}

	svc, err := affirmation.NewService(ctx, chatModel, affirmation.WithTimeout(aiCfg.Timeout))
	if err != nil {
		zl.Error("failed to initialize affirmation service", zap.Error(err))
		return nil
	}

	zl.Info("affirmation service initialized",
		zap.String("provider", aiCfg.Provider),
		zap.String("model", aiCfg.Model),
		zap.Duration("timeout", svc.Timeout()))
	return svc
}

func loadContent(cfg config.ContentConfig) (content.Store, error) {
	if cfg.File == "" {
		return content.NewMemoryStore(content.Seed()), nil
	}
	catalog, err := content.LoadFile(cfg.File)
	if err != nil {
		return nil, err
	}
	return content.NewMemoryStore(catalog), nil
}

func startServer(ctx context.Context, zl *zap.Logger, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	zl.Info("Z Affirm backend listening", zap.String("addr", serverCfg.Addr))
	return runServer(ctx, srv)
}

// runServer 运行服务直到 ctx 结束或监听失败，随后优雅关闭。
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
