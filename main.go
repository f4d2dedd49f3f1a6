package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	controller "github.com/Itish41/DocLens/controller"
	"github.com/Itish41/DocLens/initializers"
	middleware "github.com/Itish41/DocLens/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	if err := initializers.LoadEnv(); err != nil {
		log.Fatalf("[CRITICAL] Failed to load env: %s", err)
	}
	cfg, err := initializers.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[CRITICAL] Failed to load config: %s", err)
	}
	logger, err := initializers.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("[CRITICAL] Failed to build logger: %s", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initializers.BuildApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}

	// Create the index up front; requests would otherwise do it lazily.
	if state, err := app.Schema.EnsureIndexReady(ctx); err != nil {
		logger.Warn("search index not ready yet", zap.Error(err))
	} else {
		logger.Info("search index ready", zap.String("state", string(state)))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: setupRouter(app),
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func setupRouter(app *initializers.App) *gin.Engine {
	cfg := app.Config
	docController := controller.NewDocumentController(app.Documents, app.Logger.Named("http"),
		cfg.HTTP.MaxUploadBytes, cfg.Analysis.Concurrency)
	searchController := controller.NewSearchController(app.Search)

	globalLimiter := middleware.NewRateLimiter(cfg.RateLimit.Global, cfg.RateLimit.Window)
	strictLimiter := middleware.NewRateLimiter(cfg.RateLimit.Strict, cfg.RateLimit.Window)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(app.Logger.Named("access")))
	router.Use(middleware.CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "index": app.Schema.State()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(globalLimiter.Limit())
	{
		// Sensitive routes with stricter rate limiting
		api.POST("/documents/upload", strictLimiter.Limit(), docController.UploadDocument)
		api.POST("/documents/analyze/:fileName", strictLimiter.Limit(), docController.AnalyzeDocument)
		api.POST("/documents/analyze-all", strictLimiter.Limit(), docController.AnalyzeAllDocuments)

		api.GET("/documents", docController.GetAllDocuments)
		api.GET("/ingestions", docController.GetIngestions)
		api.GET("/search", searchController.SearchDocuments)
		api.POST("/search", searchController.SearchDocuments)
	}

	return router
}
