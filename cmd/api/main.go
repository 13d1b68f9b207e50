package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"videoforge/internal/cache"
	"videoforge/internal/config"
	"videoforge/internal/database"
	"videoforge/internal/logging"
	"videoforge/internal/media"
	"videoforge/internal/metrics"
	"videoforge/internal/middleware"
	"videoforge/internal/rendition"
	"videoforge/internal/tracing"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.Init(cfg.Tracing)
		if err != nil {
			log.Fatalf("Failed to initialize tracing: %v", err)
		}
		defer closer.Close()
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := database.NewRepository(db)

	redisCache, err := cache.New(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)

	orchestrator := rendition.NewOrchestrator(repo, ffmpeg, redisCache, log, rendition.Options{
		UploadDir:     cfg.Media.UploadDir,
		QualitiesDir:  cfg.Media.QualitiesDir,
		MaxConcurrent: cfg.Renditions.MaxConcurrent,
		ClaimTTL:      cfg.Renditions.ClaimTTL,
	})

	api := &API{
		repo:       repo,
		cache:      redisCache,
		media:      ffmpeg,
		renditions: orchestrator,
		log:        log,
		cfg:        cfg,
	}

	router := setupRouter(api, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			log.Infof("Starting metrics server on :%d", cfg.Metrics.Port)
			if err := metricsSrv.Start(); err != nil {
				log.Errorf("Metrics server error: %v", err)
			}
		}()
	}

	go func() {
		log.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			log.Errorf("Metrics server forced to shutdown: %v", err)
		}
	}

	// Let in-flight rendition batches finish before exiting.
	orchestrator.Close()

	log.Info("Server stopped")
}

func setupRouter(api *API, log *logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	if api.cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(api.cfg.Server.RateLimitRPS, api.cfg.Server.RateLimitBurst)
		router.Use(middleware.RateLimit(limiter))
	}

	router.GET("/health", api.healthCheck)

	router.POST("/upload", api.uploadVideo)
	router.GET("/videos", api.listVideos)
	router.GET("/videos/:id", api.getVideo)
	router.DELETE("/videos/:id", api.deleteVideo)
	router.GET("/videos/:id/stats", api.videoStats)

	router.POST("/videos/:id/qualities/generate", api.generateQualities)
	router.GET("/videos/:id/qualities", api.listQualities)
	router.GET("/videos/:id/qualities/:quality", api.getQuality)
	router.DELETE("/videos/:id/qualities/:quality", api.deleteQuality)
	router.GET("/videos/:id/download/:quality", api.downloadQuality)

	router.POST("/trim", api.trimVideo)
	router.GET("/download/:filename", api.downloadFile)

	router.POST("/overlay/text", api.textOverlay)
	router.POST("/overlay/image", api.imageOverlay)
	router.POST("/overlay/video", api.videoOverlay)
	router.POST("/watermark/add", api.addWatermark)

	return router
}
