package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"papertrust/internal/config"
	"papertrust/internal/handler"
	"papertrust/internal/middleware"
	"papertrust/internal/normalizer"
	"papertrust/internal/ocr/mistral"
	"papertrust/internal/router"
	"papertrust/internal/scratch"
	"papertrust/internal/service"
	"papertrust/internal/staging"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize scratch storage
	scratchStore, err := scratch.NewLocalStore(cfg.Scratch.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize scratch directory: %w", err)
	}

	// Initialize pipeline stages
	pdfNormalizer := normalizer.NewPDFNormalizer(scratchStore)

	stager, err := staging.NewUploader(ctx, &cfg.Staging)
	if err != nil {
		return fmt.Errorf("failed to initialize staging provider: %w", err)
	}

	ocrClient, err := mistral.NewClient(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("failed to initialize OCR client: %w", err)
	}

	// Initialize services
	ocrSvc := service.NewOCRService(scratchStore, pdfNormalizer, stager, ocrClient, &cfg.Scratch)

	// Initialize handlers
	ocrH := handler.NewOCRHandler(ocrSvc, cfg.Scratch.MaxUploadBytes())
	healthH := handler.NewHealthHandler(scratchStore)

	origins, err := middleware.NewOriginMatcher(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedOriginPatterns)
	if err != nil {
		return fmt.Errorf("failed to configure CORS: %w", err)
	}

	// Setup router
	r := router.Setup(ocrH, healthH, origins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on %s (staging=%s, scratch=%s)", cfg.Server.Port, cfg.Staging.Provider, scratchStore.Dir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
