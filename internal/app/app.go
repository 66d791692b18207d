package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"lazy-receipt-go/internal/config"
	"lazy-receipt-go/internal/db"
	"lazy-receipt-go/internal/fieldcrypt"
	"lazy-receipt-go/internal/handlers"
	"lazy-receipt-go/internal/llm"
	"lazy-receipt-go/internal/metrics"
	"lazy-receipt-go/internal/pipeline"
	"lazy-receipt-go/internal/publish"
	"lazy-receipt-go/internal/render"
	"lazy-receipt-go/internal/resolver"
	"lazy-receipt-go/internal/server"
	"lazy-receipt-go/internal/storage"
	"lazy-receipt-go/internal/store"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Lazy Receipt Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	objects, err := storage.NewS3Store(context.Background(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	cipher, err := fieldcrypt.New(cfg.Encryption.Key)
	if err != nil {
		return fmt.Errorf("failed to initialize field encryption: %w", err)
	}

	m := metrics.NewMetrics()

	recordStore := store.New(dbConn, cipher, objects, cfg.Storage.SignedURLTTL)
	publisher := publish.NewPublisher(objects, cfg.Storage.SignedURLTTL)
	res := resolver.NewResolver(
		resolver.NewLinkFetcher(cfg.LLM.RequestTimeout),
		render.NewBrowserRenderer(),
	)
	ocrEngine := llm.NewOCREngine(cfg.LLM, objects)
	extractor := llm.NewExtractor(cfg.LLM)

	pipe := pipeline.New(objects, res, publisher, ocrEngine, extractor, recordStore, m,
		cfg.Pipeline.EmailTimeout, cfg.Pipeline.CandidateTimeout)

	h := handlers.NewHandlers(dbConn, pipe, recordStore, m)
	router := server.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
