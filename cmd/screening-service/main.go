package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/neuroscreen-ai/platform/pkg/audit"
	"github.com/neuroscreen-ai/platform/pkg/common/config"
	"github.com/neuroscreen-ai/platform/pkg/common/database"
	"github.com/neuroscreen-ai/platform/pkg/common/kafka"
	"github.com/neuroscreen-ai/platform/pkg/common/logger"
	"github.com/neuroscreen-ai/platform/pkg/contentstore"
	"github.com/neuroscreen-ai/platform/pkg/gateway/auth"
	"github.com/neuroscreen-ai/platform/pkg/gateway/middleware"
	"github.com/neuroscreen-ai/platform/pkg/predictor"
	"github.com/neuroscreen-ai/platform/pkg/screening"
	"github.com/neuroscreen-ai/platform/pkg/storage"
)

func main() {
	logger.Init("screening-service")
	cfg := config.Load()

	catalog, err := screening.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load screening catalog")
	}
	mapper := screening.NewMapper(catalog)

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to initialise storage backend")
	}
	defer closeStore()

	var pred predictor.Predictor
	var uploader *contentstore.Client
	if cfg.MockMode {
		pred = predictor.NewMockPredictor()
		logger.Log.Info("mock prediction mode enabled")
	} else {
		pred = predictor.NewClient(cfg.PredictorBaseURL, cfg.PredictorTimeout)
		uploader = contentstore.NewClient(cfg.ContentStoreURL, cfg.ContentStoreTimeout)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.CaseEventsTopic)
	defer producer.Close()

	var auditRepo *audit.Repository
	if cfg.AuditEnabled {
		db, err := database.NewPostgres(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to connect to postgres")
		}
		auditRepo = audit.NewRepository(db)
		if err := auditRepo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate audit tables")
		}
	}

	authn := auth.NewAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.AdminSubjects)

	svc := screening.NewService(mapper, pred, store, uploader, producer, auditRepo)
	handler := screening.NewHTTPHandler(svc, authn)

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.CORS, middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":    cfg.ServerHost,
			"port":    cfg.ServerPort,
			"storage": cfg.StorageBackend,
			"mock":    cfg.MockMode,
		}).Info("Screening Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Screening Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Screening Service stopped")
}

func buildStore(cfg *config.Config) (storage.CaseStore, func(), error) {
	switch cfg.StorageBackend {
	case "redis":
		client, err := database.NewRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisStore(client), func() { client.Close() }, nil
	case "local", "":
		store, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
