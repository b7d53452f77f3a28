package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/barangay-portal/resident-gateway/internal/backend"
	"github.com/barangay-portal/resident-gateway/internal/config"
	"github.com/barangay-portal/resident-gateway/internal/db"
	"github.com/barangay-portal/resident-gateway/internal/handlers"
	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/metrics"
	"github.com/barangay-portal/resident-gateway/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("load config", "err", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sessions live in MongoDB when MONGOURI is set, otherwise in memory.
	var store services.SessionStore
	if cfg.MongoURI != "" {
		client, err := db.Connect(ctx, cfg.MongoURI)
		if err != nil {
			logger.L.Error("mongodb unavailable", "err", err)
			os.Exit(1)
		}
		defer db.Disconnect(client)

		mongoStore := services.NewMongoSessionStore(client.Database(cfg.MongoDatabase), cfg.SessionTTL)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			logger.L.Warn("session index not created", "err", err)
		}
		store = mongoStore
	} else {
		logger.L.Info("MONGOURI not set, keeping sessions in memory")
		store = services.NewMemorySessionStore(cfg.SessionTTL)
	}

	api, err := backend.NewClient(cfg.BackendBaseURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithRateLimit(cfg.BackendRPS, cfg.BackendBurst),
	)
	if err != nil {
		logger.L.Error("backend client", "err", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		logger.L.Info("JWT_SECRET not set, confirming resident tokens against the backend")
	}
	verifier := services.NewTokenVerifier(cfg.JWTSecret, api, cfg.CacheTTL)

	// Initialize services and handlers
	announcementService := services.NewAnnouncementService(api, cfg.CacheTTL, cfg.Location)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService)

	screenService := services.NewScreenService(api, store, announcementService, cfg.DocumentTypes, cfg.Location, cfg.ScreenTimeout)
	screenHandler := handlers.NewScreenHandler(screenService, cfg.Location)

	documentRequestService, err := services.NewDocumentRequestService(api, store, cfg.DocumentTypes)
	if err != nil {
		logger.L.Error("document request service", "err", err)
		os.Exit(1)
	}
	documentRequestHandler := handlers.NewDocumentRequestHandler(documentRequestService)

	profileService := services.NewProfileService(api, store)
	profileHandler := handlers.NewProfileHandler(profileService)

	publicDocumentService := services.NewPublicDocumentService(api, cfg.CacheTTL)
	publicDocumentHandler := handlers.NewPublicDocumentHandler(publicDocumentService)

	// Set up router
	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	portal := router.PathPrefix("/api/portal").Subrouter()
	portal.Use(handlers.RequireResident(verifier))

	portal.HandleFunc("/dashboard", screenHandler.Dashboard).Methods("GET")
	portal.HandleFunc("/payments", screenHandler.Payments).Methods("GET")
	portal.HandleFunc("/transactions/export", screenHandler.ExportTransactions).Methods("GET")
	portal.HandleFunc("/document-requests", screenHandler.DocumentRequests).Methods("GET")
	portal.HandleFunc("/document-requests/export", screenHandler.ExportRequests).Methods("GET")

	portal.HandleFunc("/document-types", documentRequestHandler.DocumentTypes).Methods("GET")
	portal.HandleFunc("/document-requests/draft", documentRequestHandler.StartDraft).Methods("POST")
	portal.HandleFunc("/document-requests/draft", documentRequestHandler.GetDraft).Methods("GET")
	portal.HandleFunc("/document-requests/draft", documentRequestHandler.DiscardDraft).Methods("DELETE")
	portal.HandleFunc("/document-requests/draft/type", documentRequestHandler.SelectType).Methods("PUT")
	portal.HandleFunc("/document-requests/draft/details", documentRequestHandler.SetDetails).Methods("PUT")
	portal.HandleFunc("/document-requests/draft/back", documentRequestHandler.Back).Methods("POST")
	portal.HandleFunc("/document-requests/draft/submit", documentRequestHandler.Submit).Methods("POST")

	portal.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	portal.HandleFunc("/profile", profileHandler.UpdateProfile).Methods("PUT")
	portal.HandleFunc("/complaints", profileHandler.Complaints).Methods("GET")
	portal.HandleFunc("/household", profileHandler.Household).Methods("GET")

	portal.HandleFunc("/public-documents", publicDocumentHandler.List).Methods("GET")
	portal.HandleFunc("/public-documents/{documentID}/preview", publicDocumentHandler.Preview).Methods("GET")
	portal.HandleFunc("/public-documents/{documentID}/download", publicDocumentHandler.Download).Methods("GET")

	portal.HandleFunc("/announcements", announcementHandler.GetAnnouncements).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ScreenTimeout + 10*time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L.Warn("server shutdown", "err", err)
		}
	}()

	logger.L.Info("server running", "port", cfg.Port, "backend", cfg.BackendBaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
