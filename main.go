package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/eventlens/eventlensbackend/config"
	"github.com/eventlens/eventlensbackend/database"
	"github.com/eventlens/eventlensbackend/fingerprint"
	"github.com/eventlens/eventlensbackend/handlers"
	"github.com/eventlens/eventlensbackend/repository"
	"github.com/eventlens/eventlensbackend/screen"
	"github.com/eventlens/eventlensbackend/storage"
	"github.com/eventlens/eventlensbackend/uploads"
	"github.com/eventlens/eventlensbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	var backend storage.Backend
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		backend, err = storage.NewObjectStoreBackend(context.Background(), storage.ObjectStoreConfig{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
	default:
		backend, err = storage.NewLocalBackend(cfg.LocalStoragePath, cfg.PublicBaseURL)
	}
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize storage backend: %v", err)
	}

	var contentScreen screen.Screen
	if cfg.ScreenDriver == config.ScreenDriverDNN {
		contentScreen = screen.NewDNNScreen(cfg.ScreenModelPath, cfg.ScreenUnsafeCutoff)
	} else {
		contentScreen = screen.NewTypeScreen()
	}

	customerRepo := repository.NewCustomerRepository(db)
	eventRepo := repository.NewEventRepository(db)
	guestRepo := repository.NewGuestRepository(db)
	imageRepo := repository.NewImageRepository(db)
	linkRepo := repository.NewSharedLinkRepository(db)
	settingRepo := repository.NewAppSettingRepository(db)

	window := uploads.WindowPolicy{GraceDays: cfg.Upload.GraceDays}
	quota := uploads.NewQuotaPolicy(settingRepo, cfg.Upload.DefaultMaxBatchSize, 1)
	dupeIndex := fingerprint.NewIndex(imageRepo, cfg.Upload.DuplicateThreshold)
	pipeline := uploads.NewPipeline(eventRepo, guestRepo, imageRepo, backend, contentScreen, dupeIndex, window, quota)

	archiver := workers.NewArchiveProcessor(eventRepo, guestRepo, imageRepo, backend, cfg.ArchiveQueueSize, cfg.NumArchiveWorkers)

	jwtSecret := []byte(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(customerRepo, guestRepo, eventRepo, jwtSecret, cfg.JWTExpirationHours)
	eventHandler := handlers.NewEventHandler(eventRepo, guestRepo, imageRepo, backend, archiver, window, cfg.FrontendBaseURL)
	uploadHandler := handlers.NewUploadHandler(pipeline)
	imageHandler := handlers.NewImageHandler(imageRepo, eventRepo, guestRepo, backend, quota)
	fileHandler := handlers.NewFileHandler(backend)
	linkHandler := handlers.NewSharedLinkHandler(linkRepo, eventRepo, imageRepo)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{cfg.FrontendBaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Access-Password"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(corsHandler.Handler)

	authenticate := func(next http.Handler) http.Handler {
		return handlers.AuthMiddleware(jwtSecret, customerRepo, guestRepo, next)
	}

	r.Route("/api", func(r chi.Router) {
		// public surface
		r.Post("/auth/customers/register", authHandler.RegisterCustomer)
		r.Post("/auth/customers/login", authHandler.LoginCustomer)
		r.Post("/auth/guests/register", authHandler.RegisterGuest)
		r.Post("/auth/guests/login", authHandler.LoginGuest)
		r.Get("/events/code/{eventCode}", eventHandler.GetByCode)
		r.Get("/shared/{shareCode}", linkHandler.Get)
		r.Get("/files", fileHandler.Serve)

		// any authenticated actor
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/auth/me", authHandler.Me)
		})

		// customer surface
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(handlers.RequireCustomer)

			r.Post("/events", eventHandler.Create)
			r.Get("/events", eventHandler.List)
			r.Route("/events/{eventID}", func(r chi.Router) {
				r.Get("/", eventHandler.Get)
				r.Get("/qr", eventHandler.DownloadQRCode)
				r.Get("/images", imageHandler.ListByEvent)
				r.Post("/images/bulk-delete", imageHandler.BulkDelete)
				r.Get("/images/zip", imageHandler.DownloadZip)
				r.Get("/images/pdf", imageHandler.ExportPDF)
				r.Post("/archive", eventHandler.RequestArchive)
				r.Get("/archive", eventHandler.ArchiveStatus)
				r.Get("/archive/download", eventHandler.DownloadArchive)
			})

			r.Post("/shared-links", linkHandler.Create)
			r.Get("/shared-links", linkHandler.List)
			r.Delete("/shared-links/{shareCode}", linkHandler.Deactivate)
		})

		// guest surface
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(handlers.RequireGuest)

			r.Post("/events/{eventID}/guests/{guestID}/uploads", uploadHandler.Upload)
			r.Get("/events/{eventID}/my-images", imageHandler.ListOwn)
			r.Delete("/images/{imageID}", imageHandler.DeleteOwn)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
