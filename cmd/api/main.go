package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/doriangym/contratos-backend/internal/artifact"
	"github.com/doriangym/contratos-backend/internal/http/handlers"
	httpmw "github.com/doriangym/contratos-backend/internal/http/middleware"
	"github.com/doriangym/contratos-backend/internal/mailer"
	"github.com/doriangym/contratos-backend/internal/repo/postgres"
	"github.com/doriangym/contratos-backend/internal/service"
	"github.com/doriangym/contratos-backend/internal/storage"
	"github.com/doriangym/contratos-backend/pkg/config"
	"github.com/doriangym/contratos-backend/pkg/database"
	"github.com/doriangym/contratos-backend/pkg/events"
	"github.com/doriangym/contratos-backend/pkg/logger"
	mw "github.com/doriangym/contratos-backend/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Redis backs the rate limiter on the public endpoints
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Event bus
	var bus events.Publisher = events.NoopPublisher{}
	if cfg.NATS.Enabled {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		bus = natsBus
	}
	defer bus.Close()

	// Blob storage for signatures and photos
	blobs, err := storage.NewBlobStore(cfg.Storage.SignaturesDir, cfg.Storage.PhotosDir)
	if err != nil {
		logger.Error("Failed to initialize blob storage", "error", err)
		os.Exit(1)
	}

	contracts := artifact.NewContractGenerator(cfg.Storage.AssetsDir)

	var mail mailer.Service
	if cfg.Email.DevMode || cfg.Email.MailerSendKey == "" {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Initialize repositories
	memberRepo := postgres.NewMemberRepo(pool)
	adminRepo := postgres.NewAdminRepo(pool)

	// Initialize services
	memberService := service.NewMemberService(memberRepo, blobs, contracts, bus, mail, cfg)
	adminService := service.NewAdminService(adminRepo, cfg)

	if err := adminService.Seed(ctx); err != nil {
		logger.Error("Failed to seed admin credential", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	h := handlers.New(memberService, adminService, cfg)

	// Rate limiters for the unauthenticated surface
	submitLimiter := httpmw.NewRateLimiter(redisClient, httpmw.RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
		KeyFunc:  httpmw.ClientIPKeyFunc,
	})
	loginLimiter := httpmw.NewRateLimiter(redisClient, httpmw.RateLimitConfig{
		Requests: 5,
		Window:   time.Minute,
		KeyFunc:  httpmw.ClientIPKeyFunc,
	})

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes
	r.With(submitLimiter.Middleware()).Post("/submit", h.Submit)
	r.With(loginLimiter.Middleware()).Post("/admin/login", h.Login)

	r.Route("/member/{id}", func(r chi.Router) {
		// QR scans land here without credentials
		r.Get("/status", h.StatusImage)
		r.Get("/status-image", h.StatusImage)
		r.With(h.RequireQRViewToken).Get("/view", h.View)

		// Contract download works for admins and for the tokened link the
		// welcome email carries
		r.With(h.RequireContractAccess).Get("/contract", h.DownloadContract)

		// Admin record operations
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/", h.GetMember)
			r.Put("/", h.UpdateMember)
			r.Put("/status", h.UpdateEstado)
			r.Delete("/", h.DeleteMember)
			r.Get("/qr", h.DownloadQR)
			r.Get("/qr-url", h.QRViewURL)
		})
	})

	r.With(h.RequireAdmin).Get("/members", h.ListMembers)

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting contratos backend", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
