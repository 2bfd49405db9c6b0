package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nftpawnshop/backend/docs"
	"github.com/nftpawnshop/backend/internal/config"
	"github.com/nftpawnshop/backend/internal/ens"
	"github.com/nftpawnshop/backend/internal/handler"
	applog "github.com/nftpawnshop/backend/internal/logger"
	"github.com/nftpawnshop/backend/internal/metrics"
	"github.com/nftpawnshop/backend/internal/repository"
	"github.com/nftpawnshop/backend/internal/scheduler"
	"github.com/nftpawnshop/backend/internal/service"
	"github.com/nftpawnshop/backend/internal/subgraph"
)

// @title NFT Pawn Shop Notifications API
// @version 1.0
// @description Loan lifecycle notifications for the NFT Pawn Shop: event intake, email subscriptions and expiry scans.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg := config.Load()

	logger := applog.Logger()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize repositories
	cursorRepo := repository.NewCursorRepository(db)
	requestRepo := repository.NewNotificationRequestRepository(db)

	// External data sources
	subgraphClient := subgraph.NewClient(subgraph.DefaultConfig(cfg.SubgraphURL), nil)
	nameResolver := newNameResolver(cfg, logger)

	// Initialize services
	formatterCfg := service.FormatterConfig{
		SiteURL:     cfg.SiteURL,
		ExplorerURL: cfg.ExplorerURL,
		WindowHours: cfg.Notifications.FrequencyHours,
	}
	parser := service.NewLoanParser(nil)
	identity := service.NewIdentityService(nameResolver, logger)
	eventFormatter := service.NewEventFormatter(formatterCfg, parser, identity, subgraphClient)
	discordFormatter := service.NewDiscordFormatter(formatterCfg, parser, identity)

	renderer, err := service.NewEmailRenderer()
	if err != nil {
		log.Fatalf("Failed to load email template: %v", err)
	}

	var emailSender service.EmailSender
	if cfg.SMTP.Host != "" {
		emailSender = service.NewSMTPEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("SMTP_HOST not set, email delivery disabled")
	}

	var chatSender service.ChatSender
	if cfg.DiscordWebhookURL != "" {
		chatSender = service.NewDiscordWebhookSender(cfg.DiscordWebhookURL, cfg.DiscordRatePerSecond, nil)
	} else {
		logger.Warn("DISCORD_WEBHOOK_URL not set, bot messages disabled")
	}

	notificationService := service.NewNotificationService(
		eventFormatter, discordFormatter, requestRepo, renderer, emailSender, chatSender, logger,
	)
	expiryScanner := service.NewExpiryScanner(service.ExpiryScannerConfig{
		KillSwitch:  cfg.Notifications.KillSwitch,
		WindowHours: cfg.Notifications.FrequencyHours,
	}, subgraphClient, cursorRepo, notificationService, logger)

	// Scheduler for the expiry scan
	schedCfg := scheduler.Config{
		Schedule: cfg.ExpiryScanSchedule,
		Timeout:  cfg.ExpiryScanTimeout,
		Enabled:  cfg.ExpiryScanEnabled,
		Interval: time.Duration(cfg.Notifications.FrequencyHours) * time.Hour,
	}
	scanScheduler := scheduler.New(schedCfg, expiryScanner, logger)
	if err := scanScheduler.Start(); err != nil {
		log.Fatalf("Failed to start expiry scan scheduler: %v", err)
	}

	// Initialize handlers
	eventHandler := handler.NewEventHandler(notificationService)
	requestHandler := handler.NewNotificationRequestHandler(notificationService)
	scanHandler := handler.NewScanHandler(scanScheduler)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(handler.RequestLogger)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// CORS - allow frontend origin from env or default
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Handle("/metrics", metrics.Handler())

	// Health check
	// @Summary Health check
	// @Description Check if the API is running
	// @Tags health
	// @Produce json
	// @Success 200 {object} map[string]string
	// @Router /health [get]
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes: email subscriptions
	r.Get("/api/addresses/{address}/notifications", requestHandler.List)
	r.Post("/api/addresses/{address}/notifications", requestHandler.Create)
	r.Delete("/api/addresses/{address}/notifications/{id}", requestHandler.Delete)

	// Indexer and cron webhooks
	r.Group(func(r chi.Router) {
		r.Use(handler.WebhookAuth(cfg.JWTSecret))

		r.Post("/api/events/cron/{eventType}", eventHandler.HandleCron)
		r.Post("/api/events/{eventType}", eventHandler.Handle)
		r.Post("/api/expiry-scan/run", scanHandler.Run)
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	// Create server
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		// Stop scheduler first
		ctx := scanScheduler.Stop()
		<-ctx.Done()
		logger.Info("Scheduler stopped")

		// Shutdown HTTP server
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Printf("Server starting on port %s", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Server failed: %v", err)
	}
}

// newNameResolver builds the ENS lookup chain. A nil result disables name
// resolution and notifications show truncated addresses.
func newNameResolver(cfg *config.Config, logger *slog.Logger) service.NameResolver {
	if cfg.EthRPCURL == "" {
		logger.Warn("ETH_RPC_URL not set, ENS names disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := ens.Dial(ctx, cfg.EthRPCURL)
	if err != nil {
		logger.Error("Failed to dial Ethereum RPC, ENS names disabled", slog.String("error", err.Error()))
		return nil
	}
	resolver, err := ens.NewResolver(client)
	if err != nil {
		logger.Error("Failed to build ENS resolver", slog.String("error", err.Error()))
		return nil
	}

	if cfg.RedisURL == "" {
		return resolver
	}
	redisClient, err := ens.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Error("Invalid REDIS_URL, ENS cache disabled", slog.String("error", err.Error()))
		return resolver
	}
	return ens.NewCachedResolver(resolver, redisClient, cfg.ENSCacheTTL, logger)
}
