package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/greens-storefront/internal/ai"
	"github.com/01moynul/greens-storefront/internal/auth"
	"github.com/01moynul/greens-storefront/internal/cache"
	"github.com/01moynul/greens-storefront/internal/catalog"
	"github.com/01moynul/greens-storefront/internal/config"
	"github.com/01moynul/greens-storefront/internal/database"
	"github.com/01moynul/greens-storefront/internal/email"
	"github.com/01moynul/greens-storefront/internal/handlers"
	"github.com/01moynul/greens-storefront/internal/logger"
	"github.com/01moynul/greens-storefront/internal/middleware"
	"github.com/01moynul/greens-storefront/internal/routes"
	"github.com/01moynul/greens-storefront/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 0. --- Configuration & Logging ---
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection ---
	db, err := database.OpenDB(ctx, database.PoolConfig{
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 2. --- Catalog Cache (optional) ---
	var catalogCache *cache.CatalogCache
	if cfg.CacheEnabled() {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			catalogCache = cache.NewCatalogCache(client, cfg.CacheTTL, log)
			log.Info("Catalog cache enabled", zap.Duration("ttl", cfg.CacheTTL))
		}
	}
	store := catalog.NewStore(db, catalogCache, log)

	// 3. --- Image Storage ---
	var images storage.ImageStore = storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatal("Failed to initialize S3 image storage", zap.Error(err))
		}
		images = s3Store
		log.Info("Storing product images in S3", zap.String("bucket", cfg.S3Bucket))
	}

	// 4. --- Mail ---
	var mailer email.Sender = email.NewLogSender(log)
	if cfg.SMTPEnabled() {
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		})
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:                db,
		Catalog:           store,
		Images:            images,
		Mailer:            mailer,
		Log:               log,
		AdminPasswordHash: cfg.AdminPasswordHash,
		CartTTL:           cfg.CartTTL,
	}
	if cfg.AdminEnabled() {
		app.Tokens = auth.NewManager(cfg.JWTSecret, cfg.AdminTokenTTL)
	} else {
		log.Warn("ADMIN_PASSWORD_HASH not set, admin routes are disabled")
	}

	// 5. --- Shopping Assistant (optional) ---
	if cfg.AssistantEnabled() {
		assistant, err := ai.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, store, log)
		if err != nil {
			log.Fatal("Failed to initialize shopping assistant", zap.Error(err))
		}
		defer assistant.Close()
		app.Assistant = assistant
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, 10*time.Minute)

	// --- Background Worker ---
	// Prunes abandoned carts and idle rate limiter buckets.
	go func() {
		ticker := time.NewTicker(cfg.CartSweepInterval)
		defer ticker.Stop()

		log.Info("Background worker started", zap.Duration("interval", cfg.CartSweepInterval))
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, err := app.PruneStaleCarts(ctx); err != nil {
					log.Error("Cart sweep failed", zap.Error(err))
				}
				limiter.Prune(now)
			}
		}
	}()

	// --- Router Setup ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(app, cfg, limiter, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- Start Server ---
	go func() {
		log.Info("Starting Greens storefront API", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let queued confirmation mail finish.
	app.Wait()
	log.Info("Server exited")
}
