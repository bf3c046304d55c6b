package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"billdesk/internal/analytics"
	"billdesk/internal/caching"
	"billdesk/internal/config"
	"billdesk/internal/handlers"
	"billdesk/internal/invoicing"
	"billdesk/internal/jobs/background"
	"billdesk/internal/middleware"
	"billdesk/internal/repositories"
	"billdesk/internal/services"
	"billdesk/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// JWT configuration
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" && cfg.AuthJWKSURL == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
	}
	keys, err := middleware.NewKeySource(ctx, cfg.AuthJWKSURL, jwtSecret)
	if err != nil {
		log.Fatalf("Failed to initialize token verification: %v", err)
	}
	defer keys.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Initialize MinIO service
	minioSvc, err := services.NewMinioService(services.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
		Bucket:    cfg.MinioBucket,
		PublicURL: cfg.MinioPublicURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}
	if err := minioSvc.EnsureBucketExists(ctx); err != nil {
		log.Printf("WARN: could not prepare bucket %s: %v", cfg.MinioBucket, err)
	}

	// Create repositories
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	profileRepo := repositories.NewBusinessProfileRepo(pool)

	// Create services
	allocator := invoicing.NewAllocator(invoiceRepo, cfg.InvoiceNumberAttempts)
	invoiceSvc := services.NewInvoiceService(
		invoiceRepo,
		profileRepo,
		allocator,
		cacheSvc,
		minioSvc,
		services.NewPDFService(),
		services.InvoiceDefaults{Currency: cfg.DefaultCurrency, TaxPercent: cfg.DefaultTaxPercent},
	)
	profileSvc := services.NewBusinessProfileService(profileRepo, minioSvc, cfg.DefaultTaxPercent)
	extractionSvc := services.NewExtractionService(cfg.OpenAIAPIKey, cfg.AIModels, invoicing.ExtractionDefaults{
		Currency:   cfg.DefaultCurrency,
		TaxPercent: cfg.DefaultTaxPercent,
	})
	dashboardSvc := analytics.NewDashboardService(invoiceRepo, cacheSvc, analytics.ExchangeRates{
		Base:  cfg.DefaultCurrency,
		Rates: cfg.DashboardRates,
	})

	scheduler, err := background.NewJobScheduler(invoiceSvc, cfg.OverdueSweepInterval)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("WARN: scheduler shutdown: %v", err)
		}
	}()

	// Create handlers
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, minioSvc, scheduler, version)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc)
	profileHandlers := handlers.NewBusinessProfileHandlers(profileSvc)
	aiHandlers := handlers.NewAIHandlers(extractionSvc)
	dashboardHandlers := handlers.NewDashboardHandlers(dashboardSvc)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadHeaderTimeout = 10 * time.Second

	versionMiddleware := middleware.NewVersionMiddleware()
	useGlobalMiddleware(e, versionMiddleware, cfg.AllowedOrigins)

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	v1 := versionMiddleware.VersionRoute(e, "v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(keys.Keyfunc))

	protected.GET("/business-profile/me", profileHandlers.GetMyProfile)
	protected.POST("/business-profile", profileHandlers.CreateProfile)
	protected.PUT("/business-profile/:id", profileHandlers.UpdateProfile)

	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.POST("/invoices", invoiceHandlers.CreateInvoice)
	protected.POST("/invoices/number", invoiceHandlers.AllocateInvoiceNumber)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	protected.PUT("/invoices/:id", invoiceHandlers.UpdateInvoice)
	protected.PUT("/invoices/:id/status", invoiceHandlers.UpdateInvoiceStatus)
	protected.PUT("/invoices/:id/images/:kind", invoiceHandlers.SetInvoiceImage)
	protected.POST("/invoices/:id/pdf", invoiceHandlers.GenerateInvoicePDF)
	protected.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)

	protected.POST("/ai/invoice", aiHandlers.GenerateInvoice,
		middleware.RateLimit(cacheSvc, "ai", cfg.AIRateLimit, time.Minute))

	protected.GET("/dashboard", dashboardHandlers.GetDashboard)

	go func() {
		log.Printf("Billdesk server v%s starting on port %d", version, cfg.Port)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: server shutdown: %v", err)
	}
}

// useGlobalMiddleware installs the middleware every request passes through.
// Trailing slashes are stripped before routing.
func useGlobalMiddleware(e *echo.Echo, versionMiddleware *middleware.VersionMiddleware, allowedOrigins []string) {
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	if len(allowedOrigins) > 0 {
		e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
			AllowOrigins: allowedOrigins,
		}))
	} else {
		e.Use(echoMiddleware.CORS())
	}
	e.Use(versionMiddleware.APIVersionResolver())
}
