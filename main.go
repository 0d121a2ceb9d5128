// Package main provides the main entry point for the FieldOps field service management API
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/talonsoft/fieldops/app/handlers"
	"github.com/talonsoft/fieldops/app/middleware"
	"github.com/talonsoft/fieldops/app/router"
	"github.com/talonsoft/fieldops/app/scheduler"
	"github.com/talonsoft/fieldops/app/services"
	businessflow "github.com/talonsoft/fieldops/business_flow"
	"github.com/talonsoft/fieldops/config"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting FieldOps application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Seed the service type catalog
	if err := ensureServiceTypes(db); err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	contactRepo := repository.NewContactRepository(db)
	siteRepo := repository.NewSiteRepository(db)
	contractRepo := repository.NewContractRepository(db)
	serviceTypeRepo := repository.NewServiceTypeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	orderEventRepo := repository.NewOrderEventRepository(db)
	locationRepo := repository.NewTechnicianLocationRepository(db)
	slaAlertRepo := repository.NewSLAAlertRepository(db)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
		rc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Location hub bridges live pings to stream subscribers, across
	// instances when Redis is configured.
	locationHub := services.NewLocationHub(rc)
	if rc != nil {
		stopHub := locationHub.Run(context.Background())
		stopFuncs = append(stopFuncs, stopHub)
	}

	reportService := services.NewReportService()

	// Initialize flows
	loginFlow := businessflow.NewLoginFlow(userRepo, tokenService, db)
	clientFlow := businessflow.NewClientFlow(clientRepo, contactRepo, siteRepo, contractRepo, db)
	contractFlow := businessflow.NewContractFlow(clientRepo, contractRepo, db)
	orderFlow := businessflow.NewOrderFlow(
		orderRepo,
		orderEventRepo,
		clientRepo,
		siteRepo,
		serviceTypeRepo,
		userRepo,
		contractRepo,
		db,
	)
	locationFlow := businessflow.NewLocationFlow(locationRepo, userRepo, orderRepo, locationHub, db)
	technicianFlow := businessflow.NewTechnicianFlow(userRepo, orderRepo, locationRepo, db)
	reportFlow := businessflow.NewReportFlow(orderRepo, reportService, db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(loginFlow)
	clientHandler := handlers.NewClientHandler(clientFlow, contractFlow)
	orderHandler := handlers.NewOrderHandler(orderFlow)
	locationHandler := handlers.NewLocationHandler(locationFlow, locationHub)
	technicianHandler := handlers.NewTechnicianHandler(technicianFlow)
	reportHandler := handlers.NewReportHandler(reportFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		clientHandler,
		orderHandler,
		locationHandler,
		technicianHandler,
		reportHandler,
		authMiddleware,
		db,
		rc,
		cfg.Security.AllowedOrigins,
	)

	if cfg.SLA.MonitorEnabled {
		monitor := scheduler.NewSLAMonitor(orderRepo, slaAlertRepo, db, log.Default(), cfg.SLA.MonitorInterval)
		stopMonitor := monitor.Start(context.Background())
		stopFuncs = append(stopFuncs, stopMonitor)
	}

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureServiceTypes seeds the catalog on first boot so orders can be
// created against a fresh database.
func ensureServiceTypes(db *gorm.DB) error {
	serviceTypeRepo := repository.NewServiceTypeRepository(db)

	defaults := []struct {
		name        string
		description string
	}{
		{"installation", "New equipment installation"},
		{"maintenance", "Scheduled preventive maintenance"},
		{"repair", "Corrective repair visit"},
		{"inspection", "Site and equipment inspection"},
	}

	for _, st := range defaults {
		existing, err := serviceTypeRepo.ByName(context.Background(), st.name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		record := models.ServiceType{
			Name:        st.name,
			Description: utils.ToPtr(st.description),
			IsActive:    utils.ToPtr(true),
		}
		if err := serviceTypeRepo.Save(context.Background(), &record); err != nil {
			return err
		}
	}

	return nil
}
