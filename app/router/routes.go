// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/app/handlers"
	"github.com/talonsoft/fieldops/app/middleware"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app               *fiber.App
	authHandler       handlers.AuthHandlerInterface
	clientHandler     handlers.ClientHandlerInterface
	orderHandler      handlers.OrderHandlerInterface
	locationHandler   handlers.LocationHandlerInterface
	technicianHandler handlers.TechnicianHandlerInterface
	reportHandler     handlers.ReportHandlerInterface
	authMiddleware    *middleware.AuthMiddleware
	db                *gorm.DB
	rc                *redis.Client
	allowedOrigins    []string
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	authHandler handlers.AuthHandlerInterface,
	clientHandler handlers.ClientHandlerInterface,
	orderHandler handlers.OrderHandlerInterface,
	locationHandler handlers.LocationHandlerInterface,
	technicianHandler handlers.TechnicianHandlerInterface,
	reportHandler handlers.ReportHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	db *gorm.DB,
	rc *redis.Client,
	allowedOrigins []string,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "FieldOps API",
		ServerHeader: "FieldOps",
		ErrorHandler: errorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:               app,
		authHandler:       authHandler,
		clientHandler:     clientHandler,
		orderHandler:      orderHandler,
		locationHandler:   locationHandler,
		technicianHandler: technicianHandler,
		reportHandler:     reportHandler,
		authMiddleware:    authMiddleware,
		db:                db,
		rc:                rc,
		allowedOrigins:    allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Prometheus scrape endpoint, outside the versioned API
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// General rate limiting for all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        2000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks and the live stream
			return c.Path() == "/api/v1/health" || c.Path() == "/api/v1/locations/stream"
		},
	}))

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	}))

	auth.Post("/login", r.authHandler.Login)
	auth.Post("/refresh", r.authHandler.Refresh)
	auth.Post("/logout", r.authHandler.Logout)

	authenticate := r.authMiddleware.Authenticate()
	backOffice := r.authMiddleware.RequireRoles(models.RoleAdmin, models.RoleDispatcher)

	// Client registry
	clients := api.Group("/clients", authenticate)
	clients.Get("/", r.clientHandler.ListClients)
	clients.Post("/", r.clientHandler.CreateClient, backOffice)
	clients.Get("/:id", r.clientHandler.GetClient)
	clients.Put("/:id", r.clientHandler.UpdateClient, backOffice)
	clients.Delete("/:id", r.clientHandler.DeactivateClient, backOffice)

	clients.Post("/:id/contacts", r.clientHandler.AddContact, backOffice)
	clients.Put("/:id/contacts/:contactId", r.clientHandler.UpdateContact, backOffice)
	clients.Delete("/:id/contacts/:contactId", r.clientHandler.RemoveContact, backOffice)

	clients.Post("/:id/sites", r.clientHandler.AddSite, backOffice)
	clients.Put("/:id/sites/:siteId", r.clientHandler.UpdateSite, backOffice)
	clients.Delete("/:id/sites/:siteId", r.clientHandler.RemoveSite, backOffice)

	clients.Get("/:id/contracts", r.clientHandler.ListContracts)
	clients.Post("/:id/contracts", r.clientHandler.CreateContract, backOffice)

	contracts := api.Group("/contracts", authenticate, backOffice)
	contracts.Put("/:contractId", r.clientHandler.UpdateContract)
	contracts.Delete("/:contractId", r.clientHandler.DeleteContract)

	// Work orders
	orders := api.Group("/orders", authenticate)
	orders.Get("/", r.orderHandler.ListOrders)
	orders.Post("/", r.orderHandler.CreateOrder, backOffice)
	orders.Get("/:id", r.orderHandler.GetOrder)
	orders.Put("/:id", r.orderHandler.UpdateOrder, backOffice)
	orders.Get("/:id/events", r.orderHandler.ListOrderEvents)

	// Lifecycle moves. Technicians act on their own orders; the flow
	// enforces assignment.
	orders.Post("/:id/transition", r.orderHandler.Transition)
	orders.Post("/:id/assign", r.orderHandler.Assign, backOffice)
	orders.Post("/:id/unassign", r.orderHandler.Unassign, backOffice)
	orders.Post("/:id/check-in", r.orderHandler.CheckIn)
	orders.Post("/:id/check-out", r.orderHandler.CheckOut)
	orders.Post("/:id/sla/recalculate", r.orderHandler.RecalculateSLA, backOffice)

	// Technician locations
	locations := api.Group("/locations", authenticate)
	locations.Post("/ping", r.locationHandler.Ping, r.authMiddleware.RequireRoles(models.RoleTechnician))
	locations.Get("/current", r.locationHandler.Current)
	locations.Get("/stream", r.locationHandler.Stream)

	// Technician roster
	technicians := api.Group("/technicians", authenticate)
	technicians.Get("/", r.technicianHandler.ListTechnicians)
	technicians.Get("/:id", r.technicianHandler.GetTechnician)

	// Reports
	reports := api.Group("/reports", authenticate, backOffice)
	reports.Get("/orders.xlsx", r.reportHandler.OrdersReport)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000, // 1 year
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     "default-src 'self'; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.allowedOrigins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Never buffer the event stream
			return contains(c.Path(), "/locations/stream")
		},
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks and metrics scrapes
			return c.Path() == "/api/v1/health" || c.Path() == "/metrics"
		},
	}))

	// Prometheus HTTP metrics
	r.app.Use(middleware.Metrics())

	// Custom security middleware
	r.app.Use(r.securityMiddleware)

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Custom security middleware
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))
	c.Set("Server", "FieldOps")
	return c.Next()
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint. Reports degraded dependencies without failing the
// probe so load balancers keep routing while Redis is down.
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	database := "ok"
	if sqlDB, err := r.db.DB(); err != nil {
		database = "error"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		database = "error"
	}

	cache := "disabled"
	if r.rc != nil {
		cache = "ok"
		if err := r.rc.Ping(ctx).Err(); err != nil {
			cache = "error"
		}
	}

	status := fiber.StatusOK
	overall := "ok"
	if database == "error" {
		status = fiber.StatusServiceUnavailable
		overall = "degraded"
	} else if cache == "error" {
		overall = "degraded"
	}

	return c.Status(status).JSON(dto.APIResponse{
		Success: database != "error",
		Message: "Service health",
		Data: fiber.Map{
			"status":    overall,
			"database":  database,
			"cache":     cache,
			"timestamp": utils.UTCNow().Unix(),
			"service":   "fieldops-api",
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// contains checks if a string contains a substring
func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}
