package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abraxas-365/tenantry/pkg/config"
	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	// 1. Initialize Logger
	logx.SetLevel(logx.ParseLevel(getEnv("LOG_LEVEL", "info")))

	logx.Info("🚀 Starting Tenantry API Server...")

	// 2. Load Configuration & Initialize Dependency Container
	cfg := config.Load()
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 3. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "Tenantry API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		EnablePrintRoutes:     false,
	})

	// 4. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	// Cookies cross the wire on every authenticated request, so credentials
	// must be allowed and the origin list must be explicit in production.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		AllowCredentials: cfg.Server.CORSOrigins != "*",
		ExposeHeaders:    "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 5. Health Check — registered before realm classification so probes
	// work regardless of which hostname they hit.
	app.Get("/health", healthCheckHandler(container))

	// 6. Domain Classification — every route below runs with the request
	// host classified and, on tenant hosts, the tenant bound.
	app.Use(realm.Middleware(container.IAM.Classifier, container.IAM.TenantResolver))

	// 7. Register Routes
	authMiddleware := container.IAM.AuthMiddleware.Authenticate()

	// Auth: /auth/login, /auth/logout, /auth/me, /auth/transition/complete
	container.IAM.AuthHandlers.RegisterRoutes(app, authMiddleware)
	logx.Info("✓ Auth routes registered")

	// Invitations: /invitation/:token, /api/v1/invitations/*
	container.IAM.InvitationHandlers.RegisterRoutes(app, authMiddleware)
	logx.Info("✓ Invitation routes registered")

	// Handoff redemption: /impersonate/:token (tenant hosts only)
	container.IAM.HandoffHandlers.RegisterRoutes(app)
	logx.Info("✓ Handoff routes registered")

	// 8. 404 Handler
	app.Use(notFoundHandler)

	// 9. Background Workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	container.StartBackgroundServices(workerCtx)

	// 10. Start Server with Graceful Shutdown
	startServer(app, container, stopWorkers)
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler reports the health of the service and its backing stores.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "tenantry-api",
			"version": getEnv("APP_VERSION", "1.0.0"),
		}

		if err := container.DB.Ping(); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if err := container.Redis.Ping(c.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["redis_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"message":    "The requested endpoint does not exist",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"host":       c.Hostname(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	// If it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":      e.Message,
			"code":       "FIBER_ERROR",
			"status":     e.Code,
			"request_id": c.Get("X-Request-ID"),
		})
	}

	// If it's our custom errx.Error
	if e, ok := err.(*errx.Error); ok {
		response := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": c.Get("X-Request-ID"),
		}

		if len(e.Details) > 0 {
			response["details"] = e.Details
		}

		if getEnv("DEBUG", "false") == "true" && e.Err != nil {
			response["underlying_error"] = e.Err.Error()
		}

		return c.Status(e.HTTPStatus).JSON(response)
	}

	// Default unknown error
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"type":       "INTERNAL",
		"code":       "INTERNAL_ERROR",
		"message":    "An unexpected error occurred",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Lifecycle
// ============================================================================

// startServer starts the server and blocks until shutdown completes.
func startServer(app *fiber.App, container *Container, stopWorkers context.CancelFunc) {
	port := container.Config.Server.Port

	go func() {
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app, container, stopWorkers)
}

// gracefulShutdown drains HTTP traffic and stops the job workers on
// SIGINT/SIGTERM.
func gracefulShutdown(app *fiber.App, container *Container, stopWorkers context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(container.Config.Server.ShutdownTimeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	stopWorkers()

	logx.Info("✅ Server exited successfully")
}
