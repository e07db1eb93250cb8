// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/app/handlers"
	"github.com/amirphl/Kusanagi/app/middleware"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/utils"
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
	"gopkg.in/natefinch/lumberjack.v2"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app              *fiber.App
	cfg              *config.ProductionConfig
	trackingHandler  handlers.TrackingHandlerInterface
	linkHandler      handlers.LinkHandlerInterface
	analyticsHandler handlers.AnalyticsHandlerInterface
	adminHandler     handlers.AdminHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	trackingHandler handlers.TrackingHandlerInterface,
	linkHandler handlers.LinkHandlerInterface,
	analyticsHandler handlers.AnalyticsHandlerInterface,
	adminHandler handlers.AdminHandlerInterface,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Kusanagi Click Tracker",
		ServerHeader: "Kusanagi",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:              app,
		cfg:              cfg,
		trackingHandler:  trackingHandler,
		linkHandler:      linkHandler,
		analyticsHandler: analyticsHandler,
		adminHandler:     adminHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Index and health (no rate limiting)
	r.app.Get("/", r.index)
	r.app.Get("/health", r.adminHandler.Health)

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Redirect endpoints. No limiter middleware here: the click pipeline
	// runs its own per-visitor limiter and must answer every hit with a
	// redirect, never a 429.
	r.app.Get("/t/:trackingID", r.trackingHandler.Track)
	r.app.Get("/track/:trackingID", r.trackingHandler.Track)

	api := r.app.Group("/api")
	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.APIRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
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

	// Link lifecycle
	api.Post("/links", r.linkHandler.Create)
	api.Post("/links/:trackingID/confirm", r.linkHandler.Confirm)
	api.Post("/update-post", r.linkHandler.UpdatePost)

	// Public reads
	api.Get("/posts", r.analyticsHandler.Posts)
	api.Get("/recent-clicks", r.analyticsHandler.RecentClicks)
	api.Get("/badge-stats", r.analyticsHandler.BadgeStats)

	// Reports
	reports := api.Group("/reports")
	reports.Get("/analytics", r.analyticsHandler.Analytics)
	reports.Get("/concept-clicks", r.analyticsHandler.ConceptClicks)
	reports.Get("/unified", r.analyticsHandler.UnifiedReport)
	reports.Get("/referrals", r.analyticsHandler.ReferralReport)

	// Admin endpoints with stricter rate limiting and API key check
	admin := api.Group("/admin")
	admin.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.AdminRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
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
	admin.Use(r.adminAPIKeyMiddleware)

	admin.Post("/sync-referrals", r.adminHandler.SyncReferrals)
	admin.Post("/reset", r.adminHandler.Reset)
	admin.Get("/export/analytics", r.adminHandler.ExportAnalytics)
	admin.Get("/export/referrals", r.adminHandler.ExportReferrals)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
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
		XSSProtection:         r.cfg.Security.XSSProtection,
		ContentTypeNosniff:    r.cfg.Security.XContentTypeOptions,
		XFrameOptions:         r.cfg.Security.XFrameOptions,
		HSTSMaxAge:            r.cfg.Security.HSTSMaxAge,
		HSTSExcludeSubdomains: !r.cfg.Security.HSTSIncludeSubDoms,
		ContentSecurityPolicy: r.cfg.Security.CSPPolicy,
		ReferrerPolicy:        r.cfg.Security.ReferrerPolicy,
	}))

	// CORS middleware
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.Security.AllowedOrigins,
		AllowMethods: r.cfg.Security.AllowedMethods,
		AllowHeaders: r.cfg.Security.AllowedHeaders,
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware for report payloads
	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	// Access logging middleware, rotated through lumberjack when file
	// output is configured
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Stream:     r.accessLogWriter(),
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == r.cfg.Metrics.Path
		},
	}))

	// Prometheus HTTP metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Custom security middleware
	r.app.Use(r.securityMiddleware)

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
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

// accessLogWriter picks the log destination from config. File output goes
// through lumberjack for rotation.
func (r *FiberRouter) accessLogWriter() io.Writer {
	if !r.cfg.Logging.EnableAccessLog {
		return io.Discard
	}
	switch r.cfg.Logging.Output {
	case "file":
		return r.rotatingWriter()
	case "both":
		return io.MultiWriter(os.Stdout, r.rotatingWriter())
	default:
		return os.Stdout
	}
}

func (r *FiberRouter) rotatingWriter() io.Writer {
	return &lumberjack.Logger{
		Filename:   r.cfg.Logging.AccessLogPath,
		MaxSize:    r.cfg.Logging.MaxSize,
		MaxBackups: r.cfg.Logging.MaxBackups,
		MaxAge:     r.cfg.Logging.MaxAge,
		Compress:   r.cfg.Logging.Compress,
	}
}

// Custom security middleware
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))
	c.Set("Server", "Kusanagi")
	return c.Next()
}

// adminAPIKeyMiddleware guards the admin group. An empty configured key
// disables the check, which is the expected state behind a private network.
func (r *FiberRouter) adminAPIKeyMiddleware(c fiber.Ctx) error {
	expected := r.cfg.Security.AdminAPIKey
	if expected == "" {
		return c.Next()
	}

	provided := c.Get(r.cfg.Security.AdminAPIKeyHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid API key",
			Error: dto.ErrorDetail{
				Code: "INVALID_API_KEY",
			},
		})
	}
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

// index is a plain banner so the bare domain never 404s
func (r *FiberRouter) index(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Kusanagi click tracker",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "kusanagi",
			"endpoints": fiber.Map{
				"redirect":      "/t/:trackingID",
				"links":         "/api/links",
				"posts":         "/api/posts",
				"recent_clicks": "/api/recent-clicks",
				"badge_stats":   "/api/badge-stats",
				"reports":       "/api/reports",
				"health":        "/health",
				"metrics":       r.cfg.Metrics.Path,
			},
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

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
