package http

import (
	"log/slog"
	"time"

	"cv-builder/internal/session"
	"cv-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Deps carries everything the HTTP surface is wired to.
type Deps struct {
	CV         *usecase.CVService
	Exporter   *usecase.Exporter
	Store      session.Store
	SessionTTL time.Duration

	Env         string
	Production  bool
	CORSOrigins string
	// RateLimit is the number of requests per minute per client; 0 disables it.
	RateLimit int
	// AccessLog enables per-request logging.
	AccessLog bool
	Log       *slog.Logger
}

func NewApp(d Deps) *fiber.App {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	app := fiber.New(fiber.Config{
		AppName:      "cv-builder",
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: NewErrorHandler(d.Production, d.Log),
	})

	if d.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !d.Production,
	}))
	// credentials are only allowed with an explicit origin list
	origins := d.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: origins != "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization,X-Requested-With",
	}))
	app.Use(helmet.New(helmet.Config{
		ContentSecurityPolicy:     "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' https:",
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	if d.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        d.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Message: "Too many requests, please try again later"})
			},
		}))
	}

	sys := NewSystemHandler(d.Store, d.Env)
	app.Get("/", sys.Index)
	app.Get("/health", sys.Health)

	api := app.Group("/api")
	api.Get("/", sys.Index)
	api.Get("/health", sys.Health)

	withSession := SessionMiddleware(d.Store, d.SessionTTL, d.Production)
	NewCVHandler(d.CV).RegisterRoutes(api.Group("/cv", withSession))
	NewExportHandler(d.Exporter, d.CV).RegisterRoutes(api.Group("/export"), withSession)

	app.Use(NotFound)
	return app
}
