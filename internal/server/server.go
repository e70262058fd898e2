package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
	"github.com/gofiber/template/html/v3"
	"github.com/rs/zerolog"

	"tweetwatch/internal/config"
	"tweetwatch/views"
)

// Server wraps the Fiber app and configuration.
type Server struct {
	App *fiber.App
	Cfg *config.Config

	log     zerolog.Logger
	storage fiber.Storage
}

// New creates a new server with middleware configured.
func New(cfg *config.Config, log zerolog.Logger) *Server {
	// Setup template engine
	engine := html.NewFileSystem(http.FS(views.FS), ".html")
	engine.Reload(cfg.IsDev())

	app := fiber.New(fiber.Config{
		AppName:     "tweetwatch",
		Views:       engine,
		ViewsLayout: "layouts/main",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			}

			return c.Status(code).JSON(fiber.Map{
				"status": "error",
				"error":  message,
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{App: app, Cfg: cfg, log: log}

	// Rate limiting middleware, shared across replicas when Redis is configured
	limiterCfg := limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status": "error",
				"error":  "Rate limit exceeded. Please try again later.",
			})
		},
	}
	if cfg.RedisURL != "" {
		s.storage = redis.New(redis.Config{URL: cfg.RedisURL})
		limiterCfg.Storage = s.storage
		log.Info().Msg("rate limiter using redis storage")
	}
	app.Use(limiter.New(limiterCfg))

	return s
}

// Start starts the server on the configured address.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.Cfg.ServerAddr).Msg("starting management api")
	return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	err := s.App.Shutdown()
	if s.storage != nil {
		if cerr := s.storage.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
