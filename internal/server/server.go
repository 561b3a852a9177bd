package server

import (
	"context"
	"fmt"
	"net"
	"os"

	"memex-be/internal/bootstrap"
	"memex-be/internal/config"
	"memex-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "memex",
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          serverutils.ErrorHandler(container.Logger),
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	// Routes
	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

// Run blocks serving on the unix socket when one is configured, otherwise on
// host:port.
func (s *Server) Run() error {
	if socket := s.cfg.App.Socket; socket != "" {
		// a stale socket from a previous run blocks the bind
		_ = os.Remove(socket)
		ln, err := net.Listen("unix", socket)
		if err != nil {
			return fmt.Errorf("listen on socket %s: %w", socket, err)
		}
		s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{"socket": socket})
		return s.app.Listener(ln)
	}

	addr := net.JoinHostPort(s.cfg.App.Host, s.cfg.App.Port)
	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{"addr": "http://" + addr})
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")

	var guards []fiber.Handler
	if cfg.Keys.JWTSecret != "" {
		guards = append(guards, serverutils.JwtMiddleware(cfg.Keys.JWTSecret))
	}

	c.SearchController.RegisterRoutes(api, guards...)
	c.ChatController.RegisterRoutes(api, guards...)
}
