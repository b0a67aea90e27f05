package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/graby/internal/app/service"
	inthttp "github.com/sifan077/graby/internal/http/handler"
	"github.com/sifan077/graby/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles the services and infrastructure required by the HTTP server.
type Dependencies struct {
	Logger *zap.Logger
	// Redis enables per-IP rate limiting when non-nil.
	Redis     *redis.Client
	RateLimit middleware.RateLimitConfig
	Links     service.LinkService
	Credits   service.CreditService
	Redirects *service.RedirectService
	Analytics *service.AnalyticsService
	Payments  *service.PaymentService

	// RequireLinkID disables server-generated link ids.
	RequireLinkID bool
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "graby",
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, s.deps.RateLimit, s.deps.Logger))
	}
}

func (s *Server) registerRoutes() {
	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:        s.deps.Logger,
		Links:         s.deps.Links,
		Credits:       s.deps.Credits,
		Analytics:     s.deps.Analytics,
		RequireLinkID: s.deps.RequireLinkID,
	})
	apiHandler.Register(s.app)

	paymentHandler := inthttp.NewPaymentHandler(s.deps.Logger, s.deps.Payments)
	paymentHandler.Register(s.app)

	// The catch-all /:link_id route goes last.
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:    s.deps.Logger,
		Redirects: s.deps.Redirects,
	})
	redirectHandler.Register(s.app)
}
