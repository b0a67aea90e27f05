package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/service"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger    *zap.Logger
	Redirects *service.RedirectService
}

// RedirectHandler serves short links.
type RedirectHandler struct {
	logger    *zap.Logger
	redirects *service.RedirectService
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:    logger,
		redirects: deps.Redirects,
	}
}

// Register wires redirect routes onto the provided router. It must be
// registered after every fixed route since /:link_id matches any segment.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/:link_id", h.Redirect)
}

// Health is a simple endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "graby",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Redirect handles GET /:link_id?lat=&lng=&city=
func (h *RedirectHandler) Redirect(c *fiber.Ctx) error {
	linkID := c.Params("link_id")
	if linkID == "" {
		return badRequest(c, "missing link id")
	}

	target, err := h.redirects.Visit(c.UserContext(), service.VisitInput{
		LinkID:   linkID,
		Location: visitorLocation(c),
	})
	if err != nil {
		return writeError(c, h.logger, "failed to redirect", err)
	}

	// One-shot links must not be served from a browser cache.
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Redirect(target, fiber.StatusFound)
}

// visitorLocation reads the client-reported position. Coordinates that do
// not parse are reported as 0,0, which analytics treats as unknown.
func visitorLocation(c *fiber.Ctx) model.Location {
	loc := model.Location{City: c.Query("city")}

	lat, latErr := strconv.ParseFloat(c.Query("lat", "0"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng", "0"), 64)
	if latErr == nil && lngErr == nil {
		loc.Lat, loc.Lng = lat, lng
	}
	return loc
}
