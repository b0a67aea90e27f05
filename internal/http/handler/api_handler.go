package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger    *zap.Logger
	Links     service.LinkService
	Credits   service.CreditService
	Analytics *service.AnalyticsService

	// RequireLinkID rejects create-link requests without a link_id instead
	// of generating one.
	RequireLinkID bool
}

// APIHandler implements the link, credit and analytics endpoints.
type APIHandler struct {
	logger    *zap.Logger
	links     service.LinkService
	credits   service.CreditService
	analytics *service.AnalyticsService
	requireID bool
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:    logger,
		links:     deps.Links,
		credits:   deps.Credits,
		analytics: deps.Analytics,
		requireID: deps.RequireLinkID,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		api.Post("/create-link", h.CreateLink)
		api.Get("/links", h.ListLinks)
		api.Post("/users", h.RegisterUser)
		api.Get("/credits", h.GetCredits)
		api.Post("/add-credits", h.AddCredits)
		api.Get("/analytics", h.Analytics)
	}
}

// CreateLinkRequest represents the request body for creating a link.
// LinkID is optional: when empty the server generates one, unless the
// handler was built with RequireLinkID.
type CreateLinkRequest struct {
	OriginalURL string `json:"original_url"`
	UserID      string `json:"user_id"`
	LinkID      string `json:"link_id,omitempty"`
}

// CreateLink handles POST /api/create-link
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.OriginalURL == "" || req.UserID == "" || (h.requireID && req.LinkID == "") {
		return badRequest(c, "missing required fields")
	}

	link, err := h.links.CreateLink(c.UserContext(), service.CreateLinkInput{
		ID:          req.LinkID,
		OriginalURL: req.OriginalURL,
		OwnerUserID: req.UserID,
	})
	if err != nil {
		return writeError(c, h.logger, "failed to create link", err)
	}

	resp := fiber.Map{
		"message": "Link created",
		"link_id": link.ID,
	}
	if link.ExpiresAt != nil {
		resp["expires_at"] = link.ExpiresAt
	}
	return c.JSON(resp)
}

// ListLinks handles GET /api/links?user_id=
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return badRequest(c, "missing user_id")
	}

	limit := 20
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}
	offset := 0
	if parsed := c.QueryInt("offset"); parsed > 0 {
		offset = parsed
	}

	links, err := h.links.ListLinks(c.UserContext(), userID, limit, offset)
	if err != nil {
		return writeError(c, h.logger, "failed to list links", err)
	}
	if links == nil {
		links = []model.Link{}
	}

	return c.JSON(fiber.Map{
		"links":  links,
		"limit":  limit,
		"offset": offset,
		"count":  len(links),
	})
}

// RegisterUserRequest represents the request body for creating an account.
type RegisterUserRequest struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// RegisterUser handles POST /api/users
func (h *APIHandler) RegisterUser(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.credits.Register(c.UserContext(), service.RegisterUserInput{
		UID:         req.UID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		return writeError(c, h.logger, "failed to register user", err)
	}

	return c.JSON(fiber.Map{
		"uid":     user.UID,
		"credits": user.Credits,
	})
}

// GetCredits handles GET /api/credits?uid=
func (h *APIHandler) GetCredits(c *fiber.Ctx) error {
	uid := c.Query("uid")
	if uid == "" {
		return badRequest(c, "missing uid")
	}

	balance, err := h.credits.Balance(c.UserContext(), uid)
	if err != nil {
		return writeError(c, h.logger, "failed to read balance", err)
	}
	return c.JSON(fiber.Map{"uid": uid, "credits": balance})
}

// AddCreditsRequest represents the request body for topping up a balance.
type AddCreditsRequest struct {
	UID     string `json:"uid"`
	Credits *int64 `json:"credits"`
}

// AddCredits handles POST /api/add-credits
func (h *APIHandler) AddCredits(c *fiber.Ctx) error {
	var req AddCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if req.UID == "" || req.Credits == nil {
		return badRequest(c, "invalid request")
	}

	balance, err := h.credits.Add(c.UserContext(), req.UID, *req.Credits)
	if err != nil {
		return writeError(c, h.logger, "failed to add credits", err)
	}

	h.logger.Info("credits added",
		zap.String("uid", req.UID),
		zap.Int64("amount", *req.Credits),
		zap.Int64("balance", balance))

	return c.JSON(fiber.Map{
		"message":    "Credits added",
		"newCredits": balance,
	})
}

// Analytics handles GET /api/analytics?user_id=
func (h *APIHandler) Analytics(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return badRequest(c, "missing user_id")
	}

	report, err := h.analytics.ForUser(c.UserContext(), userID)
	if err != nil {
		return writeError(c, h.logger, "failed to aggregate analytics", err)
	}
	if report.Skipped > 0 {
		h.logger.Warn("analytics skipped malformed click logs",
			zap.String("user_id", userID),
			zap.Int("skipped", report.Skipped))
	}

	return c.JSON(report)
}
