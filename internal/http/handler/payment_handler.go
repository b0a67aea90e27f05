package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/graby/internal/app/service"
	"go.uber.org/zap"
)

// PaymentHandler exposes the Razorpay checkout endpoints.
type PaymentHandler struct {
	logger   *zap.Logger
	payments *service.PaymentService
}

// NewPaymentHandler creates a payment handler.
func NewPaymentHandler(logger *zap.Logger, payments *service.PaymentService) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{logger: logger, payments: payments}
}

// Register wires payment routes onto the provided router.
func (h *PaymentHandler) Register(router fiber.Router) {
	router.Post("/api/create-order", h.CreateOrder)
	router.Post("/api/verify-payment", h.VerifyPayment)
}

// CreateOrderRequest accepts the amount as a JSON number or numeric string.
type CreateOrderRequest struct {
	Amount json.Number `json:"amount"`
}

// CreateOrder handles POST /api/create-order
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Amount == "" {
		return badRequest(c, "amount is required")
	}
	amount, err := req.Amount.Int64()
	if err != nil {
		return badRequest(c, "amount must be an integer")
	}

	order, err := h.payments.CreateOrder(c.UserContext(), amount)
	if err != nil {
		return writeError(c, h.logger, "failed to create order", err)
	}
	return c.JSON(order)
}

// VerifyPaymentRequest carries the checkout callback fields.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyPayment handles POST /api/verify-payment
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	err := h.payments.VerifyPayment(service.VerifyPaymentInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		h.logger.Warn("payment verification rejected",
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID),
			zap.Error(err))
		return writeError(c, h.logger, "failed to verify payment", err)
	}

	return c.JSON(fiber.Map{"verified": true})
}
