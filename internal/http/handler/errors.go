package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/graby/internal/app/repository"
	"github.com/sifan077/graby/internal/app/service"
	"github.com/sifan077/graby/internal/http/middleware"
	"go.uber.org/zap"
)

// statusFor maps domain errors onto HTTP status codes and client-safe
// messages. Unknown errors become a generic 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrVerificationFailed):
		return fiber.StatusBadRequest, "signature verification failed"
	case errors.Is(err, repository.ErrLinkNotFound):
		return fiber.StatusNotFound, "link not found or already used"
	case errors.Is(err, repository.ErrUserNotFound):
		return fiber.StatusNotFound, "user not found"
	case errors.Is(err, repository.ErrLinkExists):
		return fiber.StatusConflict, "link id already taken"
	case errors.Is(err, service.ErrLinkExpired):
		return fiber.StatusGone, "link has expired"
	case errors.Is(err, repository.ErrInsufficientCredit):
		return fiber.StatusPaymentRequired, "no credits left"
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, msg string, err error) error {
	status, text := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Error(msg, zap.Error(err), zap.String("request_id", middleware.RequestIDFrom(c)))
	}
	return c.Status(status).JSON(fiber.Map{"error": text})
}

func badRequest(c *fiber.Ctx, text string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": text})
}
