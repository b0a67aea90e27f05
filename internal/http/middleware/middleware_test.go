package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestCORS_PreflightIsEmptyOK(t *testing.T) {
	app := fiber.New()
	app.Use(CORS())
	app.Post("/api/create-link", func(c *fiber.Ctx) error {
		t.Fatal("handler must not run for preflight")
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodOptions, "/api/create-link", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Fatalf("expected an empty body, got %q", body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	var seen string
	app.Get("/", func(c *fiber.Ctx) error {
		seen = RequestIDFrom(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if seen == "" || resp.Header.Get(RequestIDHeader) != seen {
		t.Fatalf("expected generated id to be echoed, got %q vs %q", seen, resp.Header.Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, _ = app.Test(req)
	if resp.Header.Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected caller id to be kept, got %q", resp.Header.Get(RequestIDHeader))
	}
}

func TestRecovery_ReturnsInternalServerError(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID(), Recovery(zap.NewNop()), Logger(zap.NewNop()))
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
