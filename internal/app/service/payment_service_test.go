package service

import (
	"context"
	"errors"
	"testing"
)

type mockPaymentGateway struct {
	createFn func(ctx context.Context, amount int64, currency string) (map[string]any, error)
	verifyFn func(orderID, paymentID, signature string) bool
}

func (m *mockPaymentGateway) CreateOrder(ctx context.Context, amount int64, currency string) (map[string]any, error) {
	return m.createFn(ctx, amount, currency)
}

func (m *mockPaymentGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return m.verifyFn(orderID, paymentID, signature)
}

func TestPaymentService_CreateOrder(t *testing.T) {
	gateway := &mockPaymentGateway{
		createFn: func(ctx context.Context, amount int64, currency string) (map[string]any, error) {
			if amount != 10000 || currency != "INR" {
				t.Fatalf("unexpected order %d %s", amount, currency)
			}
			return map[string]any{"id": "order_1", "amount": amount}, nil
		},
	}

	order, err := NewPaymentService(gateway, "").CreateOrder(context.Background(), 10000)
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order["id"] != "order_1" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestPaymentService_CreateOrder_InvalidAmount(t *testing.T) {
	svc := NewPaymentService(&mockPaymentGateway{}, "INR")
	if _, err := svc.CreateOrder(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPaymentService_VerifyPayment(t *testing.T) {
	gateway := &mockPaymentGateway{
		verifyFn: func(orderID, paymentID, signature string) bool {
			return signature == "good"
		},
	}
	svc := NewPaymentService(gateway, "INR")

	if err := svc.VerifyPayment(VerifyPaymentInput{OrderID: "o", PaymentID: "p", Signature: "good"}); err != nil {
		t.Fatalf("expected verification to pass, got %v", err)
	}
	if err := svc.VerifyPayment(VerifyPaymentInput{OrderID: "o", PaymentID: "p", Signature: "bad"}); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if err := svc.VerifyPayment(VerifyPaymentInput{OrderID: "o", Signature: "good"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
