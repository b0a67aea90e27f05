package service

import (
	"context"
	"fmt"
)

// PaymentGateway is the third-party payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency string) (map[string]any, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// VerifyPaymentInput carries the fields returned by the checkout widget.
type VerifyPaymentInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

// PaymentService validates payment requests before they reach the gateway.
type PaymentService struct {
	gateway  PaymentGateway
	currency string
}

// NewPaymentService returns a PaymentService charging in currency.
func NewPaymentService(gateway PaymentGateway, currency string) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{gateway: gateway, currency: currency}
}

// CreateOrder opens an order for amount, expressed in the smallest currency unit.
func (s *PaymentService) CreateOrder(ctx context.Context, amount int64) (map[string]any, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	order, err := s.gateway.CreateOrder(ctx, amount, s.currency)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// VerifyPayment checks the checkout signature.
func (s *PaymentService) VerifyPayment(in VerifyPaymentInput) error {
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return fmt.Errorf("%w: razorpay_order_id, razorpay_payment_id and razorpay_signature are required", ErrInvalidInput)
	}
	if !s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		return ErrVerificationFailed
	}
	return nil
}
