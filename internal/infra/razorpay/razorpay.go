package razorpay

import (
	"context"
	"errors"
	"fmt"

	rzp "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/sifan077/graby/config"
)

// ErrNotConfigured is returned when the key pair is missing.
var ErrNotConfigured = errors.New("razorpay: key id and secret are not configured")

// Gateway creates Razorpay orders and checks checkout signatures.
type Gateway struct {
	client *rzp.Client
	secret string
}

// New returns a Gateway. Without a key pair every call fails with
// ErrNotConfigured so the rest of the server can still start.
func New(cfg config.PaymentConfig) *Gateway {
	g := &Gateway{secret: cfg.Secret}
	if cfg.KeyID != "" && cfg.Secret != "" {
		g.client = rzp.NewClient(cfg.KeyID, cfg.Secret)
	}
	return g
}

// Configured reports whether a key pair was supplied.
func (g *Gateway) Configured() bool {
	return g.client != nil
}

// CreateOrder opens an auto-captured order. The SDK call is blocking and has
// no context support, so ctx is only checked before the call.
func (g *Gateway) CreateOrder(ctx context.Context, amount int64, currency string) (map[string]any, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order, err := g.client.Order.Create(map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	return order, nil
}

// VerifySignature checks the checkout signature for an order and payment
// pair with the SDK helper. It always fails without a secret.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	if g.secret == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, g.secret)
}
