package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "INR"

// GatewayOrder is what the client checkout popup needs to start a payment.
type GatewayOrder struct {
	ID       string `json:"gateway_order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, receipt string, amountMinor int64, notes map[string]string) (*GatewayOrder, error)
}

// AmountMinor converts a major-unit total into the gateway's minor units.
func AmountMinor(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type RazorpayGateway struct {
	client   *razorpay.Client
	keyID    string
	currency string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:   razorpay.NewClient(keyID, keySecret),
		keyID:    keyID,
		currency: DefaultCurrency,
	}
}

func (g *RazorpayGateway) CreateOrder(_ context.Context, receipt string, amountMinor int64, notes map[string]string) (*GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": g.currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	resp, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}

	id, _ := resp["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("create razorpay order: response has no id")
	}

	return &GatewayOrder{
		ID:       id,
		Amount:   amountMinor,
		Currency: g.currency,
		KeyID:    g.keyID,
	}, nil
}
