package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayProvider drives the local/UPI flow. Order creation returns the
// parameters the frontend feeds to the Razorpay checkout widget; settlement
// is confirmed either by the client-submitted signature triplet or by
// polling the order's payments.
type RazorpayProvider struct {
	KeyID     string
	KeySecret string
	client    *razorpay.Client
}

func NewRazorpayProvider(keyID, keySecret string) *RazorpayProvider {
	return &RazorpayProvider{
		KeyID:     keyID,
		KeySecret: keySecret,
		client:    razorpay.NewClient(keyID, keySecret),
	}
}

func (p *RazorpayProvider) Name() string { return "razorpay" }

func (p *RazorpayProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	data := map[string]interface{}{
		"amount":   req.AmountCents,
		"currency": req.Currency,
		"receipt":  req.Reference,
	}
	if len(req.Metadata) > 0 {
		notes := make(map[string]interface{}, len(req.Metadata))
		for k, v := range req.Metadata {
			notes[k] = v
		}
		data["notes"] = notes
	}
	order, err := p.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	orderID, _ := order["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay create order: no order id in response")
	}
	return &Order{
		ProviderOrderID: orderID,
		ClientParams: map[string]interface{}{
			"key":      p.KeyID,
			"order_id": orderID,
			"amount":   req.AmountCents,
			"currency": req.Currency,
			"name":     req.Description,
		},
	}, nil
}

// OrderPaid lists the order's payments and reports whether any was captured.
func (p *RazorpayProvider) OrderPaid(ctx context.Context, orderID string) (bool, string, error) {
	payments, err := p.client.Order.Payments(orderID, nil, nil)
	if err != nil {
		return false, "", fmt.Errorf("razorpay order payments: %w", err)
	}
	items, _ := payments["items"].([]interface{})
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		if status, _ := m["status"].(string); status == "captured" {
			paymentID, _ := m["id"].(string)
			return true, paymentID, nil
		}
	}
	return false, "", nil
}

// VerifySignature checks the client-submitted triplet from a completed
// widget flow: signature must equal HMAC-SHA256("orderID|paymentID") under
// the key secret. This is the only integrity check on the client callback,
// so an unverified triplet is never trusted.
func (p *RazorpayProvider) VerifySignature(orderID, paymentID, signature string) bool {
	expected := SignHMAC(p.KeySecret, orderID+"|"+paymentID)
	return SecureCompare(expected, signature)
}
