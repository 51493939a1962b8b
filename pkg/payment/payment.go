package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// OrderRequest carries everything a provider needs to open an order for one
// checkout attempt. Reference is our own order reference and travels to the
// provider (receipt / client_reference_id) so callbacks can be tied back.
type OrderRequest struct {
	Reference     string
	AmountCents   int64
	Currency      string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Order is the normalized result of order creation. Exactly one of
// RedirectURL (hosted checkout page) or ClientParams (client-side widget
// parameters) is populated, depending on the provider's handoff style.
type Order struct {
	ProviderOrderID string
	RedirectURL     string
	ClientParams    map[string]interface{}
}

// Provider is the uniform contract over the two payment processors.
type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// OrderPaid polls the provider for the order's status. paid is true only
	// when the provider reports the order settled; paymentID is the
	// provider's payment identifier when available.
	OrderPaid(ctx context.Context, providerOrderID string) (paid bool, paymentID string, err error)
}

// SignHMAC returns the hex HMAC-SHA256 of message under secret.
func SignHMAC(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// SecureCompare reports whether two signatures match, in constant time.
func SecureCompare(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
