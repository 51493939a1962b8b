package payment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubProvider is an in-memory provider for development and tests. Orders it
// creates can be marked paid with SettleOrder to exercise the verify and
// webhook paths without a real processor.
type StubProvider struct {
	mu     sync.Mutex
	orders map[string]string // providerOrderID -> "" (unpaid) or paymentID
	seq    int
}

func NewStubProvider() *StubProvider {
	return &StubProvider{orders: make(map[string]string)}
}

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("stub_order_%d_%d", time.Now().UnixNano(), s.seq)
	s.orders[id] = ""
	return &Order{
		ProviderOrderID: id,
		RedirectURL:     "https://checkout.stub.local/" + id,
	}, nil
}

func (s *StubProvider) OrderPaid(ctx context.Context, orderID string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paymentID, ok := s.orders[orderID]
	if !ok {
		return false, "", fmt.Errorf("stub: unknown order %s", orderID)
	}
	return paymentID != "", paymentID, nil
}

// SettleOrder marks a stub order as paid and returns the payment id.
func (s *StubProvider) SettleOrder(orderID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paymentID := "stub_pay_" + orderID
	s.orders[orderID] = paymentID
	return paymentID
}
