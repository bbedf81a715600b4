package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/telemetry"
	"github.com/shopspring/decimal"
)

// CartService implements domain.CartService with session-scoped in-memory
// carts. Carts are ephemeral working state; the order row written at
// placement is the durable record.
type CartService struct {
	mu    sync.RWMutex
	carts map[string]*cartState
}

type cartState struct {
	items     []domain.CartItem
	updatedAt time.Time
}

// Compile-time check that CartService implements domain.CartService.
var _ domain.CartService = (*CartService)(nil)

// NewCartService creates an empty in-memory cart store.
func NewCartService() *CartService {
	return &CartService{carts: make(map[string]*cartState)}
}

// GetOrCreateCart retrieves the session's cart, minting a session id when
// none is provided.
func (s *CartService) GetOrCreateCart(ctx context.Context, sessionID string) (*domain.CartSummary, string, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	s.mu.Lock()
	if _, ok := s.carts[sessionID]; !ok {
		s.carts[sessionID] = &cartState{updatedAt: time.Now()}
	}
	s.mu.Unlock()

	summary, err := s.GetCartSummary(ctx, sessionID)
	return summary, sessionID, err
}

// AddItem adds a product line or increments its quantity.
func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.CartSummary, error) {
	if item.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	cart, ok := s.carts[sessionID]
	if !ok {
		cart = &cartState{}
		s.carts[sessionID] = cart
	}

	merged := false
	for i := range cart.items {
		if cart.items[i].ProductID == item.ProductID {
			cart.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.items = append(cart.items, item)
	}
	cart.updatedAt = time.Now()
	s.mu.Unlock()

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues("add").Inc()
	}

	return s.GetCartSummary(ctx, sessionID)
}

// UpdateItemQuantity sets a line's quantity; zero removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, sessionID string, productID string, quantity int) (*domain.CartSummary, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, sessionID, productID)
	}

	s.mu.Lock()
	cart, ok := s.carts[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrCartNotFound
	}

	found := false
	for i := range cart.items {
		if cart.items[i].ProductID == productID {
			cart.items[i].Quantity = quantity
			found = true
			break
		}
	}
	cart.updatedAt = time.Now()
	s.mu.Unlock()

	if !found {
		return nil, domain.ErrCartItemNotFound
	}

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues("update").Inc()
	}

	return s.GetCartSummary(ctx, sessionID)
}

// RemoveItem deletes a product line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID string) (*domain.CartSummary, error) {
	s.mu.Lock()
	cart, ok := s.carts[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrCartNotFound
	}

	found := false
	for i := range cart.items {
		if cart.items[i].ProductID == productID {
			cart.items = append(cart.items[:i], cart.items[i+1:]...)
			found = true
			break
		}
	}
	cart.updatedAt = time.Now()
	s.mu.Unlock()

	if !found {
		return nil, domain.ErrCartItemNotFound
	}

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues("remove").Inc()
	}

	return s.GetCartSummary(ctx, sessionID)
}

// GetCartSummary returns the cart with computed totals.
func (s *CartService) GetCartSummary(ctx context.Context, sessionID string) (*domain.CartSummary, error) {
	s.mu.RLock()
	cart, ok := s.carts[sessionID]
	if !ok {
		s.mu.RUnlock()
		return nil, domain.ErrCartNotFound
	}

	items := make([]domain.CartItem, len(cart.items))
	copy(items, cart.items)
	updatedAt := cart.updatedAt
	s.mu.RUnlock()

	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineSubtotal())
		count += item.Quantity
	}

	return &domain.CartSummary{
		SessionID: sessionID,
		Items:     items,
		Subtotal:  subtotal,
		ItemCount: count,
		UpdatedAt: updatedAt,
	}, nil
}

// ClearCart empties the session's cart. Clearing an unknown session is a
// no-op: order completion may race session expiry.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	if cart, ok := s.carts[sessionID]; ok {
		cart.items = nil
		cart.updatedAt = time.Now()
	}
	s.mu.Unlock()

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues("clear").Inc()
	}
	return nil
}
