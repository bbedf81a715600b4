package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/telemetry"
)

// OrderRepository is the persistence surface the order service needs.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *domain.Order, idempotencyKey string) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error)
	SetOrderPaymentStatus(ctx context.Context, orderID, status, sessionID string) error
	MarkOrderPaid(ctx context.Context, orderID, sessionID string) (bool, error)
	SetOrderShipment(ctx context.Context, orderID, status, awbNumber string) error
}

// OrderService implements domain.OrderService over PostgreSQL.
type OrderService struct {
	repo   OrderRepository
	logger *slog.Logger
}

// Compile-time check that OrderService implements domain.OrderService.
var _ domain.OrderService = (*OrderService)(nil)

// NewOrderService creates an order service.
func NewOrderService(repo OrderRepository, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{repo: repo, logger: logger}
}

// CreateOrder assigns an order number and persists the order. A non-empty
// idempotency key makes retried submissions return the original order.
func (s *OrderService) CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error) {
	if order.OrderNumber == "" {
		number, err := generateOrderNumber()
		if err != nil {
			return nil, domain.Internal(err, "order.create", "failed to generate order number")
		}
		order.OrderNumber = number
	}

	created, err := s.repo.CreateOrder(ctx, order, idempotencyKey)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", created.ID,
		"order_number", created.OrderNumber,
		"payment_method", created.PaymentMethod,
		"total_sar", created.Totals.Total.StringFixed(2),
	)

	if telemetry.Business != nil {
		telemetry.Business.OrdersCreated.WithLabelValues(created.PaymentMethod).Inc()
		telemetry.Business.OrderValue.WithLabelValues(created.PaymentMethod).
			Observe(created.Totals.Total.InexactFloat64())
	}

	return created, nil
}

// GetOrder retrieves an order by id.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// GetOrderByNumber retrieves an order by its public order number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.repo.GetOrderByNumber(ctx, number)
}

// SetPaymentStatus updates an order's payment status.
func (s *OrderService) SetPaymentStatus(ctx context.Context, orderID, status, sessionID string) error {
	return s.repo.SetOrderPaymentStatus(ctx, orderID, status, sessionID)
}

// MarkPaid performs the pending-to-paid transition. Gateways retry
// success callbacks, so the update is conditional in the store and only
// the winning caller sees true.
func (s *OrderService) MarkPaid(ctx context.Context, orderID, sessionID string) (bool, error) {
	return s.repo.MarkOrderPaid(ctx, orderID, sessionID)
}

// SetShipment records the shipment outcome on an order.
func (s *OrderService) SetShipment(ctx context.Context, orderID, status, awbNumber string) error {
	return s.repo.SetOrderShipment(ctx, orderID, status, awbNumber)
}

// generateOrderNumber produces a public order number like
// ORD-20260829-4821. The random suffix only needs to avoid collisions
// within a day; the database enforces uniqueness.
func generateOrderNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), n.Int64()), nil
}
