package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderRepo records what the service hands to persistence.
type fakeOrderRepo struct {
	created        []*domain.Order
	idempotencyKey string
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, o *domain.Order, idempotencyKey string) (*domain.Order, error) {
	f.idempotencyKey = idempotencyKey
	cp := *o
	cp.ID = "11111111-2222-3333-4444-555555555555"
	f.created = append(f.created, &cp)
	return &cp, nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	for _, o := range f.created {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, domain.NotFound("order.get", "order", id)
}

func (f *fakeOrderRepo) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	for _, o := range f.created {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, domain.NotFound("order.get_by_number", "order", number)
}

func (f *fakeOrderRepo) SetOrderPaymentStatus(ctx context.Context, orderID, status, sessionID string) error {
	return nil
}

func (f *fakeOrderRepo) MarkOrderPaid(ctx context.Context, orderID, sessionID string) (bool, error) {
	for _, o := range f.created {
		if o.ID == orderID && o.PaymentStatus != domain.PaymentStatusPaid {
			o.PaymentStatus = domain.PaymentStatusPaid
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrderRepo) SetOrderShipment(ctx context.Context, orderID, status, awbNumber string) error {
	return nil
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

func TestCreateOrder_AssignsOrderNumber(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(repo, nil)

	created, err := svc.CreateOrder(context.Background(), &domain.Order{
		ShopID:        "shop-1",
		PaymentMethod: domain.PaymentMethodCOD,
		Totals:        domain.OrderTotal{Total: decimal.NewFromFloat(615.25)},
	}, "")
	require.NoError(t, err)

	assert.Regexp(t, orderNumberPattern, created.OrderNumber)
	assert.NotEmpty(t, created.ID)
}

func TestCreateOrder_KeepsPresetNumber(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(repo, nil)

	created, err := svc.CreateOrder(context.Background(), &domain.Order{
		OrderNumber:   "ORD-20260829-0042",
		PaymentMethod: domain.PaymentMethodCard,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260829-0042", created.OrderNumber)
}

func TestCreateOrder_PassesIdempotencyKey(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(repo, nil)

	_, err := svc.CreateOrder(context.Background(), &domain.Order{
		PaymentMethod: domain.PaymentMethodCOD,
	}, "idem-abc-123")
	require.NoError(t, err)
	assert.Equal(t, "idem-abc-123", repo.idempotencyKey)
}

func TestMarkPaid_SecondCallIsNoop(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(repo, nil)

	created, err := svc.CreateOrder(context.Background(), &domain.Order{
		PaymentMethod: domain.PaymentMethodCard,
		PaymentStatus: domain.PaymentStatusPending,
	}, "")
	require.NoError(t, err)

	transitioned, err := svc.MarkPaid(context.Background(), created.ID, "pay-1")
	require.NoError(t, err)
	assert.True(t, transitioned)

	transitioned, err = svc.MarkPaid(context.Background(), created.ID, "pay-1")
	require.NoError(t, err)
	assert.False(t, transitioned, "an order is paid at most once")
}

func TestGetOrderByNumber(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(repo, nil)

	created, err := svc.CreateOrder(context.Background(), &domain.Order{
		PaymentMethod: domain.PaymentMethodCOD,
	}, "")
	require.NoError(t, err)

	found, err := svc.GetOrderByNumber(context.Background(), created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetOrderByNumber(context.Background(), "ORD-00000000-0000")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}
