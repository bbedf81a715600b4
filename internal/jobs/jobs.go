package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shade1269/atlannew-sub000/internal/repository"
)

// Job type constants.
const (
	JobTypeCreateShipment = "shipment:create"
	JobTypeCreateInvoice  = "invoice:create"
)

// Queue is the enqueue surface services depend on.
type Queue interface {
	EnqueueJob(ctx context.Context, params repository.EnqueueJobParams) (string, error)
}

// CreateShipmentPayload books the order's shipment with the selected
// carrier and records the AWB number.
type CreateShipmentPayload struct {
	OrderID string `json:"order_id"`
}

// CreateInvoicePayload generates the order's invoice. Best-effort: the
// order stands whether or not invoicing ever succeeds.
type CreateInvoicePayload struct {
	OrderID string `json:"order_id"`
}

// EnqueueCreateShipment enqueues a shipment booking job for an order.
func EnqueueCreateShipment(ctx context.Context, q Queue, orderID string) error {
	payload, err := json.Marshal(CreateShipmentPayload{OrderID: orderID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = q.EnqueueJob(ctx, repository.EnqueueJobParams{
		JobType:     JobTypeCreateShipment,
		Payload:     payload,
		MaxAttempts: 5,
	})
	return err
}

// EnqueueCreateInvoice enqueues an invoice generation job for an order.
func EnqueueCreateInvoice(ctx context.Context, q Queue, orderID string) error {
	payload, err := json.Marshal(CreateInvoicePayload{OrderID: orderID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = q.EnqueueJob(ctx, repository.EnqueueJobParams{
		JobType:     JobTypeCreateInvoice,
		Payload:     payload,
		MaxAttempts: 3,
	})
	return err
}
