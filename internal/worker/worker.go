// Package worker drains the background job queue: shipment booking and
// invoice generation run here, off the order placement path.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/geo"
	"github.com/Shade1269/atlannew-sub000/internal/invoice"
	"github.com/Shade1269/atlannew-sub000/internal/jobs"
	"github.com/Shade1269/atlannew-sub000/internal/repository"
	"github.com/Shade1269/atlannew-sub000/internal/telemetry"
)

const jobTimeout = 60 * time.Second

// JobStore is the queue surface the worker drains.
type JobStore interface {
	ClaimNextJob(ctx context.Context, workerID string) (*repository.Job, error)
	CompleteJob(ctx context.Context, jobID string) error
	FailJob(ctx context.Context, jobID, errMsg string, retryDelay time.Duration) error
}

// OrderStore is the order surface jobs read and update.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	SetOrderShipment(ctx context.Context, orderID, status, awbNumber string) error
}

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to check for new jobs
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs to process concurrently
	MaxConcurrency int

	// OriginCityID is the warehouse city shipments are booked from
	OriginCityID string
}

// Worker processes background jobs
type Worker struct {
	config   Config
	store    JobStore
	orders   OrderStore
	carriers carrier.Provider
	invoices invoice.Creator
	cities   geo.CityDirectory
	logger   *slog.Logger
}

// NewWorker creates a new background job worker
func NewWorker(
	store JobStore,
	orders OrderStore,
	carriers carrier.Provider,
	invoices invoice.Creator,
	cities geo.CityDirectory,
	config Config,
	logger *slog.Logger,
) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 10 * time.Second
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 5
	}

	return &Worker{
		config:   config,
		store:    store,
		orders:   orders,
		carriers: carriers,
		invoices: invoices,
		cities:   cities,
		logger:   logger,
	}
}

// Start begins processing jobs until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			// Drain the semaphore so in-flight jobs finish
			for i := 0; i < w.config.MaxConcurrency; i++ {
				sem <- struct{}{}
			}
			return ctx.Err()

		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				go func() {
					defer func() { <-sem }()
					w.claimAndProcess(ctx)
				}()
			default:
				// At max concurrency, skip this poll
			}
		}
	}
}

// claimAndProcess claims and processes a single job
func (w *Worker) claimAndProcess(ctx context.Context) {
	job, err := w.store.ClaimNextJob(ctx, w.config.WorkerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNoJob) {
			w.logger.Error("failed to claim job", "error", err)
		}
		return
	}

	w.logger.Info("processing job",
		"job_id", job.ID,
		"job_type", job.JobType,
		"attempt", job.Attempts,
	)

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Error("job failed",
			"job_id", job.ID,
			"job_type", job.JobType,
			"error", err,
		)
		if failErr := w.store.FailJob(ctx, job.ID, err.Error(), retryDelay(job.Attempts)); failErr != nil {
			w.logger.Error("failed to record job failure", "job_id", job.ID, "error", failErr)
		}
		if telemetry.Business != nil {
			telemetry.Business.JobsFailed.WithLabelValues(job.JobType).Inc()
		}
		return
	}

	w.logger.Info("job completed", "job_id", job.ID, "job_type", job.JobType)

	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		w.logger.Error("failed to mark job complete", "job_id", job.ID, "error", err)
	}
	if telemetry.Business != nil {
		telemetry.Business.JobsProcessed.WithLabelValues(job.JobType).Inc()
	}
}

// retryDelay backs off exponentially: 1m, 2m, 4m, 8m, ...
func retryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return time.Minute << (attempts - 1)
}

// processJob dispatches a single job by type
func (w *Worker) processJob(ctx context.Context, job *repository.Job) error {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	switch job.JobType {
	case jobs.JobTypeCreateShipment:
		return w.processShipmentJob(jobCtx, job)
	case jobs.JobTypeCreateInvoice:
		return w.processInvoiceJob(jobCtx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.JobType)
	}
}

// processShipmentJob books the order's shipment and records the AWB.
func (w *Worker) processShipmentJob(ctx context.Context, job *repository.Job) error {
	var payload jobs.CreateShipmentPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal shipment payload: %w", err)
	}

	order, err := w.orders.GetOrderByID(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	if order.AWBNumber != "" {
		// Booked on a previous attempt; nothing to do.
		return nil
	}

	cityID, ok := w.cities.LookupCityID(order.Customer.City)
	if !ok {
		return fmt.Errorf("unknown destination city: %s", order.Customer.City)
	}

	weight := float64(0)
	for _, item := range order.Items {
		weight += float64(item.Quantity)
	}

	shipment, err := w.carriers.CreateShipment(ctx, carrier.ShipmentParams{
		CarrierID:    order.CarrierID,
		OrderNumber:  order.OrderNumber,
		PaymentType:  domain.PaymentTypeForMethod(order.PaymentMethod),
		CODAmount:    order.Totals.Total,
		Weight:       weight,
		OriginCityID: w.config.OriginCityID,
		Destination: carrier.Destination{
			Name:                order.Customer.Name,
			Phone:               order.Customer.Phone,
			CityID:              cityID,
			Street:              order.Customer.Street,
			NationalAddressCode: order.Customer.NationalAddressCode,
		},
	})
	if err != nil {
		return fmt.Errorf("create shipment: %w", err)
	}

	if err := w.orders.SetOrderShipment(ctx, order.ID, domain.ShipmentStatusCreated, shipment.AWBNumber); err != nil {
		return fmt.Errorf("record shipment: %w", err)
	}

	return nil
}

// processInvoiceJob generates the order's invoice. The response matters
// only for the retry schedule; order state never changes here.
func (w *Worker) processInvoiceJob(ctx context.Context, job *repository.Job) error {
	var payload jobs.CreateInvoicePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal invoice payload: %w", err)
	}

	order, err := w.orders.GetOrderByID(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	lines := make([]invoice.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, invoice.Line{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	_, err = w.invoices.CreateInvoice(ctx, invoice.InvoiceParams{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.Customer.Name,
		CustomerEmail: order.Customer.Email,
		Lines:         lines,
		Shipping:      order.Totals.Shipping,
		Tax:           order.Totals.Tax,
		Total:         order.Totals.Total,
	})
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	return nil
}
