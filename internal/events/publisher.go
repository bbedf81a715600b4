// Package events publishes order lifecycle events for downstream
// consumers. Publication is best-effort: a broker outage is logged and
// never blocks checkout.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for order lifecycle events.
const (
	SubjectOrderCreated = "orders.created"
	SubjectOrderPaid    = "orders.paid"
)

// OrderEvent is the published payload.
type OrderEvent struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	ShopID        string    `json:"shop_id"`
	PaymentMethod string    `json:"payment_method"`
	TotalSAR      string    `json:"total_sar"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher emits order events.
type Publisher interface {
	Publish(subject string, event OrderEvent)
	Close()
}

// NatsPublisher publishes events over a NATS connection.
type NatsPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNatsPublisher connects to the broker at url.
func NewNatsPublisher(url string, logger *slog.Logger) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: conn, logger: logger}, nil
}

// Publish emits an event; failures are logged and dropped.
func (p *NatsPublisher) Publish(subject string, event OrderEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode order event", "subject", subject, "error", err)
		return
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn("failed to publish order event",
			"subject", subject, "order_id", event.OrderID, "error", err)
	}
}

// Close drains the connection.
func (p *NatsPublisher) Close() {
	_ = p.conn.Drain()
}

// NoopPublisher drops all events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, OrderEvent) {}
func (NoopPublisher) Close()                     {}
