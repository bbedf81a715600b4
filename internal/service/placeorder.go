package service

import (
	"context"
	"errors"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/events"
	"github.com/Shade1269/atlannew-sub000/internal/jobs"
	"github.com/Shade1269/atlannew-sub000/internal/payment"
	"github.com/Shade1269/atlannew-sub000/internal/telemetry"
)

// PlaceOrder validates the submission and creates the order.
//
// COD orders complete immediately: the shipment and invoice jobs are
// enqueued and the cart is cleared once. Online orders create a hosted
// payment session and leave the cart intact until the success callback;
// a retry after cancel or failure re-pays the same order instead of
// creating a duplicate.
func (s *CheckoutService) PlaceOrder(ctx context.Context, params domain.PlaceOrderParams) (*domain.PlaceOrderResult, error) {
	const op = "checkout.place_order"

	s.mu.Lock()
	state, ok := s.sessions[params.SessionID]
	if !ok {
		s.sessionLocked(params.SessionID)
		state = s.sessions[params.SessionID]
	}
	if state.placing {
		s.mu.Unlock()
		return nil, domain.ErrCheckoutInFlight
	}
	state.placing = true
	// Accept customer data from the request body; the session keeps
	// whatever was entered interactively.
	state.session.Customer = mergeCustomer(state.session.Customer, params.Customer)
	if params.PaymentMethod != "" {
		state.session.PaymentMethod = params.PaymentMethod
	}
	sess := *state.session
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		state.placing = false
		s.mu.Unlock()
	}()

	if err := validateSubmission(op, sess.Customer, sess.PaymentMethod, params.Shipping); err != nil {
		return nil, err
	}

	// Payment retry: the session already owns an order awaiting payment.
	if sess.OrderID != "" && domain.IsOnlinePayment(sess.PaymentMethod) {
		existing, err := s.orders.GetOrder(ctx, sess.OrderID)
		if err == nil && existing.PaymentStatus != domain.PaymentStatusPaid {
			return s.startPayment(ctx, existing)
		}
	}

	summary, err := s.carts.GetCartSummary(ctx, params.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return nil, domain.ErrCartEmpty
		}
		return nil, err
	}
	if summary.ItemCount == 0 {
		return nil, domain.ErrCartEmpty
	}

	sc := params.Store
	if sc.FirstCartProductID == "" && len(summary.Items) > 0 {
		sc.FirstCartProductID = summary.Items[0].ProductID
	}
	resolution, err := s.resolver.Resolve(ctx, sc)
	if err != nil {
		// No store, no order. This is the one fatal resolution outcome.
		return nil, err
	}

	selected := &carrier.Quote{
		CarrierID:   params.Shipping.ProviderID,
		CarrierName: params.Shipping.ProviderName,
		CarrierCode: params.Shipping.ProviderCode,
		Price:       params.Shipping.CostSAR,
	}
	totals, err := s.computeTotals(ctx, summary, selected)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ShopID:           resolution.ShopID,
		VendorID:         resolution.VendorID,
		AffiliateStoreID: resolution.AffiliateStoreID,
		Customer:         sess.Customer,
		PaymentMethod:    sess.PaymentMethod,
		PaymentStatus:    domain.PaymentStatusPending,
		CarrierID:        params.Shipping.ProviderID,
		CarrierName:      params.Shipping.ProviderName,
		CarrierCode:      params.Shipping.ProviderCode,
		ShipmentStatus:   domain.ShipmentStatusPending,
		Totals:           *totals,
		Items:            orderItems(summary),
	}
	if order.PaymentMethod == domain.PaymentMethodCOD {
		order.PaymentStatus = domain.PaymentStatusCOD
	}

	created, err := s.orders.CreateOrder(ctx, order, params.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	state.session.OrderID = created.ID
	state.session.OrderNumber = created.OrderNumber
	s.orderSessions[created.ID] = params.SessionID
	s.mu.Unlock()

	s.events.Publish(events.SubjectOrderCreated, orderEvent(created))

	if created.PaymentMethod == domain.PaymentMethodCOD {
		return s.completeCOD(ctx, params.SessionID, created)
	}
	return s.startPayment(ctx, created)
}

// completeCOD finishes a cash-on-delivery order: best-effort side effects,
// cart cleared exactly once.
func (s *CheckoutService) completeCOD(ctx context.Context, sessionID string, order *domain.Order) (*domain.PlaceOrderResult, error) {
	s.enqueueFulfillment(ctx, order)

	if err := s.carts.ClearCart(ctx, sessionID); err != nil {
		s.logger.Warn("failed to clear cart after order", "order_id", order.ID, "error", err)
	}
	s.quotes.Reset(sessionID)
	s.setStep(sessionID, domain.StepSubmitted)

	return &domain.PlaceOrderResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		RedirectURL: "/order-confirmation/" + order.OrderNumber,
		Totals:      order.Totals,
	}, nil
}

// startPayment opens a hosted payment session for an online order.
func (s *CheckoutService) startPayment(ctx context.Context, order *domain.Order) (*domain.PlaceOrderResult, error) {
	provider := s.payments.For(order.PaymentMethod)
	if provider == nil {
		return nil, domain.Invalid("checkout.start_payment", "Payment method is not configured")
	}

	session, err := provider.CreateSession(ctx, payment.SessionParams{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Amount:        order.Totals.Total,
		CustomerName:  order.Customer.Name,
		CustomerPhone: order.Customer.Phone,
		CustomerEmail: order.Customer.Email,
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "checkout.start_payment", "Failed to start payment")
	}

	if err := s.orders.SetPaymentStatus(ctx, order.ID, domain.PaymentStatusPending, session.SessionID); err != nil {
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.PaymentSessions.WithLabelValues(session.Gateway).Inc()
	}

	return &domain.PlaceOrderResult{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		RedirectURL:    session.RedirectURL,
		PaymentPending: true,
		Totals:         order.Totals,
	}, nil
}

// HandlePaymentCallback ingests a terminal gateway status for an order.
// Success finishes the order (jobs, cart clear, events); cancel and
// error return the session to review with the cart intact.
func (s *CheckoutService) HandlePaymentCallback(ctx context.Context, params domain.PaymentCallbackParams) error {
	const op = "checkout.payment_callback"

	if !payment.IsTerminal(params.Status) {
		return domain.Invalid(op, "Callback status is not terminal")
	}

	order, err := s.orders.GetOrder(ctx, params.OrderID)
	if err != nil {
		return err
	}

	if telemetry.Business != nil {
		telemetry.Business.PaymentOutcomes.WithLabelValues(params.Status).Inc()
	}

	s.mu.Lock()
	sessionID := s.orderSessions[order.ID]
	s.mu.Unlock()

	switch params.Status {
	case payment.StatusSuccess:
		// The paid transition is a compare-and-swap in the store: gateways
		// retry success callbacks, and two concurrent retries must not both
		// enqueue fulfillment.
		transitioned, err := s.orders.MarkPaid(ctx, order.ID, params.SessionID)
		if err != nil {
			return err
		}
		if !transitioned {
			// Duplicate callback; side effects already ran.
			return nil
		}
		s.enqueueFulfillment(ctx, order)
		if sessionID != "" {
			if err := s.carts.ClearCart(ctx, sessionID); err != nil {
				s.logger.Warn("failed to clear cart after payment", "order_id", order.ID, "error", err)
			}
			s.quotes.Reset(sessionID)
			s.setStep(sessionID, domain.StepSubmitted)
		}
		s.events.Publish(events.SubjectOrderPaid, orderEvent(order))
		return nil

	case payment.StatusCancel:
		if err := s.orders.SetPaymentStatus(ctx, order.ID, domain.PaymentStatusCancelled, params.SessionID); err != nil {
			return err
		}
	case payment.StatusError:
		if err := s.orders.SetPaymentStatus(ctx, order.ID, domain.PaymentStatusFailed, params.SessionID); err != nil {
			return err
		}
	}

	// Back to review: the cart survives and the same order can be
	// re-paid from the session.
	if sessionID != "" {
		s.setStep(sessionID, domain.StepReview)
	}
	return nil
}

// enqueueFulfillment enqueues the shipment and invoice jobs. Failures are
// logged: the order stands and operators re-enqueue from the dead queue.
func (s *CheckoutService) enqueueFulfillment(ctx context.Context, order *domain.Order) {
	if err := jobs.EnqueueCreateShipment(ctx, s.queue, order.ID); err != nil {
		s.logger.Error("failed to enqueue shipment job", "order_id", order.ID, "error", err)
	} else if telemetry.Business != nil {
		telemetry.Business.JobsEnqueued.WithLabelValues(jobs.JobTypeCreateShipment).Inc()
	}

	if err := jobs.EnqueueCreateInvoice(ctx, s.queue, order.ID); err != nil {
		s.logger.Error("failed to enqueue invoice job", "order_id", order.ID, "error", err)
	} else if telemetry.Business != nil {
		telemetry.Business.JobsEnqueued.WithLabelValues(jobs.JobTypeCreateInvoice).Inc()
	}
}

func (s *CheckoutService) setStep(sessionID, step string) {
	s.mu.Lock()
	if state, ok := s.sessions[sessionID]; ok {
		state.session.Step = step
	}
	s.mu.Unlock()

	if telemetry.Business != nil {
		telemetry.Business.CheckoutStep.WithLabelValues(step).Inc()
	}
}

// validateSubmission collects field-level errors before any side effect.
func validateSubmission(op string, customer domain.CustomerInfo, method string, shipping domain.SelectedShipping) error {
	var err error
	for _, field := range customer.MissingFields() {
		err = domain.AddFieldError(err, field, "This field is required")
	}
	if method == "" {
		err = domain.AddFieldError(err, "payment_method", "A payment method is required")
	} else if method != domain.PaymentMethodCOD && !domain.IsOnlinePayment(method) {
		err = domain.AddFieldError(err, "payment_method", "Unsupported payment method")
	}
	if shipping.ProviderID == "" || !shipping.CostSAR.IsPositive() {
		err = domain.AddFieldError(err, "shipping", "A shipping carrier must be selected")
	}
	return err
}

func orderItems(summary *domain.CartSummary) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(summary.Items))
	for _, ci := range summary.Items {
		items = append(items, domain.OrderItem{
			ProductID: ci.ProductID,
			Name:      ci.Name,
			UnitPrice: ci.UnitPrice,
			Quantity:  ci.Quantity,
		})
	}
	return items
}

func orderEvent(order *domain.Order) events.OrderEvent {
	return events.OrderEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		ShopID:        order.ShopID,
		PaymentMethod: order.PaymentMethod,
		TotalSAR:      order.Totals.Total.StringFixed(2),
	}
}
