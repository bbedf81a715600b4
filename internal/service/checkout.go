package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/events"
	"github.com/Shade1269/atlannew-sub000/internal/jobs"
	"github.com/Shade1269/atlannew-sub000/internal/payment"
	"github.com/Shade1269/atlannew-sub000/internal/tax"
	"github.com/Shade1269/atlannew-sub000/internal/telemetry"
)

// PaymentProviders maps payment methods to their gateway adapters.
type PaymentProviders struct {
	Card   payment.Provider
	Tamara payment.Provider
}

// For returns the provider for an online payment method.
func (p PaymentProviders) For(method string) payment.Provider {
	if method == domain.PaymentMethodTamara {
		return p.Tamara
	}
	return p.Card
}

// CheckoutService implements domain.CheckoutService. It owns the
// per-session checkout state machine and drives quoting, totals, order
// placement and payment callbacks.
type CheckoutService struct {
	carts    domain.CartService
	quotes   *QuoteService
	orders   domain.OrderService
	resolver domain.StoreResolver
	payments PaymentProviders
	taxCalc  tax.Calculator
	queue    jobs.Queue
	events   events.Publisher
	logger   *slog.Logger

	mu            sync.Mutex
	sessions      map[string]*checkoutState
	orderSessions map[string]string // order id -> checkout session id
}

type checkoutState struct {
	session *domain.CheckoutSession

	// placing guards against double submission from the same session.
	placing bool
}

// Compile-time check that CheckoutService implements domain.CheckoutService.
var _ domain.CheckoutService = (*CheckoutService)(nil)

// CheckoutConfig wires a CheckoutService.
type CheckoutConfig struct {
	Carts    domain.CartService
	Quotes   *QuoteService
	Orders   domain.OrderService
	Resolver domain.StoreResolver
	Payments PaymentProviders
	Tax      tax.Calculator
	Queue    jobs.Queue
	Events   events.Publisher
	Logger   *slog.Logger
}

// NewCheckoutService creates the checkout orchestrator.
func NewCheckoutService(cfg CheckoutConfig) *CheckoutService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ev := cfg.Events
	if ev == nil {
		ev = events.NoopPublisher{}
	}

	return &CheckoutService{
		carts:         cfg.Carts,
		quotes:        cfg.Quotes,
		orders:        cfg.Orders,
		resolver:      cfg.Resolver,
		payments:      cfg.Payments,
		taxCalc:       cfg.Tax,
		queue:         cfg.Queue,
		events:        ev,
		logger:        logger,
		sessions:      make(map[string]*checkoutState),
		orderSessions: make(map[string]string),
	}
}

// GetSession returns the session's checkout, creating it on first use.
func (s *CheckoutService) GetSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionLocked(sessionID), nil
}

func (s *CheckoutService) sessionLocked(sessionID string) *domain.CheckoutSession {
	state, ok := s.sessions[sessionID]
	if !ok {
		state = &checkoutState{
			session: &domain.CheckoutSession{
				SessionID: sessionID,
				Step:      domain.StepShipping,
			},
		}
		s.sessions[sessionID] = state
		if telemetry.Business != nil {
			telemetry.Business.CheckoutStarted.WithLabelValues("").Inc()
		}
	}
	return state.session
}

// UpdateCustomer merges the shipping form into the session. Once the
// customer data is complete a debounced quote refresh is scheduled.
func (s *CheckoutService) UpdateCustomer(ctx context.Context, sessionID string, info domain.CustomerInfo) (*domain.CheckoutSession, error) {
	s.mu.Lock()
	sess := s.sessionLocked(sessionID)
	sess.Customer = mergeCustomer(sess.Customer, info)
	if sess.Customer.Complete() && sess.Step == domain.StepShipping {
		sess.Step = domain.StepPayment
		if telemetry.Business != nil {
			telemetry.Business.CheckoutStep.WithLabelValues(domain.StepPayment).Inc()
		}
	}
	snapshot := *sess
	s.mu.Unlock()

	s.scheduleQuotes(ctx, &snapshot)
	return &snapshot, nil
}

// mergeCustomer overlays non-empty incoming fields onto the current data,
// so partial form updates never erase fields the customer already filled.
func mergeCustomer(current, incoming domain.CustomerInfo) domain.CustomerInfo {
	if incoming.Name != "" {
		current.Name = incoming.Name
	}
	if incoming.Phone != "" {
		current.Phone = incoming.Phone
	}
	if incoming.Email != "" {
		current.Email = incoming.Email
	}
	if incoming.City != "" {
		current.City = incoming.City
	}
	if incoming.Street != "" {
		current.Street = incoming.Street
	}
	if incoming.NationalAddressCode != "" {
		current.NationalAddressCode = incoming.NationalAddressCode
	}
	return current
}

// SetPaymentMethod records the chosen method. COD and prepaid price
// carriers differently, so a quote refresh is scheduled.
func (s *CheckoutService) SetPaymentMethod(ctx context.Context, sessionID, method string) (*domain.CheckoutSession, error) {
	if method != domain.PaymentMethodCOD && !domain.IsOnlinePayment(method) {
		return nil, domain.Invalid("checkout.set_payment_method", "Unsupported payment method")
	}

	s.mu.Lock()
	sess := s.sessionLocked(sessionID)
	sess.PaymentMethod = method
	// The selected carrier's price may no longer apply.
	sess.SelectedCarrier = nil
	snapshot := *sess
	s.mu.Unlock()

	s.scheduleQuotes(ctx, &snapshot)
	return &snapshot, nil
}

// scheduleQuotes arms the debounced fetch when the session has enough
// data to quote. Incomplete customer data never triggers a fetch.
func (s *CheckoutService) scheduleQuotes(ctx context.Context, sess *domain.CheckoutSession) {
	if !sess.Customer.Complete() || sess.PaymentMethod == "" {
		return
	}

	state, ok := s.quoteState(ctx, sess)
	if !ok {
		return
	}
	s.quotes.ScheduleFetch(sess.SessionID, state)
}

// quoteState derives the request key from cart and store state.
func (s *CheckoutService) quoteState(ctx context.Context, sess *domain.CheckoutSession) (QuoteState, bool) {
	summary, err := s.carts.GetCartSummary(ctx, sess.SessionID)
	if err != nil || summary.ItemCount == 0 {
		return QuoteState{}, false
	}

	vendorID := ""
	sc := domain.StoreContext{}
	if len(summary.Items) > 0 {
		sc.FirstCartProductID = summary.Items[0].ProductID
		sc.ShopID = summary.Items[0].ShopID
	}
	if res, err := s.resolver.Resolve(ctx, sc); err == nil {
		vendorID = res.VendorID
	}

	return QuoteState{
		Key: domain.NewQuoteRequestKey(
			sess.Customer.City,
			summary.ItemCount,
			sess.PaymentMethod,
			summary.Subtotal,
			vendorID,
		),
		City:      sess.Customer.City,
		ItemCount: summary.ItemCount,
	}, true
}

// Quotes returns the session's current carrier quotes, fetching
// synchronously when none have been fetched yet.
func (s *CheckoutService) Quotes(ctx context.Context, sessionID string) ([]carrier.Quote, error) {
	s.mu.Lock()
	sess := s.sessionLocked(sessionID)
	snapshot := *sess
	s.mu.Unlock()

	if quotes := s.quotes.LastQuotes(sessionID); quotes != nil {
		s.storeQuotes(sessionID, quotes)
		return quotes, nil
	}

	if !snapshot.Customer.Complete() || snapshot.PaymentMethod == "" {
		return []carrier.Quote{}, nil
	}

	state, ok := s.quoteState(ctx, &snapshot)
	if !ok {
		return []carrier.Quote{}, nil
	}

	quotes, err := s.quotes.FetchQuotes(ctx, sessionID, state)
	if err != nil {
		if carrier.IsUnavailable(err) {
			// Degraded, not fatal: checkout continues without quotes.
			return []carrier.Quote{}, nil
		}
		return nil, err
	}

	s.storeQuotes(sessionID, quotes)
	return quotes, nil
}

func (s *CheckoutService) storeQuotes(sessionID string, quotes []carrier.Quote) {
	s.mu.Lock()
	if state, ok := s.sessions[sessionID]; ok {
		state.session.LastQuotes = quotes
	}
	s.mu.Unlock()
}

// SelectCarrier picks one of the fetched quotes.
func (s *CheckoutService) SelectCarrier(ctx context.Context, sessionID, carrierID string) (*domain.CheckoutSession, error) {
	quotes, err := s.Quotes(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionLocked(sessionID)
	for i := range quotes {
		if quotes[i].CarrierID == carrierID {
			q := quotes[i]
			sess.SelectedCarrier = &q
			if sess.Step == domain.StepPayment {
				sess.Step = domain.StepReview
				if telemetry.Business != nil {
					telemetry.Business.CheckoutStep.WithLabelValues(domain.StepReview).Inc()
				}
			}
			snapshot := *sess
			return &snapshot, nil
		}
	}

	return nil, domain.Invalid("checkout.select_carrier", "Selected carrier is not available")
}

// Totals computes the session's money breakdown from the cart, the
// selected carrier, and the VAT calculator.
func (s *CheckoutService) Totals(ctx context.Context, sessionID string) (*domain.OrderTotal, error) {
	summary, err := s.carts.GetCartSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess := s.sessionLocked(sessionID)
	selected := sess.SelectedCarrier
	s.mu.Unlock()

	return s.computeTotals(ctx, summary, selected)
}

func (s *CheckoutService) computeTotals(ctx context.Context, summary *domain.CartSummary, selected *carrier.Quote) (*domain.OrderTotal, error) {
	totals := &domain.OrderTotal{Subtotal: summary.Subtotal}
	if selected != nil {
		totals.Shipping = selected.Price
	}

	result, err := s.taxCalc.CalculateTax(ctx, tax.TaxParams{
		Subtotal: totals.Subtotal,
		Shipping: totals.Shipping,
	})
	if err != nil {
		return nil, domain.Internal(err, "checkout.totals", "failed to calculate tax")
	}

	totals.Tax = result.Tax
	totals.Total = totals.Subtotal.Add(totals.Shipping).Add(totals.Tax)
	return totals, nil
}
