package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/geo"
	"github.com/Shade1269/atlannew-sub000/internal/telemetry"
)

// QuoteService fetches carrier quotes for checkout sessions with three
// layers of duplicate suppression:
//
//  1. a trailing per-session debounce absorbs bursts of input changes,
//  2. a singleflight group collapses concurrent fetches for the same
//     request key into one upstream call,
//  3. a completed-key cache suppresses refetches while the checkout
//     state that produced the key is unchanged.
type QuoteService struct {
	provider     carrier.Provider
	cities       geo.CityDirectory
	cache        QuoteCache
	debounce     time.Duration
	cacheTTL     time.Duration
	originCityID string
	logger       *slog.Logger

	group singleflight.Group

	mu       sync.Mutex
	timers   map[string]*time.Timer
	timerGen map[string]uint64
	inFlight map[string]bool
	lastKey  map[string]domain.QuoteRequestKey
	results  map[string][]carrier.Quote
}

// QuoteServiceConfig configures a QuoteService.
type QuoteServiceConfig struct {
	Provider     carrier.Provider
	Cities       geo.CityDirectory
	Cache        QuoteCache
	Debounce     time.Duration
	CacheTTL     time.Duration
	OriginCityID string
	Logger       *slog.Logger
}

// NewQuoteService creates a quote service.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Debounce <= 0 {
		cfg.Debounce = time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryQuoteCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &QuoteService{
		provider:     cfg.Provider,
		cities:       cfg.Cities,
		cache:        cfg.Cache,
		debounce:     cfg.Debounce,
		cacheTTL:     cfg.CacheTTL,
		originCityID: cfg.OriginCityID,
		logger:       cfg.Logger,
		timers:       make(map[string]*time.Timer),
		timerGen:     make(map[string]uint64),
		inFlight:     make(map[string]bool),
		lastKey:      make(map[string]domain.QuoteRequestKey),
		results:      make(map[string][]carrier.Quote),
	}
}

// QuoteState is the checkout state a quote request is derived from.
type QuoteState struct {
	Key       domain.QuoteRequestKey
	City      string
	ItemCount int
}

// ScheduleFetch (re)starts the session's trailing debounce timer. Only
// the state captured by the final call before the timer fires is fetched.
func (s *QuoteService) ScheduleFetch(sessionID string, state QuoteState) {
	s.mu.Lock()
	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
		if telemetry.Business != nil {
			telemetry.Business.QuoteSuppressed.WithLabelValues("debounced").Inc()
		}
	}
	// Stop does not cancel a timer that has already fired. The generation
	// counter keeps such a stale callback from fetching superseded state
	// or touching the newly armed timer's entry.
	s.timerGen[sessionID]++
	gen := s.timerGen[sessionID]
	s.timers[sessionID] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		if s.timerGen[sessionID] != gen {
			s.mu.Unlock()
			return
		}
		delete(s.timers, sessionID)
		s.mu.Unlock()

		// Detached from the request that scheduled it.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.FetchQuotes(ctx, sessionID, state); err != nil {
			s.logger.Warn("debounced quote fetch failed",
				"session_id", sessionID, "error", err)
		}
	})
	s.mu.Unlock()
}

// FetchQuotes fetches quotes for the state immediately, honoring the
// in-flight guard and the last-completed-key suppression. The returned
// slice is also recorded as the session's current quotes.
func (s *QuoteService) FetchQuotes(ctx context.Context, sessionID string, state QuoteState) ([]carrier.Quote, error) {
	s.mu.Lock()
	if s.inFlight[sessionID] {
		quotes := s.results[sessionID]
		s.mu.Unlock()
		if telemetry.Business != nil {
			telemetry.Business.QuoteSuppressed.WithLabelValues("in_flight").Inc()
		}
		return quotes, nil
	}
	if last, ok := s.lastKey[sessionID]; ok && last == state.Key {
		if cached, hit := s.cache.Get(ctx, state.Key); hit {
			s.results[sessionID] = cached
			s.mu.Unlock()
			if telemetry.Business != nil {
				telemetry.Business.QuoteSuppressed.WithLabelValues("same_key").Inc()
			}
			return cached, nil
		}
	}
	s.inFlight[sessionID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}()

	quotes, err := s.fetch(ctx, state)
	if err != nil {
		// Unavailable upstream degrades to "no quotes"; the key is not
		// recorded so the next change retries.
		if carrier.IsUnavailable(err) {
			s.setResults(sessionID, nil)
			return nil, err
		}
		return nil, err
	}

	s.mu.Lock()
	s.lastKey[sessionID] = state.Key
	s.results[sessionID] = quotes
	s.mu.Unlock()
	s.cache.Set(ctx, state.Key, quotes, s.cacheTTL)

	return quotes, nil
}

func (s *QuoteService) fetch(ctx context.Context, state QuoteState) ([]carrier.Quote, error) {
	cityID, ok := s.cities.LookupCityID(state.City)
	if !ok {
		// Unknown city fails soft: no quotes, no error.
		if telemetry.Business != nil {
			telemetry.Business.QuoteFetches.WithLabelValues("empty").Inc()
		}
		s.logger.Debug("city not in directory, skipping quotes", "city", state.City)
		return []carrier.Quote{}, nil
	}

	key := cacheKey(state.Key)
	start := time.Now()
	result, err, _ := s.group.Do(key, func() (any, error) {
		return s.provider.GetQuotes(ctx, carrier.QuoteParams{
			OriginCityID:      s.originCityID,
			DestinationCityID: cityID,
			Weight:            float64(state.ItemCount),
			PaymentType:       paymentTypeFor(state.Key.PaymentMethod),
		})
	})

	if telemetry.Business != nil {
		telemetry.Business.QuoteLatency.WithLabelValues("bolesa").Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.QuoteFetches.WithLabelValues("unavailable").Inc()
		}
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.QuoteFetches.WithLabelValues("ok").Inc()
	}
	return result.([]carrier.Quote), nil
}

// LastQuotes returns the session's most recently completed quotes.
func (s *QuoteService) LastQuotes(sessionID string) []carrier.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[sessionID]
}

// Reset drops all per-session quote state, e.g. after order placement.
func (s *QuoteService) Reset(sessionID string) {
	s.mu.Lock()
	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
		delete(s.timers, sessionID)
	}
	// Invalidate any timer callback that fired but has not run yet.
	s.timerGen[sessionID]++
	delete(s.lastKey, sessionID)
	delete(s.results, sessionID)
	s.mu.Unlock()
}

func (s *QuoteService) setResults(sessionID string, quotes []carrier.Quote) {
	s.mu.Lock()
	s.results[sessionID] = quotes
	s.mu.Unlock()
}

func paymentTypeFor(method string) string {
	if method == domain.PaymentMethodCOD {
		return carrier.PaymentTypeCOD
	}
	return carrier.PaymentTypePrepaid
}
