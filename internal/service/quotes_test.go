package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/geo"
	"github.com/Shade1269/atlannew-sub000/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteKey(city string, count int, method string, subtotal int64) domain.QuoteRequestKey {
	return domain.NewQuoteRequestKey(city, count, method, decimal.NewFromInt(subtotal), "v-1")
}

func newQuoteService(provider carrier.Provider, debounce time.Duration) *service.QuoteService {
	return service.NewQuoteService(service.QuoteServiceConfig{
		Provider:     provider,
		Cities:       geo.NewDirectory(),
		Debounce:     debounce,
		CacheTTL:     time.Minute,
		OriginCityID: "59",
	})
}

func TestFetchQuotes_RecordsResults(t *testing.T) {
	provider := carrier.NewMockProvider()
	qs := newQuoteService(provider, time.Second)

	state := service.QuoteState{
		Key:       quoteKey("Riyadh", 2, domain.PaymentMethodCOD, 500),
		City:      "Riyadh",
		ItemCount: 2,
	}

	quotes, err := qs.FetchQuotes(context.Background(), "sess-1", state)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, quotes, qs.LastQuotes("sess-1"))

	require.Len(t, provider.QuoteCalls(), 1)
	call := provider.QuoteCalls()[0]
	assert.Equal(t, "59", call.OriginCityID)
	assert.Equal(t, "59", call.DestinationCityID)
	assert.Equal(t, float64(2), call.Weight)
	assert.Equal(t, carrier.PaymentTypeCOD, call.PaymentType)
}

func TestFetchQuotes_SameKeySuppressed(t *testing.T) {
	provider := carrier.NewMockProvider()
	qs := newQuoteService(provider, time.Second)

	state := service.QuoteState{
		Key:       quoteKey("Riyadh", 2, domain.PaymentMethodCOD, 500),
		City:      "Riyadh",
		ItemCount: 2,
	}

	_, err := qs.FetchQuotes(context.Background(), "sess-1", state)
	require.NoError(t, err)
	_, err = qs.FetchQuotes(context.Background(), "sess-1", state)
	require.NoError(t, err)

	assert.Len(t, provider.QuoteCalls(), 1, "identical key must not refetch")

	// Any key component change refetches.
	changed := state
	changed.Key = quoteKey("Riyadh", 2, domain.PaymentMethodCard, 500)
	_, err = qs.FetchQuotes(context.Background(), "sess-1", changed)
	require.NoError(t, err)
	assert.Len(t, provider.QuoteCalls(), 2)
}

func TestFetchQuotes_InFlightGuard(t *testing.T) {
	provider := carrier.NewMockProvider()
	release := make(chan struct{})
	started := make(chan struct{})
	provider.GetQuotesFunc = func(ctx context.Context, params carrier.QuoteParams) ([]carrier.Quote, error) {
		close(started)
		<-release
		return []carrier.Quote{{CarrierID: "1", CarrierName: "Mock", Price: decimal.NewFromInt(20)}}, nil
	}

	qs := newQuoteService(provider, time.Second)
	state := service.QuoteState{
		Key:       quoteKey("Riyadh", 1, domain.PaymentMethodCOD, 100),
		City:      "Riyadh",
		ItemCount: 1,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = qs.FetchQuotes(context.Background(), "sess-1", state)
	}()

	<-started
	// Second call while the first is in flight returns without fetching.
	quotes, err := qs.FetchQuotes(context.Background(), "sess-1", state)
	require.NoError(t, err)
	assert.Empty(t, quotes)

	close(release)
	wg.Wait()

	assert.Len(t, provider.QuoteCalls(), 1)
}

func TestFetchQuotes_UnknownCityFailsSoft(t *testing.T) {
	provider := carrier.NewMockProvider()
	qs := newQuoteService(provider, time.Second)

	quotes, err := qs.FetchQuotes(context.Background(), "sess-1", service.QuoteState{
		Key:       quoteKey("Atlantis", 1, domain.PaymentMethodCOD, 100),
		City:      "Atlantis",
		ItemCount: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Empty(t, provider.QuoteCalls(), "unknown city must not hit the network")
}

func TestFetchQuotes_UnavailableDegrades(t *testing.T) {
	provider := carrier.NewMockProvider()
	provider.GetQuotesFunc = func(ctx context.Context, params carrier.QuoteParams) ([]carrier.Quote, error) {
		return []carrier.Quote{}, carrier.ErrUnavailable(assert.AnError)
	}
	qs := newQuoteService(provider, time.Second)

	state := service.QuoteState{
		Key:       quoteKey("Riyadh", 1, domain.PaymentMethodCOD, 100),
		City:      "Riyadh",
		ItemCount: 1,
	}
	_, err := qs.FetchQuotes(context.Background(), "sess-1", state)
	assert.True(t, carrier.IsUnavailable(err))

	// The failed key is not recorded: the next attempt retries upstream.
	provider.GetQuotesFunc = nil
	quotes, err := qs.FetchQuotes(context.Background(), "sess-1", state)
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}

func TestScheduleFetch_TrailingDebounce(t *testing.T) {
	provider := carrier.NewMockProvider()
	qs := newQuoteService(provider, 50*time.Millisecond)

	// A burst of changes: only the final state is fetched, once.
	for i := 1; i <= 5; i++ {
		qs.ScheduleFetch("sess-1", service.QuoteState{
			Key:       quoteKey("Riyadh", i, domain.PaymentMethodCOD, int64(i*100)),
			City:      "Riyadh",
			ItemCount: i,
		})
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(provider.QuoteCalls()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, float64(5), provider.QuoteCalls()[0].Weight,
		"only the last burst state is fetched")

	// Quiet period: no further fetches.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, provider.QuoteCalls(), 1)
}

func TestScheduleFetch_ResetCancelsPending(t *testing.T) {
	provider := carrier.NewMockProvider()
	qs := newQuoteService(provider, 20*time.Millisecond)

	qs.ScheduleFetch("sess-1", service.QuoteState{
		Key:       quoteKey("Riyadh", 2, domain.PaymentMethodCOD, 500),
		City:      "Riyadh",
		ItemCount: 2,
	})
	qs.Reset("sess-1")

	// Reset invalidates the scheduled fetch even if its timer already
	// fired; the session is done quoting.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, provider.QuoteCalls())
}
