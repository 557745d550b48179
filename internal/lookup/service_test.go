package lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-lookup/internal/cache"
	"github.com/couchcryptid/weather-lookup/internal/domain"
	"github.com/couchcryptid/weather-lookup/internal/observability"
)

// --- mocks ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) ByCity(ctx context.Context, name string, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	args := m.Called(ctx, name, units)
	return args.Get(0).(domain.WeatherSnapshot), args.Error(1)
}

func (m *mockProvider) ByCoordinates(ctx context.Context, lat, lon float64, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	args := m.Called(ctx, lat, lon, units)
	return args.Get(0).(domain.WeatherSnapshot), args.Error(1)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.LookupEvent
}

func (s *recordingSink) Publish(ev domain.LookupEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) all() []domain.LookupEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LookupEvent(nil), s.events...)
}

func snapshot(name string, temp float64) domain.WeatherSnapshot {
	return domain.WeatherSnapshot{
		Name:    name,
		Main:    domain.MainReadings{Temp: temp},
		Weather: []domain.Condition{{Main: "Clear", Description: "clear sky"}},
		Sys:     domain.SysInfo{Country: "FR"},
	}
}

func newTestService(p domain.WeatherProvider, sink *recordingSink, opts ...cache.Option) *Service {
	return NewService(p, 10, time.Minute, sink, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

// --- tests ---

func TestService_ByCity_CachesPerUnits(t *testing.T) {
	p := &mockProvider{}
	p.On("ByCity", mock.Anything, "Paris", domain.Metric).Return(snapshot("Paris", 20), nil).Once()
	p.On("ByCity", mock.Anything, "Paris", domain.Imperial).Return(snapshot("Paris", 68), nil).Once()
	sink := &recordingSink{}
	s := newTestService(p, sink)

	m1, err := s.ByCity(context.Background(), "Paris", domain.Metric)
	require.NoError(t, err)
	m2, err := s.ByCity(context.Background(), " paris ", domain.Metric)
	require.NoError(t, err)
	i1, err := s.ByCity(context.Background(), "Paris", domain.Imperial)
	require.NoError(t, err)

	assert.InDelta(t, 20, m1.Main.Temp, 1e-9)
	assert.Equal(t, m1, m2)
	assert.InDelta(t, 68, i1.Main.Temp, 1e-9)
	p.AssertExpectations(t)

	evs := sink.all()
	require.Len(t, evs, 3)
	assert.False(t, evs[0].CacheHit)
	assert.True(t, evs[1].CacheHit)
	assert.Equal(t, domain.Imperial, evs[2].Units)
	assert.InDelta(t, 1, testutil.ToFloat64(s.metrics.LookupCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(s.metrics.LookupCache.WithLabelValues("miss")), 0)
}

func TestService_ByCity_NotFoundIsNotCached(t *testing.T) {
	p := &mockProvider{}
	p.On("ByCity", mock.Anything, "Nonexistentville", domain.Metric).
		Return(domain.WeatherSnapshot{}, domain.ErrNotFound).Twice()
	sink := &recordingSink{}
	s := newTestService(p, sink)

	for range 2 {
		_, err := s.ByCity(context.Background(), "Nonexistentville", domain.Metric)
		require.ErrorIs(t, err, domain.ErrNotFound)
	}

	p.AssertExpectations(t)
	evs := sink.all()
	require.Len(t, evs, 2)
	assert.Equal(t, domain.OutcomeNotFound, evs[0].Outcome)
	assert.Nil(t, evs[0].Temp)
	assert.InDelta(t, 2, testutil.ToFloat64(s.metrics.Lookups.WithLabelValues("city", "not_found")), 0)
}

func TestService_ByCity_UpstreamErrorOutcome(t *testing.T) {
	p := &mockProvider{}
	p.On("ByCity", mock.Anything, "Paris", domain.Metric).
		Return(domain.WeatherSnapshot{}, domain.ErrUpstreamUnavailable)
	sink := &recordingSink{}
	s := newTestService(p, sink)

	_, err := s.ByCity(context.Background(), "Paris", domain.Metric)
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, domain.OutcomeError, sink.all()[0].Outcome)
}

func TestService_ByCity_InvalidQueries(t *testing.T) {
	p := &mockProvider{}
	s := newTestService(p, &recordingSink{})

	_, err := s.ByCity(context.Background(), "   ", domain.Metric)
	require.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = s.ByCity(context.Background(), "Paris", domain.UnitSystem("kelvin"))
	require.ErrorIs(t, err, domain.ErrInvalidQuery)

	p.AssertNotCalled(t, "ByCity", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ByCoordinates(t *testing.T) {
	p := &mockProvider{}
	p.On("ByCoordinates", mock.Anything, 48.8566, 2.3522, domain.Metric).Return(snapshot("Paris", 20), nil).Once()
	sink := &recordingSink{}
	s := newTestService(p, sink)

	snap, err := s.ByCoordinates(context.Background(), 48.8566, 2.3522, domain.Metric)
	require.NoError(t, err)
	assert.Equal(t, "Paris", snap.Name)

	_, err = s.ByCoordinates(context.Background(), 48.8566, 2.3522, domain.Metric)
	require.NoError(t, err)
	p.AssertExpectations(t)

	ev := sink.all()[0]
	assert.Equal(t, domain.LookupCoordinates, ev.Kind)
	assert.Equal(t, "48.8566,2.3522", ev.Query)
	assert.Equal(t, "Paris", ev.Location)
}

func TestService_ByCoordinates_OutOfRange(t *testing.T) {
	s := newTestService(&mockProvider{}, &recordingSink{})

	_, err := s.ByCoordinates(context.Background(), 91, 0, domain.Metric)
	require.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = s.ByCoordinates(context.Background(), 0, -180.5, domain.Metric)
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestService_CacheExpires(t *testing.T) {
	clk := clockwork.NewFakeClock()
	p := &mockProvider{}
	p.On("ByCity", mock.Anything, "Paris", domain.Metric).Return(snapshot("Paris", 20), nil).Twice()
	s := newTestService(p, &recordingSink{}, cache.WithClock(clk))

	_, err := s.ByCity(context.Background(), "Paris", domain.Metric)
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)
	_, err = s.ByCity(context.Background(), "Paris", domain.Metric)
	require.NoError(t, err)

	p.AssertExpectations(t)
}

type blockingProvider struct {
	mockProvider
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (b *blockingProvider) ByCity(_ context.Context, name string, _ domain.UnitSystem) (domain.WeatherSnapshot, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	return snapshot(name, 20), nil
}

func TestService_CoalescesConcurrentLookups(t *testing.T) {
	p := &blockingProvider{release: make(chan struct{})}
	s := newTestService(p, &recordingSink{})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ByCity(context.Background(), "Paris", domain.Metric)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(s.metrics.LookupsInFlight) == 1
	}, time.Second, time.Millisecond)
	// Give the remaining callers a moment to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(p.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.LessOrEqual(t, p.calls, 2, "concurrent identical lookups should share upstream calls")
}

func TestService_CallerCancellationDoesNotCancelSharedFetch(t *testing.T) {
	p := &mockProvider{}
	p.On("ByCity", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), "Paris", domain.Metric).
		Return(snapshot("Paris", 20), nil)
	s := newTestService(p, &recordingSink{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ByCity(ctx, "Paris", domain.Metric)
	require.NoError(t, err)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, domain.OutcomeSuccess, outcomeOf(nil))
	assert.Equal(t, domain.OutcomeNotFound, outcomeOf(errors.Join(errors.New("x"), domain.ErrNotFound)))
	assert.Equal(t, domain.OutcomeError, outcomeOf(errors.New("boom")))
}
