// Package lookup serves weather lookups for the HTTP API: it validates
// queries, answers from a short-lived snapshot cache, coalesces identical
// concurrent lookups and reports every outcome as a lookup event.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/weather-lookup/internal/cache"
	"github.com/couchcryptid/weather-lookup/internal/domain"
	"github.com/couchcryptid/weather-lookup/internal/events"
	"github.com/couchcryptid/weather-lookup/internal/observability"
)

// Service implements domain.WeatherProvider on top of an upstream provider.
type Service struct {
	upstream domain.WeatherProvider
	cache    *cache.LRU[string, domain.WeatherSnapshot]
	group    singleflight.Group
	sink     events.Sink
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService creates a lookup service. A nil sink discards events.
func NewService(upstream domain.WeatherProvider, cacheSize int, cacheTTL time.Duration, sink events.Sink, metrics *observability.Metrics, logger *slog.Logger, opts ...cache.Option) *Service {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Service{
		upstream: upstream,
		cache:    cache.New[string, domain.WeatherSnapshot](cacheSize, cacheTTL, opts...),
		sink:     sink,
		metrics:  metrics,
		logger:   logger,
	}
}

// ByCity looks up current conditions for a place name.
func (s *Service) ByCity(ctx context.Context, name string, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: city name is blank", domain.ErrInvalidQuery)
	}
	if !units.Valid() {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: unknown unit system %q", domain.ErrInvalidQuery, units)
	}

	key := "city:" + strings.ToLower(name) + "|" + string(units)
	return s.lookup(ctx, domain.LookupCity, name, units, key, func(ctx context.Context) (domain.WeatherSnapshot, error) {
		return s.upstream.ByCity(ctx, name, units)
	})
}

// ByCoordinates looks up current conditions for a position.
func (s *Service) ByCoordinates(ctx context.Context, lat, lon float64, units domain.UnitSystem) (domain.WeatherSnapshot, error) {
	if !domain.ValidCoordinates(lat, lon) {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidQuery)
	}
	if !units.Valid() {
		return domain.WeatherSnapshot{}, fmt.Errorf("%w: unknown unit system %q", domain.ErrInvalidQuery, units)
	}

	query := strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
	key := "coord:" + query + "|" + string(units)
	return s.lookup(ctx, domain.LookupCoordinates, query, units, key, func(ctx context.Context) (domain.WeatherSnapshot, error) {
		return s.upstream.ByCoordinates(ctx, lat, lon, units)
	})
}

func (s *Service) lookup(ctx context.Context, kind domain.LookupKind, query string, units domain.UnitSystem, key string, fetch func(context.Context) (domain.WeatherSnapshot, error)) (domain.WeatherSnapshot, error) {
	if snap, ok := s.cache.Get(key); ok {
		s.metrics.LookupCache.WithLabelValues("hit").Inc()
		s.record(kind, query, units, true, &snap, nil)
		return snap, nil
	}
	s.metrics.LookupCache.WithLabelValues("miss").Inc()

	// The shared call must outlive any single caller that gives up on it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		s.metrics.LookupsInFlight.Inc()
		defer s.metrics.LookupsInFlight.Dec()

		snap, err := fetch(shared)
		if err != nil {
			return domain.WeatherSnapshot{}, err
		}
		s.cache.Put(key, snap)
		return snap, nil
	})
	if err != nil {
		s.record(kind, query, units, false, nil, err)
		return domain.WeatherSnapshot{}, err
	}

	snap := v.(domain.WeatherSnapshot)
	s.record(kind, query, units, false, &snap, nil)
	return snap, nil
}

func (s *Service) record(kind domain.LookupKind, query string, units domain.UnitSystem, cacheHit bool, snap *domain.WeatherSnapshot, err error) {
	outcome := outcomeOf(err)
	s.metrics.Lookups.WithLabelValues(string(kind), outcome).Inc()
	if err != nil {
		s.logger.Warn("weather lookup failed", "kind", kind, "query", query, "units", units, "error", err)
	} else {
		s.logger.Debug("weather lookup served", "kind", kind, "query", query, "units", units, "cache_hit", cacheHit)
	}

	ev := domain.NewLookupEvent(kind, query, units, outcome, snap)
	ev.CacheHit = cacheHit
	s.sink.Publish(ev)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return domain.OutcomeSuccess
	case errors.Is(err, domain.ErrNotFound):
		return domain.OutcomeNotFound
	default:
		return domain.OutcomeError
	}
}
