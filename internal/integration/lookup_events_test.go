//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/weather-lookup/internal/adapter/kafka"
	"github.com/couchcryptid/weather-lookup/internal/adapter/openweather"
	"github.com/couchcryptid/weather-lookup/internal/config"
	"github.com/couchcryptid/weather-lookup/internal/domain"
	"github.com/couchcryptid/weather-lookup/internal/events"
	"github.com/couchcryptid/weather-lookup/internal/lookup"
	"github.com/couchcryptid/weather-lookup/internal/observability"
)

const testLookupTopic = "test-lookups"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("weather-lookup-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// fakeOpenWeather answers every city except "Nowhere".
func fakeOpenWeather(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("q")
		if city == "Nowhere" {
			http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name":%q,"main":{"temp":20},"weather":[{"id":800,"main":"Clear","description":"clear sky"}],"sys":{"country":"FR"}}`, city)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type lookupMessage struct {
	Event   domain.LookupEvent
	Key     string
	Headers map[string]string
}

func readLookup(ctx context.Context, t *testing.T, consumer *kafkago.Reader) lookupMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from lookup topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var ev domain.LookupEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev), "unmarshal lookup event")
	return lookupMessage{Event: ev, Key: string(msg.Key), Headers: headers}
}

// TestLookupEventsEndToEnd runs lookups through the service and checks the
// events that reach Kafka through the publisher and writer.
func TestLookupEventsEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testLookupTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaLookupTopic:   testLookupTopic,
		BatchSize:          3,
		BatchFlushInterval: 200 * time.Millisecond,
	}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })
	publisher := events.NewPublisher(writer, logger, metrics, cfg.BatchSize, cfg.BatchFlushInterval)

	runCtx, stopPublisher := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = publisher.Run(runCtx)
	}()
	t.Cleanup(func() {
		stopPublisher()
		<-done
	})

	upstream := openweather.NewClient("test-key", fakeOpenWeather(t).URL, 5*time.Second, metrics, logger)
	service := lookup.NewService(upstream, 10, time.Minute, publisher, metrics, logger)

	_, err := service.ByCity(ctx, "Paris", domain.Metric)
	require.NoError(t, err)
	_, err = service.ByCity(ctx, "paris", domain.Metric)
	require.NoError(t, err)
	_, err = service.ByCity(ctx, "Nowhere", domain.Metric)
	require.ErrorIs(t, err, domain.ErrNotFound)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testLookupTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readLookup(ctx, t, consumer)
	second := readLookup(ctx, t, consumer)
	third := readLookup(ctx, t, consumer)

	assert.Equal(t, first.Event.ID, first.Key)
	assert.Equal(t, "city", first.Headers["lookup_kind"])
	assert.Equal(t, domain.OutcomeSuccess, first.Headers["outcome"])
	_, err = time.Parse(time.RFC3339, first.Headers["looked_up_at"])
	assert.NoError(t, err, "looked_up_at should be valid RFC3339")

	assert.Equal(t, "Paris", first.Event.Location)
	assert.Equal(t, "FR", first.Event.Country)
	assert.False(t, first.Event.CacheHit)
	require.NotNil(t, first.Event.Temp)
	assert.InDelta(t, 20, *first.Event.Temp, 1e-9)

	assert.True(t, second.Event.CacheHit, "second lookup is served from the cache")
	assert.Equal(t, domain.OutcomeNotFound, third.Event.Outcome)
	assert.Nil(t, third.Event.Temp)
}

// TestPublisherFinalFlush checks that events queued at shutdown still reach
// Kafka.
func TestPublisherFinalFlush(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testLookupTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaLookupTopic: testLookupTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	// Neither the batch size nor the interval is reached before shutdown.
	publisher := events.NewPublisher(writer, discardLogger(), observability.NewMetricsForTesting(), 100, time.Hour,
		events.WithFinalFlushTimeout(30*time.Second))
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = publisher.Run(runCtx)
	}()

	ev := domain.NewLookupEvent(domain.LookupCoordinates, "48.8566,2.3522", domain.Imperial, domain.OutcomeSuccess, nil)
	publisher.Publish(ev)
	stop()
	<-done

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testLookupTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := readLookup(ctx, t, consumer)
	assert.Equal(t, ev.ID, got.Event.ID)
	assert.Equal(t, "coordinates", got.Headers["lookup_kind"])
	assert.Equal(t, domain.Imperial, got.Event.Units)
}
