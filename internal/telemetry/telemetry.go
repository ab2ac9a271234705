// Package telemetry reports domain events to an external insights collector.
//
// Delivery is fire-and-forget: SubmitEvents never blocks on the network and
// never reports failure to the caller. Every submitted event is also counted
// in Prometheus so the process keeps a local view when the sink is down.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/serverwatch/availability-watch/internal/config"
)

// Event types emitted by the pipelines.
const (
	EventAvailabilityRequest = "availabilityRequest"
	EventReactivateRequest   = "reactivateRequest"
)

// Event is one insights record. The "eventType" key is required by the sink.
type Event map[string]any

// NewEvent returns an Event of the given type carrying fields.
func NewEvent(eventType string, fields map[string]any) Event {
	e := Event{"eventType": eventType}
	for k, v := range fields {
		e[k] = v
	}
	return e
}

// Type returns the event's eventType, or "unknown".
func (e Event) Type() string {
	if s, ok := e["eventType"].(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// Emitter submits domain events.
type Emitter interface {
	SubmitEvents(ctx context.Context, events []Event)
}

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_total",
			Help: "Domain events submitted to telemetry, by event type.",
		},
		[]string{"event_type"},
	)
	deliveryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_delivery_failures_total",
			Help: "Telemetry batches that could not be delivered to the collector.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal, deliveryFailures)
}

func count(events []Event) {
	for _, e := range events {
		eventsTotal.WithLabelValues(e.Type()).Inc()
	}
}

// Nop only counts events locally.
type Nop struct{}

// SubmitEvents implements Emitter.
func (Nop) SubmitEvents(_ context.Context, events []Event) { count(events) }

// InsightsEmitter posts events as a JSON array to an insights insert API.
type InsightsEmitter struct {
	HTTP      *http.Client
	URL       string
	InsertKey string

	wg sync.WaitGroup
}

// New returns an InsightsEmitter when telemetry is enabled, Nop otherwise.
func New(cfg config.TelemetryConfig) Emitter {
	if !cfg.Enabled || cfg.URL == "" {
		return Nop{}
	}
	return NewInsightsEmitter(cfg.URL, cfg.InsertKey)
}

// NewInsightsEmitter returns an emitter with a 5s HTTP timeout.
func NewInsightsEmitter(url, insertKey string) *InsightsEmitter {
	return &InsightsEmitter{
		HTTP:      &http.Client{Timeout: 5 * time.Second},
		URL:       url,
		InsertKey: insertKey,
	}
}

// SubmitEvents implements Emitter. Delivery runs in the background, detached
// from ctx cancellation but keeping its values.
func (e *InsightsEmitter) SubmitEvents(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	count(events)
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.send(ctx, events); err != nil {
			deliveryFailures.Inc()
			log.Warn().Err(err).Int("events", len(events)).Msg("telemetry delivery failed")
		}
	}()
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (e *InsightsEmitter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *InsightsEmitter) send(ctx context.Context, events []Event) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Insert-Key", e.InsertKey)

	hc := e.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("post events: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector status %d", resp.StatusCode)
	}
	return nil
}
