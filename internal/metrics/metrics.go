package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/klokku/kalendar/internal/event_bus"
	"github.com/klokku/kalendar/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Metrics struct {
	registry       *prometheus.Registry
	events         prometheus.Gauge
	draftPresent   prometheus.Gauge
	mutations      *prometheus.CounterVec
	storageLatency *prometheus.HistogramVec
	storageErrors  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		events: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kalendar_events",
			Help: "The number of stored calendar events",
		}),
		draftPresent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kalendar_draft_present",
			Help: "1 while a draft event exists, 0 otherwise",
		}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kalendar_event_mutations_total",
			Help: "Calendar event changes by type",
		}, []string{"type"}),
		storageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kalendar_storage_latency_seconds",
			Help:    "The latency of storage reads and writes",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
		storageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kalendar_storage_errors_total",
			Help: "Failed storage reads and writes",
		}, []string{"operation"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetEvents initializes the event gauge, e.g. after the store was loaded.
func (m *Metrics) SetEvents(count int) {
	m.events.Set(float64(count))
}

// Subscribe keeps the event metrics in sync with the store notifications.
func (m *Metrics) Subscribe(bus *event_bus.EventBus) (unsubscribe func()) {
	onChange := func(e event_bus.EventT[event_bus.EventChanged]) error {
		m.mutations.WithLabelValues(string(e.Type)).Inc()
		m.events.Set(float64(e.Data.Total))
		return nil
	}
	unsubscribers := []func(){
		event_bus.SubscribeTyped(bus, event_bus.EventCreatedType, onChange),
		event_bus.SubscribeTyped(bus, event_bus.EventUpdatedType, onChange),
		event_bus.SubscribeTyped(bus, event_bus.EventRestoredType, onChange),
		event_bus.SubscribeTyped(bus, event_bus.EventRemovedType, func(e event_bus.EventT[event_bus.EventRemoved]) error {
			m.mutations.WithLabelValues(string(e.Type)).Inc()
			m.events.Set(float64(e.Data.Total))
			return nil
		}),
		event_bus.SubscribeTyped(bus, event_bus.DraftEventChangedType, func(e event_bus.EventT[event_bus.DraftEventChanged]) error {
			if e.Data.Present {
				m.draftPresent.Set(1)
			} else {
				m.draftPresent.Set(0)
			}
			return nil
		}),
	}
	log.Debug("event metrics subscribed")

	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}

// InstrumentStore records the latency and failures of every call to kv.
func (m *Metrics) InstrumentStore(kv storage.KeyValueStore) storage.KeyValueStore {
	return &instrumentedStore{kv: kv, metrics: m}
}

type instrumentedStore struct {
	kv      storage.KeyValueStore
	metrics *Metrics
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	value, err := s.kv.Get(ctx, key)
	s.observe("read", start, err)
	return value, err
}

func (s *instrumentedStore) Put(ctx context.Context, key string, value string) error {
	start := time.Now()
	err := s.kv.Put(ctx, key, value)
	s.observe("write", start, err)
	return err
}

func (s *instrumentedStore) observe(operation string, start time.Time, err error) {
	s.metrics.storageLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		s.metrics.storageErrors.WithLabelValues(operation).Inc()
	}
}
