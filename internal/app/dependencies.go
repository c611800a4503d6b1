package app

import (
	"context"
	"time"

	"github.com/klokku/kalendar/internal/config"
	"github.com/klokku/kalendar/internal/event_bus"
	"github.com/klokku/kalendar/internal/metrics"
	"github.com/klokku/kalendar/internal/utils"
	"github.com/klokku/kalendar/pkg/event"
	"github.com/klokku/kalendar/pkg/icalendar"
	"github.com/klokku/kalendar/pkg/layout"
	"github.com/klokku/kalendar/pkg/storage"
	"github.com/klokku/kalendar/pkg/timeslot"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Location *time.Location
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Metrics  *metrics.Metrics

	EventRepository event.Repository
	EventStore      *event.StoreImpl
	EventHandler    *event.EventHandler

	LayoutHandler *layout.Handler

	TimeSlotGenerator timeslot.Generator
	TimeSlotHandler   *timeslot.Handler

	CalendarHandler *icalendar.Handler

	unsubscribers []func()
}

// BuildDependencies initializes and wires all application services and handlers.
// Loading the stored events happens here, so a storage failure stops the startup.
func BuildDependencies(ctx context.Context, kv storage.KeyValueStore, cfg config.Application) (*Dependencies, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	event.SetLocation(location)
	deps := &Dependencies{Location: location}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.New()
		kv = deps.Metrics.InstrumentStore(kv)
		deps.unsubscribers = append(deps.unsubscribers, deps.Metrics.Subscribe(deps.EventBus))
	}

	deps.EventRepository = event.NewRepository(kv, cfg.Storage.Key)
	store, err := event.NewStore(ctx, deps.EventRepository, deps.EventBus, deps.Clock)
	if err != nil {
		return nil, err
	}
	deps.EventStore = store
	deps.EventHandler = event.NewEventHandler(deps.EventStore)
	if deps.Metrics != nil {
		deps.Metrics.SetEvents(len(store.Events()))
	}

	deps.LayoutHandler = layout.NewHandler(deps.EventStore, cfg.Layout.Capacity, cfg.Layout.FirstDay(), deps.Location, deps.Clock)

	deps.TimeSlotGenerator = timeslot.NewGenerator(cfg.TimeSlot.Interval)
	deps.TimeSlotHandler = timeslot.NewHandler(deps.TimeSlotGenerator)

	deps.CalendarHandler = icalendar.NewHandler(deps.EventStore, deps.Location, deps.Clock)

	return deps, nil
}

func (d *Dependencies) Close() {
	for _, unsubscribe := range d.unsubscribers {
		unsubscribe()
	}
}
