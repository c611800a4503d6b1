package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/klokku/kalendar/internal/event_bus"
	"github.com/klokku/kalendar/internal/utils"
	log "github.com/sirupsen/logrus"
)

var ErrNoDraft = errors.New("no draft event")
var ErrUndoConflict = errors.New("an event with the same id already exists")

// Store owns the event list and the draft slot. Every list mutation is saved
// through the Repository before the call returns.
type Store interface {
	Events() []Event
	GetEvent(id uuid.UUID) (Event, bool)
	// AddEvent assigns a fresh id to the payload and appends it.
	AddEvent(ctx context.Context, payload Event) (uuid.UUID, error)
	// UpdateEvent replaces the event sharing updated.Id. Unknown ids are ignored.
	UpdateEvent(ctx context.Context, updated Event) error
	// RemoveEvent removes the event and returns the token reinstating it.
	// Unknown ids are ignored and yield an empty token.
	RemoveEvent(ctx context.Context, id uuid.UUID) (Undo, error)
	// ApplyUndo reinstates the event removed by the token.
	ApplyUndo(ctx context.Context, undo Undo) error
	DraftEvent() (Event, bool)
	AddDraftEvent(ctx context.Context, payload Event) Event
	RemoveDraftEvent(ctx context.Context)
	// ConfirmDraft moves the draft into the event list.
	ConfirmDraft(ctx context.Context) (uuid.UUID, error)
}

type StoreImpl struct {
	mu     sync.RWMutex
	events []Event
	draft  *Event
	repo   Repository
	bus    *event_bus.EventBus
	clock  utils.Clock
}

// NewStore loads the persisted events. Malformed data results in an empty store;
// a storage failure is returned so that the persisted list is never overwritten.
func NewStore(ctx context.Context, repo Repository, bus *event_bus.EventBus, clock utils.Clock) (*StoreImpl, error) {
	events, err := repo.Load(ctx)
	if err != nil {
		log.Errorf("failed to load events: %v", err)
		return nil, err
	}
	if bus == nil {
		bus = event_bus.NewEventBus()
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	log.Infof("Event store initialized with %d events", len(events))
	return &StoreImpl{events: events, repo: repo, bus: bus, clock: clock}, nil
}

func (s *StoreImpl) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e.Clone())
	}
	return events
}

func (s *StoreImpl) GetEvent(id uuid.UUID) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Event{}, false
	}
	return s.events[i].Clone(), true
}

// AddEvent always stores the event in memory. A returned error means the
// event was added but the list could not be persisted.
func (s *StoreImpl) AddEvent(ctx context.Context, payload Event) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := payload.Clone()
	event.Id = s.newId()
	s.events = append(s.events, event)
	log.Debugf("added event %s (%s)", event.Id, event.Kind())

	err := s.save(ctx)
	s.publish(ctx, event_bus.EventCreatedType, event_bus.EventChanged{Id: event.Id, Kind: string(event.Kind()), Total: len(s.events)})
	return event.Id, err
}

func (s *StoreImpl) UpdateEvent(ctx context.Context, updated Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(updated.Id)
	if i < 0 {
		log.Debugf("update of unknown event %s ignored", updated.Id)
		return nil
	}
	s.events[i] = updated.Clone()

	err := s.save(ctx)
	s.publish(ctx, event_bus.EventUpdatedType, event_bus.EventChanged{Id: updated.Id, Kind: string(updated.Kind()), Total: len(s.events)})
	return err
}

func (s *StoreImpl) RemoveEvent(ctx context.Context, id uuid.UUID) (Undo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		log.Debugf("removal of unknown event %s ignored", id)
		return Undo{}, nil
	}
	removed := s.events[i]
	s.events = append(s.events[:i:i], s.events[i+1:]...)

	err := s.save(ctx)
	s.publish(ctx, event_bus.EventRemovedType, event_bus.EventRemoved{Id: id, Total: len(s.events)})
	return Undo{Event: &removed, RemovedAt: s.clock.Now()}, err
}

// ApplyUndo appends the removed event again. A token whose event id is already
// stored (it was applied before, or the event came back another way) is
// rejected with ErrUndoConflict instead of creating a duplicate.
func (s *StoreImpl) ApplyUndo(ctx context.Context, undo Undo) error {
	if undo.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event := undo.Event.Clone()
	if s.indexOf(event.Id) >= 0 {
		log.Warnf("undo of event %s rejected, id already in use", event.Id)
		return ErrUndoConflict
	}
	s.events = append(s.events, event)

	err := s.save(ctx)
	s.publish(ctx, event_bus.EventRestoredType, event_bus.EventChanged{Id: event.Id, Kind: string(event.Kind()), Total: len(s.events)})
	return err
}

func (s *StoreImpl) DraftEvent() (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.draft == nil {
		return Event{}, false
	}
	return s.draft.Clone(), true
}

// AddDraftEvent replaces any existing draft with the payload under a fresh id.
func (s *StoreImpl) AddDraftEvent(ctx context.Context, payload Event) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := payload.Clone()
	draft.Id = s.newId()
	s.draft = &draft

	s.publish(ctx, event_bus.DraftEventChangedType, event_bus.DraftEventChanged{Id: draft.Id, Present: true})
	return draft.Clone()
}

func (s *StoreImpl) RemoveDraftEvent(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return
	}
	id := s.draft.Id
	s.draft = nil
	s.publish(ctx, event_bus.DraftEventChangedType, event_bus.DraftEventChanged{Id: id, Present: false})
}

func (s *StoreImpl) ConfirmDraft(ctx context.Context) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return uuid.Nil, ErrNoDraft
	}
	event := *s.draft
	if s.indexOf(event.Id) >= 0 {
		event.Id = s.newId()
	}
	s.events = append(s.events, event)
	s.draft = nil

	err := s.save(ctx)
	s.publish(ctx, event_bus.DraftEventChangedType, event_bus.DraftEventChanged{Id: event.Id, Present: false})
	s.publish(ctx, event_bus.EventCreatedType, event_bus.EventChanged{Id: event.Id, Kind: string(event.Kind()), Total: len(s.events)})
	return event.Id, err
}

// newId returns a random UUID not used by any stored event. Callers hold the lock.
func (s *StoreImpl) newId() uuid.UUID {
	for {
		id := uuid.New()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *StoreImpl) indexOf(id uuid.UUID) int {
	for i, e := range s.events {
		if e.Id == id {
			return i
		}
	}
	return -1
}

func (s *StoreImpl) save(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.events); err != nil {
		log.Errorf("failed to persist %d events: %v", len(s.events), err)
		return fmt.Errorf("failed to persist events: %w", err)
	}
	return nil
}

// publish runs bus handlers under the store lock; they must not call back into the store.
func (s *StoreImpl) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}
