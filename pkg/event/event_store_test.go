package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/kalendar/internal/event_bus"
	"github.com/klokku/kalendar/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStub = &StubRepository{}
var clock = &utils.MockClock{FixedNow: time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC)}

func setupStore(t *testing.T) (*StoreImpl, *event_bus.EventBus) {
	t.Cleanup(repoStub.Cleanup)
	bus := event_bus.NewEventBus()
	store, err := NewStore(context.Background(), repoStub, bus, clock)
	require.NoError(t, err)
	return store, bus
}

func ids(events []Event) []uuid.UUID {
	result := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		result = append(result, e.Id)
	}
	return result
}

func TestStoreImpl_AddEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("should assign unique ids and persist", func(t *testing.T) {
		// given
		store, _ := setupStore(t)

		// when
		first, err := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		require.NoError(t, err)
		second, err := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		require.NoError(t, err)

		// then
		assert.NotEqual(t, uuid.Nil, first)
		assert.NotEqual(t, first, second)
		assert.Equal(t, []uuid.UUID{first, second}, ids(store.Events()))
		assert.Equal(t, []uuid.UUID{first, second}, ids(repoStub.Events))
		assert.Equal(t, 2, repoStub.Saves)
	})

	t.Run("should ignore the id carried by the payload", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		existing, err := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		require.NoError(t, err)
		payload := NewDayEvent("Meeting", "", Blue, at(5, 10, 0), at(5, 11, 0))
		payload.Id = existing

		// when
		id, err := store.AddEvent(ctx, payload)

		// then
		require.NoError(t, err)
		assert.NotEqual(t, existing, id)
		assert.Len(t, store.Events(), 2)
	})

	t.Run("should keep the event in memory when saving fails", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		saveErr := errors.New("quota exceeded")
		repoStub.SaveErr = saveErr

		// when
		id, err := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))

		// then
		assert.ErrorIs(t, err, saveErr)
		_, found := store.GetEvent(id)
		assert.True(t, found)
		assert.Empty(t, repoStub.Events)
	})

	t.Run("should publish the created event", func(t *testing.T) {
		// given
		store, bus := setupStore(t)
		var published []event_bus.EventChanged
		event_bus.SubscribeTyped(bus, event_bus.EventCreatedType, func(e event_bus.EventT[event_bus.EventChanged]) error {
			published = append(published, e.Data)
			return nil
		})

		// when
		id, err := store.AddEvent(ctx, NewDayEvent("Meeting", "", Blue, at(5, 10, 0), at(5, 11, 0)))

		// then
		require.NoError(t, err)
		require.Len(t, published, 1)
		assert.Equal(t, event_bus.EventChanged{Id: id, Kind: string(DayKind), Total: 1}, published[0])
	})
}

func TestStoreImpl_Events(t *testing.T) {
	t.Run("should not expose internal state", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		id, err := store.AddEvent(context.Background(), NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		require.NoError(t, err)

		// when
		events := store.Events()
		events[0].Title = "Changed"
		events[0].FullDay.To = day(20)

		// then
		stored, found := store.GetEvent(id)
		require.True(t, found)
		assert.Equal(t, "Trip", stored.Title)
		assert.Equal(t, day(6), stored.FullDay.To)
	})
}

func TestStoreImpl_UpdateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("should replace only the matching event", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		first, _ := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		second, _ := store.AddEvent(ctx, NewDayEvent("Meeting", "", Blue, at(5, 10, 0), at(5, 11, 0)))
		untouched, _ := store.GetEvent(first)

		updated := NewDayEvent("Renamed", "now longer", Red, at(5, 10, 0), at(5, 12, 0))
		updated.Id = second

		// when
		err := store.UpdateEvent(ctx, updated)

		// then
		require.NoError(t, err)
		events := store.Events()
		require.Len(t, events, 2)
		assert.Equal(t, untouched, events[0])
		assert.Equal(t, updated, events[1])
		assert.Equal(t, "Renamed", repoStub.Events[1].Title)
	})

	t.Run("should allow changing the event kind", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		id, _ := store.AddEvent(ctx, NewDayEvent("Meeting", "", Blue, at(5, 10, 0), at(5, 11, 0)))
		updated := NewFullDayEvent("Meeting", "", Blue, day(5), day(5))
		updated.Id = id

		// when
		err := store.UpdateEvent(ctx, updated)

		// then
		require.NoError(t, err)
		stored, _ := store.GetEvent(id)
		assert.True(t, IsFullDayEvent(stored))
	})

	t.Run("should ignore unknown ids", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		_, _ = store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		before := store.Events()
		saves := repoStub.Saves
		unknown := NewFullDayEvent("Ghost", "", Zinc, day(1), day(1))
		unknown.Id = uuid.New()

		// when
		err := store.UpdateEvent(ctx, unknown)

		// then
		require.NoError(t, err)
		assert.Equal(t, before, store.Events())
		assert.Equal(t, saves, repoStub.Saves)
	})
}

func TestStoreImpl_RemoveEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("should remove the event and return an undo token", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		first, _ := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		second, _ := store.AddEvent(ctx, NewDayEvent("Meeting", "", Blue, at(5, 10, 0), at(5, 11, 0)))
		removed, _ := store.GetEvent(first)

		// when
		undo, err := store.RemoveEvent(ctx, first)

		// then
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{second}, ids(store.Events()))
		assert.Equal(t, []uuid.UUID{second}, ids(repoStub.Events))
		require.False(t, undo.Empty())
		assert.Equal(t, removed, *undo.Event)
		assert.Equal(t, clock.Now(), undo.RemovedAt)
	})

	t.Run("should stamp each removal with the current time", func(t *testing.T) {
		// given
		t.Cleanup(repoStub.Cleanup)
		removalClock := &utils.MockClock{}
		removalClock.SetNow(time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC))
		store, err := NewStore(ctx, repoStub, nil, removalClock)
		require.NoError(t, err)
		first, _ := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		second, _ := store.AddEvent(ctx, NewFullDayEvent("Hike", "", Red, day(7), day(7)))

		// when
		firstUndo, _ := store.RemoveEvent(ctx, first)
		removalClock.Advance(90 * time.Second)
		secondUndo, _ := store.RemoveEvent(ctx, second)

		// then
		assert.Equal(t, time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC), firstUndo.RemovedAt)
		assert.Equal(t, time.Date(2024, 11, 5, 12, 1, 30, 0, time.UTC), secondUndo.RemovedAt)
	})

	t.Run("should return an empty token for unknown ids", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		_, _ = store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))

		// when
		undo, err := store.RemoveEvent(ctx, uuid.New())

		// then
		require.NoError(t, err)
		assert.True(t, undo.Empty())
		assert.Len(t, store.Events(), 1)
	})

	t.Run("should publish the removal", func(t *testing.T) {
		// given
		store, bus := setupStore(t)
		id, _ := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		var published []event_bus.EventRemoved
		event_bus.SubscribeTyped(bus, event_bus.EventRemovedType, func(e event_bus.EventT[event_bus.EventRemoved]) error {
			published = append(published, e.Data)
			return nil
		})

		// when
		_, err := store.RemoveEvent(ctx, id)

		// then
		require.NoError(t, err)
		assert.Equal(t, []event_bus.EventRemoved{{Id: id, Total: 0}}, published)
	})
}

func TestStoreImpl_ApplyUndo(t *testing.T) {
	ctx := context.Background()

	t.Run("should reinstate the removed event at the end of the list", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		first, _ := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		second, _ := store.AddEvent(ctx, NewDayEvent("Meeting", "", Blue, at(5, 10, 0), at(5, 11, 0)))
		original, _ := store.GetEvent(first)
		undo, err := store.RemoveEvent(ctx, first)
		require.NoError(t, err)

		// when
		err = store.ApplyUndo(ctx, undo)

		// then
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{second, first}, ids(store.Events()))
		restored, found := store.GetEvent(first)
		require.True(t, found)
		assert.Equal(t, original, restored)
		assert.Equal(t, []uuid.UUID{second, first}, ids(repoStub.Events))
	})

	t.Run("should do nothing for an empty token", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		_, _ = store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		saves := repoStub.Saves

		// when
		err := store.ApplyUndo(ctx, Undo{})

		// then
		require.NoError(t, err)
		assert.Len(t, store.Events(), 1)
		assert.Equal(t, saves, repoStub.Saves)
	})

	t.Run("should reject a token applied twice", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		id, _ := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		undo, _ := store.RemoveEvent(ctx, id)
		require.NoError(t, store.ApplyUndo(ctx, undo))

		// when
		err := store.ApplyUndo(ctx, undo)

		// then
		assert.ErrorIs(t, err, ErrUndoConflict)
		assert.Len(t, store.Events(), 1)
	})

	t.Run("should not be affected by changes to the token after removal", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		id, _ := store.AddEvent(ctx, NewFullDayEvent("Trip", "", Green, day(4), day(6)))
		undo, _ := store.RemoveEvent(ctx, id)
		require.NoError(t, store.ApplyUndo(ctx, undo))

		// when
		undo.Event.Title = "Mutated"

		// then
		restored, _ := store.GetEvent(id)
		assert.Equal(t, "Trip", restored.Title)
	})
}

func TestStoreImpl_Draft(t *testing.T) {
	ctx := context.Background()

	t.Run("should start without a draft", func(t *testing.T) {
		store, _ := setupStore(t)

		_, found := store.DraftEvent()

		assert.False(t, found)
	})

	t.Run("should replace the previous draft", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		first := store.AddDraftEvent(ctx, NewDayEvent("First", "", Blue, at(5, 10, 0), at(5, 11, 0)))

		// when
		second := store.AddDraftEvent(ctx, NewDayEvent("Second", "", Red, at(6, 10, 0), at(6, 11, 0)))

		// then
		draft, found := store.DraftEvent()
		require.True(t, found)
		assert.Equal(t, second, draft)
		assert.NotEqual(t, first.Id, second.Id)
		assert.Empty(t, store.Events())
		assert.Equal(t, 0, repoStub.Saves)
	})

	t.Run("should clear the draft", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		store.AddDraftEvent(ctx, NewDayEvent("Draft", "", Blue, at(5, 10, 0), at(5, 11, 0)))

		// when
		store.RemoveDraftEvent(ctx)
		store.RemoveDraftEvent(ctx)

		// then
		_, found := store.DraftEvent()
		assert.False(t, found)
	})

	t.Run("should move the draft into the list on confirm", func(t *testing.T) {
		// given
		store, _ := setupStore(t)
		draft := store.AddDraftEvent(ctx, NewFullDayEvent("Draft", "", Pink, day(4), day(5)))

		// when
		id, err := store.ConfirmDraft(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, draft.Id, id)
		_, found := store.DraftEvent()
		assert.False(t, found)
		stored, found := store.GetEvent(id)
		require.True(t, found)
		assert.Equal(t, draft, stored)
		assert.Len(t, repoStub.Events, 1)
	})

	t.Run("should fail to confirm without a draft", func(t *testing.T) {
		store, _ := setupStore(t)

		_, err := store.ConfirmDraft(ctx)

		assert.ErrorIs(t, err, ErrNoDraft)
	})

	t.Run("should publish draft changes", func(t *testing.T) {
		// given
		store, bus := setupStore(t)
		var published []bool
		event_bus.SubscribeTyped(bus, event_bus.DraftEventChangedType, func(e event_bus.EventT[event_bus.DraftEventChanged]) error {
			published = append(published, e.Data.Present)
			return nil
		})

		// when
		store.AddDraftEvent(ctx, NewDayEvent("Draft", "", Blue, at(5, 10, 0), at(5, 11, 0)))
		store.RemoveDraftEvent(ctx)

		// then
		assert.Equal(t, []bool{true, false}, published)
	})
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should load persisted events", func(t *testing.T) {
		// given
		t.Cleanup(repoStub.Cleanup)
		e := NewFullDayEvent("Trip", "", Green, day(4), day(6))
		e.Id = uuid.New()
		repoStub.Events = []Event{e}

		// when
		store, err := NewStore(ctx, repoStub, nil, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{e.Id}, ids(store.Events()))
	})

	t.Run("should return load failures", func(t *testing.T) {
		// given
		t.Cleanup(repoStub.Cleanup)
		loadErr := errors.New("permission denied")
		repoStub.LoadErr = loadErr

		// when
		store, err := NewStore(ctx, repoStub, nil, nil)

		// then
		assert.ErrorIs(t, err, loadErr)
		assert.Nil(t, store)
	})
}
