package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/klokku/kalendar/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Repository loads and saves the whole event list at once.
type Repository interface {
	// Load returns the stored events. A missing or malformed payload yields an
	// empty list; only storage failures are returned as errors.
	Load(ctx context.Context) ([]Event, error)
	Save(ctx context.Context, events []Event) error
}

type RepositoryImpl struct {
	kv  storage.KeyValueStore
	key string
}

func NewRepository(kv storage.KeyValueStore, key string) *RepositoryImpl {
	return &RepositoryImpl{kv: kv, key: key}
}

func (r *RepositoryImpl) Load(ctx context.Context) ([]Event, error) {
	data, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			log.Debugf("no stored events under %s", r.key)
			return []Event{}, nil
		}
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	events, err := DecodeEvents(data)
	if err != nil {
		log.Warnf("stored events under %s are malformed, starting with an empty list: %v", r.key, err)
		return []Event{}, nil
	}
	log.Debugf("loaded %d events from %s", len(events), r.key)
	return events, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, events []Event) error {
	data, err := EncodeEvents(events)
	if err != nil {
		return err
	}
	if err := r.kv.Put(ctx, r.key, data); err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}
	return nil
}
