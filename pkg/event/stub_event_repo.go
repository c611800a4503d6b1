package event

import (
	"context"
)

type StubRepository struct {
	Events  []Event
	Saves   int
	LoadErr error
	SaveErr error
}

func (s *StubRepository) Load(ctx context.Context) ([]Event, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	events := make([]Event, 0, len(s.Events))
	for _, e := range s.Events {
		events = append(events, e.Clone())
	}
	return events, nil
}

func (s *StubRepository) Save(ctx context.Context, events []Event) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Events = make([]Event, 0, len(events))
	for _, e := range events {
		s.Events = append(s.Events, e.Clone())
	}
	s.Saves++
	return nil
}

func (s *StubRepository) Cleanup() {
	s.Events = nil
	s.Saves = 0
	s.LoadErr = nil
	s.SaveErr = nil
}
