package cart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrCorrupt is returned by a Storage whose persisted cart cannot be decoded.
var ErrCorrupt = errors.New("cart: persisted data is corrupt")

// Storage persists cart lines between runs.
type Storage interface {
	Load() ([]Line, error)
	Save(lines []Line) error
}

// Store owns the current cart state. Every Dispatch persists the new state
// and notifies subscribers.
type Store struct {
	mu      sync.Mutex
	state   State
	storage Storage
	subs    map[int]func(State)
	nextSub int
	log     *logrus.Logger
}

// NewStore hydrates from storage once. Corrupt data is cleared and the
// store starts empty.
func NewStore(storage Storage, logger *logrus.Logger) (*Store, error) {
	s := &Store{storage: storage, subs: map[int]func(State){}, log: logger}

	lines, err := storage.Load()
	switch {
	case errors.Is(err, ErrCorrupt):
		logger.Warnf("Cart: Discarding unreadable cart: %v", err)
		if err := storage.Save(nil); err != nil {
			return nil, fmt.Errorf("clear corrupt cart: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load cart: %w", err)
	default:
		s.state = Reduce(State{}, Load{Lines: lines})
	}
	logger.Debugf("Cart: Hydrated with %d lines", len(s.state.Lines))
	return s, nil
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies a and persists the result. The in-memory state advances
// even when saving fails; the save error is returned.
func (s *Store) Dispatch(a Action) (State, error) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	err := s.storage.Save(next.Lines)
	s.mu.Unlock()

	if err != nil {
		s.log.Errorf("Cart: Failed to persist cart after %T: %v", a, err)
		err = fmt.Errorf("save cart: %w", err)
	}
	for _, fn := range subs {
		fn(next.clone())
	}
	return next, err
}

// Subscribe registers fn to receive every new state. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
