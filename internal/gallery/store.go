package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/pinwall/internal/pinning"
)

// Lister fetches the authoritative list of pinned content.
type Lister interface {
	ListPins(ctx context.Context) ([]pinning.PinnedFile, error)
}

// Options configure a Store.
type Options struct {
	Logger zerolog.Logger
	Now    func() time.Time
}

// Store owns the gallery state. All mutations go through Dispatch, which
// applies Reduce under the write lock and publishes the result to
// subscribers.
type Store struct {
	lister Lister
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
	subs  map[chan State]struct{}
}

// NewStore builds an empty Store backed by lister.
func NewStore(lister Lister, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		lister: lister,
		log:    opts.Logger,
		now:    now,
		state:  Empty(),
		subs:   make(map[chan State]struct{}),
	}
}

// Dispatch applies e and returns the resulting state.
func (s *Store) Dispatch(e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, e)
	snap := s.state.Clone()
	for ch := range s.subs {
		publish(ch, snap)
	}
	return snap
}

// Refresh fetches the remote list and replaces the visible items with it,
// minus every tombstone present when the response is applied. A response
// that lands after a logout is discarded.
func (s *Store) Refresh(ctx context.Context) error {
	if s.lister == nil {
		return fmt.Errorf("store has no lister")
	}
	session := s.Dispatch(RefreshStarted{}).Session

	files, err := s.lister.ListPins(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.Dispatch(RefreshCanceled{})
			return err
		}
		s.log.Warn().Err(err).Msg("gallery refresh failed")
		s.Dispatch(RefreshFailed{Err: err, Session: session})
		return err
	}

	next := s.Dispatch(Refreshed{Files: files, At: s.now(), Session: session})
	if next.Session != session {
		s.log.Debug().Int("fetched", len(files)).Msg("discarding list from an ended session")
		return nil
	}
	if dropped := len(files) - len(next.Items); dropped > 0 {
		s.log.Debug().Int("fetched", len(files)).Int("dropped", dropped).Msg("refresh filtered tombstoned entries")
	}
	return nil
}

// RecordDeletion tombstones id and removes it from the visible items.
func (s *Store) RecordDeletion(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	s.Dispatch(DeleteSucceeded{ContentID: id})
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe returns a channel that always holds the latest state. Older
// states are dropped when the reader falls behind. The channel is closed
// when ctx ends.
func (s *Store) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- s.state.Clone()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

func publish(ch chan State, snap State) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
