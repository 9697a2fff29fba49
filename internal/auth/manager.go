// Package auth owns the bearer token used for authenticated calls to the
// pinning API.
//
// The Manager fetches the token lazily from the session service and caches
// it until Invalidate or Logout. Concurrent callers that find the cache empty
// share a single outbound session request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrAuthRequired reports that no usable token could be obtained.
var ErrAuthRequired = errors.New("authentication required")

// Session mirrors the session service payload.
type Session struct {
	Valid bool   `json:"valid"`
	Token string `json:"token"`
}

// SessionFetcher talks to the session service.
type SessionFetcher interface {
	FetchSession(ctx context.Context) (Session, error)
	EndSession(ctx context.Context) error
}

// Options configure a Manager.
type Options struct {
	// FetchTimeout bounds the shared session request. Zero uses 10s.
	FetchTimeout time.Duration
	Logger       zerolog.Logger
	// OnFetched runs after every successful session fetch.
	OnFetched func()
}

const (
	defaultFetchTimeout = 10 * time.Second
	flightKey           = "session"
)

// Manager caches the bearer token and coalesces session fetches.
type Manager struct {
	fetcher   SessionFetcher
	timeout   time.Duration
	log       zerolog.Logger
	onFetched func()

	group singleflight.Group

	mu    sync.Mutex
	token string
	gen   uint64
}

// NewManager builds a Manager around the session service.
func NewManager(fetcher SessionFetcher, opts Options) *Manager {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Manager{
		fetcher:   fetcher,
		timeout:   timeout,
		log:       opts.Logger,
		onFetched: opts.OnFetched,
	}
}

// Token returns the cached token or joins the single in-flight fetch.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if m == nil || m.fetcher == nil {
		return "", ErrAuthRequired
	}

	m.mu.Lock()
	if m.token != "" {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	gen := m.gen
	m.mu.Unlock()

	ch := m.group.DoChan(flightKey, func() (any, error) {
		return m.fetch(ctx, gen)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Cached reports whether a token is currently held.
func (m *Manager) Cached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// Invalidate drops the cached token. A fetch already in flight is not allowed
// to repopulate the cache.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.gen++
	m.mu.Unlock()
	m.group.Forget(flightKey)
}

// Logout invalidates the token and ends the remote session.
func (m *Manager) Logout(ctx context.Context) error {
	m.Invalidate()
	if err := m.fetcher.EndSession(ctx); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (m *Manager) fetch(parent context.Context, gen uint64) (string, error) {
	// The fetch is shared, so one caller cancelling must not fail the rest.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), m.timeout)
	defer cancel()

	session, err := m.fetcher.FetchSession(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("session fetch failed")
		return "", fmt.Errorf("%w: %w", ErrAuthRequired, err)
	}
	token := strings.TrimSpace(session.Token)
	if !session.Valid || token == "" {
		m.log.Info().Bool("valid", session.Valid).Msg("session has no usable token")
		return "", ErrAuthRequired
	}

	m.mu.Lock()
	if m.gen == gen {
		m.token = token
	}
	m.mu.Unlock()

	m.log.Debug().Msg("session token fetched")
	if m.onFetched != nil {
		m.onFetched()
	}
	return token, nil
}
