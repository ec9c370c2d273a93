package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated. Please run 'taskboard login' first")
	ErrDisposed         = errors.New("session service disposed")
)

// State is the observable auth state.
// Loading is true only until hydration has finished.
type State struct {
	Identity *Identity
	Loading  bool
}

// Authenticated reports whether an identity is present
func (s State) Authenticated() bool {
	return s.Identity != nil
}

// Service is the single source of truth for who is logged in. Create one per
// process with New, hydrate it once, and hand it to views by reference.
type Service struct {
	store  *Store
	logger zerolog.Logger

	mu          sync.RWMutex
	identity    *Identity
	token       string
	loading     bool
	changed     bool // Login or Logout has run
	disposed    bool
	subscribers map[int]func(State)
	nextSubID   int

	hydrateOnce sync.Once
	ready       chan struct{}
}

// New creates a service in the loading state with no identity
func New(store *Store, logger zerolog.Logger) *Service {
	return &Service{
		store:       store,
		logger:      logger,
		loading:     true,
		subscribers: make(map[int]func(State)),
		ready:       make(chan struct{}),
	}
}

// Hydrate restores the session from the store. Only the first call does any
// work. Loading becomes false whether or not a session was found, and even if
// ctx is already done; in that case the stored session is ignored and ctx's
// error is returned.
func (s *Service) Hydrate(ctx context.Context) error {
	var err error
	s.hydrateOnce.Do(func() {
		snapshot := Snapshot{}
		if err = ctx.Err(); err == nil {
			snapshot = s.store.Read()
		}

		s.mu.Lock()
		// A login or logout that raced ahead of hydration wins
		if !s.changed && snapshot.Present() {
			s.identity = snapshot.Identity
			s.token = snapshot.Token
		}
		s.loading = false
		state := s.stateLocked()
		s.mu.Unlock()

		close(s.ready)

		s.logger.Debug().Bool("authenticated", state.Authenticated()).Msg("Session hydrated")
		s.notify(state)
	})
	return err
}

// Ready is closed once hydration has finished
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// State returns a copy of the current auth state
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Service) stateLocked() State {
	state := State{Loading: s.loading}
	if s.identity != nil {
		identity := *s.identity
		state.Identity = &identity
	}
	return state
}

// Login adopts an identity the caller already authenticated against the API
// and persists it. Subscribers have observed the new state when Login returns.
func (s *Service) Login(identity Identity, token string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}

	if err := s.store.Save(identity, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.identity = &identity
	s.token = token
	s.changed = true
	state := s.stateLocked()
	s.mu.Unlock()

	s.logger.Debug().Str("user_id", identity.ID).Msg("Logged in")
	s.notify(state)
	return nil
}

// Logout clears the identity in memory and in the store. Navigation afterwards
// is up to the caller.
func (s *Service) Logout() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}

	s.identity = nil
	s.token = ""
	s.changed = true
	state := s.stateLocked()
	err := s.store.Clear()
	s.mu.Unlock()

	s.logger.Debug().Msg("Logged out")
	s.notify(state)

	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Expire logs out after the API rejected the session token
func (s *Service) Expire() error {
	s.logger.Warn().Msg("Session rejected by the API, logging out")
	return s.Logout()
}

// AuthorizationHeader returns the value for the Authorization header of a
// protected request
func (s *Service) AuthorizationHeader() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil || s.token == "" {
		return "", ErrNotAuthenticated
	}
	return "Bearer " + s.token, nil
}

// Subscribe registers fn to be called after every state change. The returned
// function removes the subscription.
func (s *Service) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Service) notify(state State) {
	s.mu.RLock()
	subscribers := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

// Dispose ends the service lifetime. The stored session is left in place.
func (s *Service) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true
	s.subscribers = make(map[int]func(State))
}
