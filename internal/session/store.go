// Package session holds the process-wide authenticated-identity state.
//
// The store has a two-phase lifecycle: it starts loading with an unknown
// identity, resolves the persisted session exactly once, and from then on
// tracks the gateway's auth-change notifications. Screens never ask the
// gateway who is logged in; they observe this store.
package session

import (
	"context"
	"sync"

	"github.com/feedr/feedr/internal/gateway"
	"github.com/feedr/feedr/internal/models"
)

// Gateway is the auth surface the store depends on.
type Gateway interface {
	Session(ctx context.Context) (*models.Identity, error)
	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Signup(ctx context.Context, email, password string) (*models.Identity, error)
	CreateProfile(ctx context.Context, identity models.Identity) error
	Logout(ctx context.Context) error
	OnAuthChange(fn gateway.AuthChangeFunc) (unsubscribe func())
}

// State is a snapshot of the auth state.
type State struct {
	Loading  bool
	Identity *models.Identity
}

// Authenticated reports whether a resolved identity is present.
func (s State) Authenticated() bool {
	return !s.Loading && s.Identity != nil
}

// Store is the single source of truth for "who is logged in".
type Store struct {
	gw Gateway

	mu       sync.Mutex
	loading  bool
	identity *models.Identity
	subs     map[int]func(State)
	nextID   int

	initOnce  sync.Once
	closeOnce sync.Once
	unsub     func()
}

// NewStore creates a store in the loading phase.
func NewStore(gw Gateway) *Store {
	return &Store{gw: gw, loading: true, subs: make(map[int]func(State))}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Loading: s.loading, Identity: s.identity}
}

// Subscribe registers an observer invoked on every state change, and returns
// a function that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	state := State{Loading: s.loading, Identity: s.identity}
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Initialize resolves the persisted session exactly once and registers for
// auth-change notifications. Repeat calls are no-ops. The loading flag
// clears after the first resolution, whether an identity was found or not,
// and is never set again.
func (s *Store) Initialize(ctx context.Context) error {
	var err error
	s.initOnce.Do(func() {
		// Register before resolving so a login racing with startup is not
		// missed; onAuthChange overwrites identity unconditionally.
		s.unsub = s.gw.OnAuthChange(s.onAuthChange)

		var identity *models.Identity
		identity, err = s.gw.Session(ctx)

		s.mu.Lock()
		if identity != nil {
			s.identity = identity
		}
		s.loading = false
		s.mu.Unlock()
		s.notify()
	})
	return err
}

// onAuthChange overwrites the current identity on every gateway auth event.
// It never touches the loading flag; only the first Initialize resolution
// does that.
func (s *Store) onAuthChange(_ gateway.AuthEvent, identity *models.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	s.notify()
}

// Login authenticates with the gateway. The authoritative identity update
// arrives through the auth-change notification, not the return value.
func (s *Store) Login(ctx context.Context, email, password string) error {
	_, err := s.gw.Login(ctx, email, password)
	return err
}

// Signup creates an account, then provisions the profile record keyed by
// the new identity id. A profile failure surfaces as ProfileCreationError
// while the account itself remains signed in.
func (s *Store) Signup(ctx context.Context, email, password string) error {
	identity, err := s.gw.Signup(ctx, email, password)
	if err != nil {
		return err
	}
	return s.gw.CreateProfile(ctx, *identity)
}

// Logout revokes the session; the identity clears via the subsequent
// notification.
func (s *Store) Logout(ctx context.Context) error {
	return s.gw.Logout(ctx)
}

// Close unregisters the auth-change observer exactly once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsub != nil {
			s.unsub()
		}
	})
}
