// Package sessions tracks who the console is signed in as.
//
// A State is created once by the composition root and shared with everything
// that needs to know the current user. It moves from Uninitialized through
// Initializing to either Authenticated or Anonymous, and back and forth between
// those two on login, logout and session expiry.
package sessions

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/internal/errors"
	"github.com/jrsteele09/agent-console/users"
)

// LoginPath is where the operator is sent when the session ends.
const LoginPath = "/login"

type Status int

const (
	StatusUninitialized Status = iota
	StatusInitializing
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInitializing:
		return "initializing"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Status       Status      `json:"status"`
	User         *users.User `json:"user"`
	Initializing bool        `json:"initializing"`
}

// Authenticator is the remote API surface the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (credentials.Pair, error)
	Register(ctx context.Context, reg users.Registration) (credentials.Pair, error)
	Me(ctx context.Context) (*users.User, error)
}

// Navigator moves the operator to another page.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// State is the single session of the console.
//
// Every change of who owns the stored credentials (login, registration, logout,
// expiry) starts a new generation. Work that began in an older generation, such
// as the startup identity lookup, does not apply its result.
type State struct {
	store credentials.Swapper
	auth  Authenticator
	nav   Navigator

	initOnce sync.Once

	lock   sync.RWMutex
	status Status
	user   *users.User
	gen    uint64

	subsLock sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int
}

// New creates an uninitialized session. nav may be nil. store must be the same
// credentials.Swapper the authenticated client renews through.
func New(store credentials.Store, auth Authenticator, nav Navigator) *State {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &State{
		store: credentials.Guarded(store),
		auth:  auth,
		nav:   nav,
		subs:  make(map[int]func(Snapshot)),
	}
}

// Initialize restores the session from the stored credentials. It runs once;
// later calls return immediately. Whatever happens, the session is no longer
// initializing when it returns.
func (s *State) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.initialize(ctx)
	})
}

func (s *State) initialize(ctx context.Context) {
	gen := s.setInitializing()

	status, user, wipe := StatusAnonymous, (*users.User)(nil), false
	defer func() {
		if !s.setIfCurrent(gen, status, user, wipe) {
			log.Debug().Msg("Session changed during initialization, keeping the newer state")
		}
	}()

	if _, ok := s.store.Load(); !ok {
		log.Debug().Msg("No stored credentials, starting anonymous")
		return
	}

	u, err := s.auth.Me(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Stored credentials could not be used, starting anonymous")
		wipe = true
		return
	}
	status, user = StatusAuthenticated, u
	log.Info().Str("email", u.Email).Msg("Session restored")
}

// Login signs in with email and password. On failure the session is unchanged.
func (s *State) Login(ctx context.Context, email, password string) (*users.User, error) {
	pair, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, pair)
}

// Register creates an account and signs in with it. Missing consents are rejected
// before anything is sent.
func (s *State) Register(ctx context.Context, reg users.Registration) (*users.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	pair, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, pair)
}

func (s *State) establish(ctx context.Context, pair credentials.Pair) (*users.User, error) {
	s.lock.Lock()
	s.gen++
	gen := s.gen
	err := s.store.Save(pair)
	s.lock.Unlock()
	if err != nil {
		return nil, err
	}

	user, err := s.auth.Me(ctx)
	if err != nil {
		s.setIfCurrent(gen, StatusAnonymous, nil, true)
		return nil, err
	}
	if !s.setIfCurrent(gen, StatusAuthenticated, user, false) {
		return nil, fmt.Errorf("%w: session changed while signing in", errors.ErrSessionExpired)
	}
	log.Info().Str("email", user.Email).Msg("Signed in")
	return user, nil
}

// Logout forgets the credentials and sends the operator to the login page. A
// renewal still in flight is dropped when it settles.
func (s *State) Logout() {
	s.set(StatusAnonymous, nil, true)
	log.Info().Msg("Signed out")
	s.nav.Navigate(LoginPath)
}

// Expire ends the session after an unrecoverable credential renewal. The
// credentials have already been cleared by the time it is called; if a new pair
// was stored since, it belongs to a newer login and the session is kept.
func (s *State) Expire(cause error) {
	s.lock.Lock()
	if _, ok := s.store.Load(); ok {
		s.lock.Unlock()
		log.Info().Err(cause).Msg("Renewal failed for an older session, keeping the current one")
		return
	}
	s.gen++
	snap := s.applyLocked(StatusAnonymous, nil)
	s.lock.Unlock()
	s.notify(snap)

	log.Warn().Err(cause).Msg("Session expired")
	s.nav.Navigate(LoginPath)
}

func (s *State) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Status:       s.status,
		User:         s.user,
		Initializing: s.status == StatusUninitialized || s.status == StatusInitializing,
	}
}

// User returns the signed in user, or nil.
func (s *State) User() *users.User {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user
}

func (s *State) Initializing() bool {
	return s.Snapshot().Initializing
}

// Subscribe calls fn with every new snapshot until the returned cancel func is called.
func (s *State) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsLock.Lock()
		defer s.subsLock.Unlock()
		delete(s.subs, id)
	}
}

// set starts a new generation with status and user, clearing the store first
// when wipe is set.
func (s *State) set(status Status, user *users.User, wipe bool) {
	s.lock.Lock()
	s.gen++
	if wipe {
		s.clearStoreLocked()
	}
	snap := s.applyLocked(status, user)
	s.lock.Unlock()
	s.notify(snap)
}

// setInitializing marks the session as initializing without starting a new
// generation, and returns the generation initialization runs in.
func (s *State) setInitializing() uint64 {
	s.lock.Lock()
	gen := s.gen
	snap := s.applyLocked(StatusInitializing, nil)
	s.lock.Unlock()
	s.notify(snap)
	return gen
}

// setIfCurrent applies status and user only if no other change happened since
// gen. It reports whether it did.
func (s *State) setIfCurrent(gen uint64, status Status, user *users.User, wipe bool) bool {
	s.lock.Lock()
	if s.gen != gen {
		s.lock.Unlock()
		return false
	}
	if wipe {
		s.clearStoreLocked()
	}
	snap := s.applyLocked(status, user)
	s.lock.Unlock()
	s.notify(snap)
	return true
}

func (s *State) applyLocked(status Status, user *users.User) Snapshot {
	s.status = status
	s.user = user
	return s.snapshotLocked()
}

func (s *State) notify(snap Snapshot) {
	s.subsLock.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsLock.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *State) clearStoreLocked() {
	if err := s.store.Clear(); err != nil {
		log.Err(err).Msg("Failed to clear stored credentials")
	}
}
