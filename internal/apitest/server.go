// Package apitest runs an in-process fake of the remote console API for tests.
//
// It implements the authentication endpoints for real (bcrypt password checks,
// JWT access credentials, rotating single-use refresh credentials) and lets a
// test register any further protected handlers. Tests can seed or expire
// credentials, queue the next renewal result, count renewal calls and hold
// renewals open to force concurrent 401s.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/users"
)

const Prefix = "/api/v1"

type account struct {
	user         users.User
	passwordHash string
}

// Server is the fake remote API.
type Server struct {
	*httptest.Server

	mux    *http.ServeMux
	secret []byte

	lock     sync.Mutex
	accounts map[int64]*account
	byEmail  map[string]int64
	nextID   int64
	access   map[string]int64 // live access credential -> user id
	refresh  map[string]int64 // unused refresh credential -> user id
	queued   []credentials.Pair
	hold     chan struct{}
	seen     []string

	refreshCalls atomic.Int32
	rejections   atomic.Int32
	started      chan struct{}
}

// New starts a fake API and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		mux:      http.NewServeMux(),
		secret:   []byte("apitest-signing-secret"),
		accounts: make(map[int64]*account),
		byEmail:  make(map[string]int64),
		access:   make(map[string]int64),
		refresh:  make(map[string]int64),
		started:  make(chan struct{}, 64),
	}
	s.mux.HandleFunc("POST "+Prefix+"/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST "+Prefix+"/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST "+Prefix+"/auth/refresh", s.handleRefresh)
	s.Handle("GET /auth/me", s.handleMe)

	s.Server = httptest.NewServer(s.mux)
	t.Cleanup(s.Close)
	return s
}

// Handle registers a handler that requires a live access credential. pattern is
// "METHOD /path" relative to the API prefix.
func (s *Server) Handle(pattern string, handler http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	s.mux.HandleFunc(method+" "+Prefix+path, s.protect(handler))
}

// HandlePublic registers a handler that needs no credential.
func (s *Server) HandlePublic(pattern string, handler http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	s.mux.HandleFunc(method+" "+Prefix+path, handler)
}

// AddUser creates an account with all consents given and returns its id.
func (s *Server) AddUser(email, password string) int64 {
	hash, err := hashPassword(password)
	if err != nil {
		panic(err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.addUserLocked(users.Registration{
		Email:                 email,
		DataProcessingConsent: true,
		TermsAccepted:         true,
		PrivacyPolicyAccepted: true,
	}, hash)
}

func (s *Server) addUserLocked(reg users.Registration, hash string) int64 {
	s.nextID++
	now := time.Now().UTC().Truncate(time.Second)
	s.accounts[s.nextID] = &account{
		user: users.User{
			ID:                    s.nextID,
			Email:                 reg.Email,
			CreatedAt:             now,
			ConsentTimestamp:      &now,
			DataProcessingConsent: reg.DataProcessingConsent,
			TermsAccepted:         reg.TermsAccepted,
			PrivacyPolicyAccepted: reg.PrivacyPolicyAccepted,
		},
		passwordHash: hash,
	}
	s.byEmail[reg.Email] = s.nextID
	return s.nextID
}

// IssueAccess makes token a live access credential for userID.
func (s *Server) IssueAccess(token string, userID int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.access[token] = userID
}

// IssueRefresh makes token a usable refresh credential for userID.
func (s *Server) IssueRefresh(token string, userID int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refresh[token] = userID
}

// IssuePair issues both halves of pair for userID.
func (s *Server) IssuePair(pair credentials.Pair, userID int64) {
	s.IssueAccess(pair.AccessToken, userID)
	s.IssueRefresh(pair.RefreshToken, userID)
}

// ExpireAccess makes token answer 401 from now on.
func (s *Server) ExpireAccess(token string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.access, token)
}

// RevokeRefresh makes a renewal with token fail.
func (s *Server) RevokeRefresh(token string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.refresh, token)
}

// QueuePair makes the next successful renewal return pair instead of a minted one.
func (s *Server) QueuePair(pair credentials.Pair) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.queued = append(s.queued, pair)
}

// HoldRefresh blocks renewal requests until the returned release func is called.
func (s *Server) HoldRefresh() (release func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	gate := make(chan struct{})
	s.hold = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			s.lock.Lock()
			if s.hold == gate {
				s.hold = nil
			}
			s.lock.Unlock()
			close(gate)
		})
	}
}

// RefreshStarted receives once per renewal request that reached the server.
func (s *Server) RefreshStarted() <-chan struct{} {
	return s.started
}

// RefreshCalls is the number of renewal requests received.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// Rejections is the number of 401s returned by protected handlers.
func (s *Server) Rejections() int {
	return int(s.rejections.Load())
}

// SeenAuthorization returns the Authorization header of every protected request
// in arrival order ("" when none was sent).
func (s *Server) SeenAuthorization() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.seen...)
}

// APIURL is the base URL without the prefix.
func (s *Server) APIURL() string {
	return s.URL
}

type ctxKey struct{}

// UserID returns the id of the caller inside a protected handler.
func UserID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxKey{}).(int64)
	return id
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes an error body in the API's {"detail": ...} shape.
func WriteDetail(w http.ResponseWriter, status int, detail interface{}) {
	WriteJSON(w, status, map[string]interface{}{"detail": detail})
}
