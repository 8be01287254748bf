package renewerfake

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/token/refresh"
)

var _ refresh.Renewer = (*FakeRenewer)(nil)

// ErrRejected is what the fake returns for refresh tokens it was not told about.
var ErrRejected = errors.New("refresh token rejected")

// FakeRenewer maps refresh tokens to the pair they renew into. Each refresh token
// works once, the way a rotating server behaves.
type FakeRenewer struct {
	pairs   map[string]credentials.Pair
	calls   []string
	gate    chan struct{}
	started chan struct{}
	lock    sync.Mutex
}

func NewFakeRenewer() *FakeRenewer {
	return &FakeRenewer{
		pairs:   make(map[string]credentials.Pair),
		started: make(chan struct{}, 64),
	}
}

// Accept makes refreshToken renew into next.
func (f *FakeRenewer) Accept(refreshToken string, next credentials.Pair) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.pairs[refreshToken] = next
}

// Hold makes every renewal block until Release is called.
func (f *FakeRenewer) Hold() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.gate = make(chan struct{})
}

func (f *FakeRenewer) Release() {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Started receives once for every renewal that has begun.
func (f *FakeRenewer) Started() <-chan struct{} {
	return f.started
}

// Calls returns the refresh tokens presented so far.
func (f *FakeRenewer) Calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeRenewer) Renew(ctx context.Context, refreshToken string) (credentials.Pair, error) {
	f.lock.Lock()
	f.calls = append(f.calls, refreshToken)
	gate := f.gate
	f.lock.Unlock()

	f.started <- struct{}{}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return credentials.Pair{}, ctx.Err()
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	next, ok := f.pairs[refreshToken]
	if !ok {
		return credentials.Pair{}, ErrRejected
	}
	delete(f.pairs, refreshToken)
	return next, nil
}
