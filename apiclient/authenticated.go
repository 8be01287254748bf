package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/internal/errors"
	"github.com/jrsteele09/agent-console/internal/metrics"
	"github.com/jrsteele09/agent-console/token/refresh"
)

// maxReplays caps how often one call is resent after a renewal.
const maxReplays = 1

var _ Requester = (*Authenticated)(nil)

// Authenticated sends requests with the stored access credential and renews it
// when the server answers 401.
type Authenticated struct {
	client      *Client
	store       credentials.Store
	coordinator *refresh.Coordinator
	metrics     *metrics.Metrics

	listenersLock sync.RWMutex
	listeners     map[int]func(error)
	nextListener  int
}

type authOptions struct {
	renewalTimeout time.Duration
	metrics        *metrics.Metrics
}

type AuthOption func(*authOptions)

// WithRenewalTimeout bounds each renewal call.
func WithRenewalTimeout(d time.Duration) AuthOption {
	return func(o *authOptions) {
		o.renewalTimeout = d
	}
}

func WithAuthMetrics(m *metrics.Metrics) AuthOption {
	return func(o *authOptions) {
		o.metrics = m
	}
}

// NewAuthenticated wraps client. renewer performs the renewal call and must not
// itself go through an Authenticated client. store should be shared with the
// session as a credentials.Swapper so renewals cannot race a logout or login.
func NewAuthenticated(client *Client, store credentials.Store, renewer refresh.Renewer, opts ...AuthOption) *Authenticated {
	o := authOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	guarded := credentials.Guarded(store)
	a := &Authenticated{
		client:    client,
		store:     guarded,
		metrics:   o.metrics,
		listeners: make(map[int]func(error)),
	}
	a.coordinator = refresh.NewCoordinator(renewer, guarded,
		refresh.WithTimeout(o.renewalTimeout),
		refresh.WithMetrics(o.metrics),
		refresh.WithFailureHook(a.sessionExpired),
	)
	return a
}

func (a *Authenticated) NewRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	return a.client.NewRequest(ctx, method, path, body)
}

// OnSessionExpired registers fn to be told when a renewal fails and the session
// has been torn down. It is called once per failed renewal. The returned func
// removes the registration.
func (a *Authenticated) OnSessionExpired(fn func(error)) func() {
	a.listenersLock.Lock()
	defer a.listenersLock.Unlock()

	id := a.nextListener
	a.nextListener++
	a.listeners[id] = fn
	return func() {
		a.listenersLock.Lock()
		defer a.listenersLock.Unlock()
		delete(a.listeners, id)
	}
}

func (a *Authenticated) sessionExpired(err error) {
	a.metrics.IncForcedLogouts()

	a.listenersLock.RLock()
	listeners := make([]func(error), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.listenersLock.RUnlock()

	for _, fn := range listeners {
		fn(err)
	}
}

// Send dispatches req with the current access credential.
//
// A 401 triggers one renewal (shared with any concurrent callers) and one replay
// of req with the new credential; the replay's response is returned as is, even
// if it is another 401. When the renewal fails the session has been cleared and
// Send returns ErrSessionExpired. Every other response or transport error is
// returned unchanged.
func (a *Authenticated) Send(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	pair, _ := a.store.Load()
	access := pair.AccessToken

	for attempt := 0; ; attempt++ {
		out, err := authorize(req, access)
		if err != nil {
			return nil, err
		}
		resp, err := a.client.Do(out)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized || attempt >= maxReplays {
			return resp, nil
		}

		a.metrics.IncUnauthorized()
		if !replayable(req) {
			log.Warn().Str("path", req.URL.Path).Msg("401 on a request whose body cannot be replayed")
			return resp, nil
		}
		if access == "" {
			// Sent anonymously; only worth a retry if a login happened meanwhile.
			if _, ok := a.store.Load(); !ok {
				return resp, nil
			}
		}
		discard(resp)

		fresh, err := a.coordinator.Refresh(ctx, access)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s %s: %w", errors.ErrTransport, req.Method, req.URL.Path, err)
			}
			return nil, fmt.Errorf("%w: %w", errors.ErrSessionExpired, err)
		}
		access = fresh.AccessToken
		a.metrics.IncReplays()
	}
}

// authorize returns a copy of req carrying access as its bearer credential, or no
// Authorization header at all when access is empty.
func authorize(req *http.Request, access string) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("[apiclient authorize] rewind body: %w", err)
		}
		out.Body = body
	}
	out.Header.Del("Authorization")
	if access != "" {
		credentials.Pair{AccessToken: access}.Token().SetAuthHeader(out)
	}
	return out, nil
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
