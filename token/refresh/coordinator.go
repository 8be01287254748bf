package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/internal/metrics"
)

var (
	// ErrNoCredentials is returned when there is nothing stored to renew.
	ErrNoCredentials = errors.New("no stored credentials to renew")
	// ErrSuperseded is returned when a logout or a new login replaced the
	// credentials while they were being renewed. The result is dropped.
	ErrSuperseded = errors.New("credentials replaced during renewal")
)

// flightKey is global: a process owns exactly one session.
const flightKey = "renewal"

const defaultRenewalTimeout = 15 * time.Second

// FailureHook is told about a failed renewal after the store has been cleared.
// It runs once per failed renewal no matter how many callers were waiting, and
// not at all when the renewed credentials had already been replaced.
type FailureHook func(err error)

// Coordinator makes sure that concurrent callers who discover an expired access
// credential share one renewal call instead of each issuing their own.
type Coordinator struct {
	renewer   Renewer
	store     credentials.Swapper
	timeout   time.Duration
	metrics   *metrics.Metrics
	onFailure FailureHook
	group     singleflight.Group
}

type Option func(*Coordinator)

// WithTimeout bounds each renewal call.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithFailureHook registers the teardown callback for failed renewals.
func WithFailureHook(h FailureHook) Option {
	return func(c *Coordinator) {
		c.onFailure = h
	}
}

// NewCoordinator creates a renewal coordinator over store. Whatever else writes
// the credentials must go through the same credentials.Swapper.
func NewCoordinator(renewer Renewer, store credentials.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		renewer: renewer,
		store:   credentials.Guarded(store),
		timeout: defaultRenewalTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh returns a credential pair newer than staleAccess, the access credential
// the caller was rejected with.
//
// If the store already holds a different access credential, another caller has
// renewed in the meantime and the stored pair is returned without a network call.
// Otherwise the caller joins the in-flight renewal or starts one. A caller whose
// ctx ends stops waiting but does not cancel the shared renewal.
func (c *Coordinator) Refresh(ctx context.Context, staleAccess string) (credentials.Pair, error) {
	if current, ok, renewed := c.alreadyRenewed(staleAccess); !ok {
		return credentials.Pair{}, ErrNoCredentials
	} else if renewed {
		return current, nil
	}

	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		return c.renew(ctx, staleAccess)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.IncRenewalShares()
		}
		if res.Err != nil {
			return credentials.Pair{}, res.Err
		}
		return res.Val.(credentials.Pair), nil
	case <-ctx.Done():
		return credentials.Pair{}, ctx.Err()
	}
}

func (c *Coordinator) alreadyRenewed(staleAccess string) (credentials.Pair, bool, bool) {
	current, ok := c.store.Load()
	if !ok {
		return credentials.Pair{}, false, false
	}
	return current, true, current.AccessToken != staleAccess
}

// renew runs inside the flight; only one instance executes at a time.
func (c *Coordinator) renew(ctx context.Context, staleAccess string) (credentials.Pair, error) {
	current, ok, renewed := c.alreadyRenewed(staleAccess)
	if !ok {
		return credentials.Pair{}, ErrNoCredentials
	}
	if renewed {
		return current, nil
	}

	renewCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	pair, err := c.renewer.Renew(renewCtx, current.RefreshToken)
	if err == nil && !pair.Valid() {
		err = fmt.Errorf("renewal returned an incomplete credential pair")
	}
	if err != nil {
		c.metrics.IncRenewals(metrics.OutcomeFailure)
		cleared, clearErr := c.store.CompareAndClear(current)
		if clearErr != nil {
			log.Err(clearErr).Msg("Failed to clear credential store after renewal failure")
		}
		if !cleared {
			log.Info().Err(err).Msg("Renewal failed for credentials that were already replaced")
			return credentials.Pair{}, fmt.Errorf("%w: %w", ErrSuperseded, err)
		}
		log.Warn().Err(err).Msg("Credential renewal failed, session cleared")
		if c.onFailure != nil {
			c.onFailure(err)
		}
		return credentials.Pair{}, err
	}

	c.metrics.IncRenewals(metrics.OutcomeSuccess)
	swapped, err := c.store.CompareAndSave(current, pair)
	if !swapped {
		log.Info().Msg("Dropping renewed credentials, the session changed during renewal")
		return credentials.Pair{}, ErrSuperseded
	}
	if err != nil {
		// The store keeps serving the new pair from memory; the old refresh
		// credential is spent, so it must not come back.
		log.Err(err).Msg("Failed to persist renewed credentials")
	}
	log.Debug().Msg("Credentials renewed")
	return pair, nil
}
