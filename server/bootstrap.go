package server

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/agents"
	"github.com/jrsteele09/agent-console/apiclient"
	"github.com/jrsteele09/agent-console/auth"
	"github.com/jrsteele09/agent-console/calls"
	"github.com/jrsteele09/agent-console/catalog"
	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/gdpr"
	"github.com/jrsteele09/agent-console/internal/config"
	"github.com/jrsteele09/agent-console/internal/metrics"
	"github.com/jrsteele09/agent-console/phonenumbers"
	"github.com/jrsteele09/agent-console/sessions"
)

// Services is everything the console serves, wired around one session.
type Services struct {
	Session      *sessions.State
	Client       *apiclient.Authenticated
	Agents       *agents.API
	PhoneNumbers *phonenumbers.API
	Calls        *calls.API
	GDPR         *gdpr.API
	Catalog      *catalog.API
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
}

// Bootstrap builds the API client stack over backend and ties the session to it:
// a failed credential renewal ends the session. The session still has to be
// initialised by the caller.
func Bootstrap(cfg config.Config, backend credentials.Store) (*Services, error) {
	// One guard shared by the client and the session serializes every write.
	store := credentials.Guarded(backend)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	client, err := apiclient.New(cfg.GetAPIBaseURL(), cfg.GetAPIPrefix(),
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
		apiclient.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("[server Bootstrap] failed to create API client: %w", err)
	}

	authed := apiclient.NewAuthenticated(client, store, auth.NewRenewer(client),
		apiclient.WithRenewalTimeout(cfg.GetRenewalTimeout()),
		apiclient.WithAuthMetrics(m),
	)

	// The console has no browser to move; the next guarded page load redirects instead.
	nav := sessions.NavigatorFunc(func(path string) {
		log.Info().Str("path", path).Msg("Session ended, sign in required")
	})
	session := sessions.New(store, auth.New(client, authed), nav)
	authed.OnSessionExpired(session.Expire)

	log.Info().Str("api", client.BaseURL()).Msg("API client ready")

	return &Services{
		Session:      session,
		Client:       authed,
		Agents:       agents.New(authed),
		PhoneNumbers: phonenumbers.New(authed),
		Calls:        calls.New(authed),
		GDPR:         gdpr.New(authed),
		Catalog:      catalog.New(authed),
		Metrics:      m,
		Gatherer:     registry,
	}, nil
}
