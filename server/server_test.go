package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/agent-console/agents"
	"github.com/jrsteele09/agent-console/credentials/memstore"
	"github.com/jrsteele09/agent-console/internal/apitest"
	"github.com/jrsteele09/agent-console/internal/config"
	"github.com/jrsteele09/agent-console/server"
	"github.com/jrsteele09/agent-console/sessions"
)

const (
	testEmail    = "ops@example.com"
	testPassword = "Secret123"
)

type testFixture struct {
	api      *apitest.Server
	store    *memstore.MemStore
	services *server.Services
	handler  *server.Server
	userID   int64
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := apitest.New(t)
	t.Setenv("API_URL", api.APIURL())
	t.Setenv("API_PREFIX", apitest.Prefix)
	t.Setenv("ENV", "TEST")

	store := memstore.New()
	services, err := server.Bootstrap(config.New(), store)
	require.NoError(t, err)
	handler, err := server.New(config.New(), services)
	require.NoError(t, err)

	return &testFixture{
		api:      api,
		store:    store,
		services: services,
		handler:  handler,
		userID:   api.AddUser(testEmail, testPassword),
	}
}

func (f *testFixture) do(method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	return f.do(http.MethodPost, target, strings.NewReader(form.Encode()), http.Header{
		"Content-Type": {"application/x-www-form-urlencoded"},
	})
}

func (f *testFixture) signIn(t *testing.T) {
	t.Helper()
	f.services.Session.Initialize(context.Background())
	rec := f.postForm(server.RouteAuthLogin, url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestGuard(t *testing.T) {
	t.Run("loading placeholder while the session initializes", func(t *testing.T) {
		f := setupTestFixture(t)

		rec := f.do(http.MethodGet, "/", nil, nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "1", rec.Header().Get("Retry-After"))
		require.Contains(t, rec.Body.String(), "Loading")

		rec = f.do(http.MethodGet, server.RouteConsoleAgents, nil, nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("anonymous pages redirect to login", func(t *testing.T) {
		f := setupTestFixture(t)
		f.services.Session.Initialize(context.Background())

		rec := f.do(http.MethodGet, "/", nil, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, server.RouteLogin, rec.Header().Get("Location"))

		rec = f.do(http.MethodGet, "/", nil, http.Header{"Hx-Request": {"true"}})
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, server.RouteLogin, rec.Header().Get("HX-Redirect"))
	})

	t.Run("anonymous console calls get 401", func(t *testing.T) {
		f := setupTestFixture(t)
		f.services.Session.Initialize(context.Background())

		rec := f.do(http.MethodGet, server.RouteConsoleAgents, nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, server.RouteLogin, rec.Header().Get("HX-Redirect"))
	})

	t.Run("signed in user sees the console", func(t *testing.T) {
		f := setupTestFixture(t)
		f.signIn(t)

		rec := f.do(http.MethodGet, "/", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), testEmail)
	})
}

func TestSessionFlow(t *testing.T) {
	t.Run("login, session state and logout", func(t *testing.T) {
		f := setupTestFixture(t)
		f.signIn(t)

		_, ok := f.store.Load()
		require.True(t, ok)

		rec := f.do(http.MethodGet, server.RouteAPISession, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var snap struct {
			Status string `json:"status"`
			User   struct {
				Email string `json:"email"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		require.Equal(t, "authenticated", snap.Status)
		require.Equal(t, testEmail, snap.User.Email)

		rec = f.do(http.MethodGet, server.RouteLogin, nil, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))

		rec = f.postForm(server.RouteAuthLogout, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, server.RouteLogin, rec.Header().Get("Location"))

		_, ok = f.store.Load()
		require.False(t, ok)
		require.Equal(t, sessions.StatusAnonymous, f.services.Session.Snapshot().Status)
	})

	t.Run("wrong password returns to the form with an error", func(t *testing.T) {
		f := setupTestFixture(t)
		f.services.Session.Initialize(context.Background())

		rec := f.postForm(server.RouteAuthLogin, url.Values{"email": {testEmail}, "password": {"nope"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, server.RouteLogin, loc.Path)
		require.Equal(t, "Invalid email or password", loc.Query().Get("error"))
		require.Equal(t, testEmail, loc.Query().Get("email"))

		page := f.do(http.MethodGet, loc.String(), nil, nil)
		require.Equal(t, http.StatusOK, page.Code)
		require.Contains(t, page.Body.String(), "Invalid email or password")
	})

	t.Run("registration without consent is refused", func(t *testing.T) {
		f := setupTestFixture(t)
		f.services.Session.Initialize(context.Background())

		rec := f.postForm(server.RouteAuthRegister, url.Values{
			"email":                   {"new@example.com"},
			"password":                {"Secret123"},
			"confirm_password":        {"Secret123"},
			"data_processing_consent": {"on"},
			"terms_accepted":          {"on"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, server.RouteRegister, loc.Path)
		require.Equal(t, "You must accept all consents to register", loc.Query().Get("error"))
	})

	t.Run("registration signs the new account in", func(t *testing.T) {
		f := setupTestFixture(t)
		f.services.Session.Initialize(context.Background())

		rec := f.postForm(server.RouteAuthRegister, url.Values{
			"email":                   {"new@example.com"},
			"password":                {"Secret123"},
			"confirm_password":        {"Secret123"},
			"data_processing_consent": {"on"},
			"terms_accepted":          {"on"},
			"privacy_policy_accepted": {"on"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))
		require.Equal(t, "new@example.com", f.services.Session.User().Email)
	})
}

func TestConsoleProxy(t *testing.T) {
	t.Run("remote errors pass through with their detail", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.Handle("GET /agents/{id}", func(w http.ResponseWriter, r *http.Request) {
			apitest.WriteDetail(w, http.StatusNotFound, "Agent not found")
		})
		f.signIn(t)

		rec := f.do(http.MethodGet, "/console/agents/5", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Agent not found", decodeDetail(t, rec))
	})

	t.Run("empty lists encode as arrays", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.Handle("GET /agents/", func(w http.ResponseWriter, r *http.Request) {
			apitest.WriteJSON(w, http.StatusOK, []agents.Agent{})
		})
		f.signIn(t)

		rec := f.do(http.MethodGet, server.RouteConsoleAgents, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("invalid ids are rejected locally", func(t *testing.T) {
		f := setupTestFixture(t)
		f.signIn(t)

		rec := f.do(http.MethodGet, "/console/agents/abc", nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("incomplete agents are rejected before sending", func(t *testing.T) {
		f := setupTestFixture(t)
		var sent atomic.Bool
		f.api.Handle("POST /agents/", func(w http.ResponseWriter, r *http.Request) {
			sent.Store(true)
			apitest.WriteJSON(w, http.StatusCreated, agents.Agent{ID: 1})
		})
		f.signIn(t)

		rec := f.do(http.MethodPost, server.RouteConsoleAgents, strings.NewReader(`{"name":"Reception"}`), http.Header{
			"Content-Type": {"application/json"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, decodeDetail(t, rec), "system_prompt")
		require.False(t, sent.Load())
	})

	t.Run("unassigning a phone number sends an explicit null", func(t *testing.T) {
		f := setupTestFixture(t)
		bodies := make(chan map[string]interface{}, 1)
		f.api.Handle("PUT /phone-numbers/{id}", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			bodies <- body
			apitest.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": 3, "phone_number": "+4930123"})
		})
		f.signIn(t)

		rec := f.do(http.MethodPut, "/console/phone-numbers/3", strings.NewReader(`{"agent_id":null}`), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := <-bodies
		v, ok := body["agent_id"]
		require.True(t, ok)
		require.Nil(t, v)
	})

	t.Run("assigning a phone number forwards the agent id", func(t *testing.T) {
		f := setupTestFixture(t)
		bodies := make(chan map[string]interface{}, 1)
		f.api.Handle("PUT /phone-numbers/{id}", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			bodies <- body
			apitest.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": 3, "phone_number": "+4930123", "agent_id": 7})
		})
		f.signIn(t)

		rec := f.do(http.MethodPut, "/console/phone-numbers/3", strings.NewReader(`{"agent_id":7}`), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 7.0, (<-bodies)["agent_id"])

		rec = f.do(http.MethodPut, "/console/phone-numbers/3", strings.NewReader(`{"agent_id":"seven"}`), nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("failed renewal ends the session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.signIn(t)

		pair, ok := f.store.Load()
		require.True(t, ok)
		f.api.ExpireAccess(pair.AccessToken)
		f.api.RevokeRefresh(pair.RefreshToken)
		f.api.Handle("GET /agents/", func(w http.ResponseWriter, r *http.Request) {
			apitest.WriteJSON(w, http.StatusOK, []agents.Agent{})
		})

		rec := f.do(http.MethodGet, server.RouteConsoleAgents, nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, server.RouteLogin, rec.Header().Get("HX-Redirect"))

		_, ok = f.store.Load()
		require.False(t, ok)
		require.Nil(t, f.services.Session.User())

		rec = f.do(http.MethodGet, "/", nil, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t)

	rec := f.do(http.MethodGet, server.RouteMetrics, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "agent_console_api_requests_total")
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStaticAssets(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(http.MethodGet, "/static/console.css", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestLegalPages(t *testing.T) {
	t.Run("renders the remote text without a session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.HandlePublic("GET /gdpr/privacy-policy", func(w http.ResponseWriter, r *http.Request) {
			apitest.WriteJSON(w, http.StatusOK, map[string]string{"title": "Datenschutz", "content": "We keep call logs for 90 days."})
		})
		f.services.Session.Initialize(context.Background())

		rec := f.do(http.MethodGet, server.RouteLegalPrivacy, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Datenschutz")
		require.Contains(t, rec.Body.String(), "We keep call logs for 90 days.")
	})

	t.Run("remote failure renders an error page", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.HandlePublic("GET /gdpr/terms-of-service", func(w http.ResponseWriter, r *http.Request) {
			apitest.WriteDetail(w, http.StatusInternalServerError, "boom")
		})

		rec := f.do(http.MethodGet, server.RouteLegalTerms, nil, nil)
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Contains(t, rec.Body.String(), "unavailable")
	})
}

func TestExportDownload(t *testing.T) {
	f := setupTestFixture(t)
	f.api.Handle("GET /gdpr/export", func(w http.ResponseWriter, r *http.Request) {
		apitest.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": map[string]string{"email": testEmail}, "agents": []string{}})
	})
	f.signIn(t)

	rec := f.do(http.MethodGet, server.RouteConsoleExport, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	require.JSONEq(t, `{"user":{"email":"ops@example.com"},"agents":[]}`, rec.Body.String())
}
