package agents_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/agent-console/agents"
	"github.com/jrsteele09/agent-console/internal/apitest"
	"github.com/jrsteele09/agent-console/internal/errors"
	"github.com/jrsteele09/agent-console/internal/utils"
)

// fakeAgents is a minimal in-memory agents backend.
type fakeAgents struct {
	lock   sync.Mutex
	nextID int64
	byID   map[int64]agents.Agent
	bodies []map[string]interface{}
}

func (f *fakeAgents) register(api *apitest.Server) {
	api.Handle("GET /agents/", func(w http.ResponseWriter, r *http.Request) {
		f.lock.Lock()
		defer f.lock.Unlock()
		out := []agents.Agent{}
		for _, a := range f.byID {
			out = append(out, a)
		}
		apitest.WriteJSON(w, http.StatusOK, out)
	})
	api.Handle("POST /agents/", func(w http.ResponseWriter, r *http.Request) {
		var in agents.AgentCreate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			apitest.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		f.lock.Lock()
		defer f.lock.Unlock()
		f.nextID++
		now := time.Now().UTC()
		a := agents.Agent{
			ID: f.nextID, UserID: apitest.UserID(r), Name: in.Name, SystemPrompt: in.SystemPrompt,
			GreetingMessage: in.GreetingMessage, VoiceID: in.VoiceID, VoiceProvider: agents.DefaultVoiceProvider,
			Language: agents.DefaultLanguage, ToolsConfig: in.ToolsConfig, CreatedAt: now, UpdatedAt: now,
		}
		f.byID[a.ID] = a
		apitest.WriteJSON(w, http.StatusCreated, a)
	})
	api.Handle("GET /agents/{id}", func(w http.ResponseWriter, r *http.Request) {
		a, ok := f.lookup(r)
		if !ok {
			apitest.WriteDetail(w, http.StatusNotFound, "Agent not found")
			return
		}
		apitest.WriteJSON(w, http.StatusOK, a)
	})
	api.Handle("PUT /agents/{id}", func(w http.ResponseWriter, r *http.Request) {
		a, ok := f.lookup(r)
		if !ok {
			apitest.WriteDetail(w, http.StatusNotFound, "Agent not found")
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lock.Lock()
		defer f.lock.Unlock()
		f.bodies = append(f.bodies, body)
		if name, ok := body["name"].(string); ok {
			a.Name = name
		}
		if lang, ok := body["language"].(string); ok {
			a.Language = lang
		}
		f.byID[a.ID] = a
		apitest.WriteJSON(w, http.StatusOK, a)
	})
	api.Handle("DELETE /agents/{id}", func(w http.ResponseWriter, r *http.Request) {
		a, ok := f.lookup(r)
		if !ok {
			apitest.WriteDetail(w, http.StatusNotFound, "Agent not found")
			return
		}
		f.lock.Lock()
		delete(f.byID, a.ID)
		f.lock.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
}

func (f *fakeAgents) lookup(r *http.Request) (agents.Agent, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return agents.Agent{}, false
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	a, ok := f.byID[id]
	return a, ok
}

type testFixture struct {
	backend *fakeAgents
	api     *agents.API
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	server := apitest.New(t)
	backend := &fakeAgents{byID: make(map[int64]agents.Agent)}
	backend.register(server)
	client, _ := server.SignedInClient(t)
	return &testFixture{backend: backend, api: agents.New(client)}
}

func TestAgentsAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("create get list update delete", func(t *testing.T) {
		f := setupTestFixture(t)

		created, err := f.api.Create(ctx, agents.AgentCreate{
			Name:            "Front desk",
			SystemPrompt:    "You answer the phone.",
			GreetingMessage: "Hallo!",
			ToolsConfig:     []agents.ToolDefinition{{Name: "end_call", Description: "End the current call", Parameters: map[string]interface{}{"type": "object"}}},
		})
		require.NoError(t, err)
		require.Equal(t, "Front desk", created.Name)
		require.Equal(t, agents.DefaultLanguage, created.Language)
		require.Len(t, created.ToolsConfig, 1)

		got, err := f.api.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)

		list, err := f.api.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		updated, err := f.api.Update(ctx, created.ID, agents.AgentUpdate{Language: utils.Ptr("en")})
		require.NoError(t, err)
		require.Equal(t, "en", updated.Language)
		require.Equal(t, "Front desk", updated.Name)
		require.Equal(t, []map[string]interface{}{{"language": "en"}}, f.backend.bodies)

		require.NoError(t, f.api.Delete(ctx, created.ID))
		_, err = f.api.Get(ctx, created.ID)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("missing fields are rejected locally", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.api.Create(ctx, agents.AgentCreate{Name: "x"})
		require.ErrorIs(t, err, errors.ErrValidation)
		require.Empty(t, f.backend.byID)
	})

	t.Run("not found passes through", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.api.Delete(ctx, 42)
		require.ErrorIs(t, err, errors.ErrNotFound)
		require.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	})
}
