// Package agents manages the AI voice agents configured on the remote API.
package agents

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/agent-console/apiclient"
	"github.com/jrsteele09/agent-console/internal/errors"
)

const RouteAgents = "/agents/"

// Server side defaults applied when a field is left empty on create.
const (
	DefaultVoiceProvider = "elevenlabs"
	DefaultLanguage      = "de"
)

// ToolDefinition is a function the agent may call during a conversation.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type Agent struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	Name            string           `json:"name"`
	SystemPrompt    string           `json:"system_prompt"`
	GreetingMessage string           `json:"greeting_message"`
	VoiceID         *string          `json:"voice_id"`
	VoiceProvider   string           `json:"voice_provider"`
	Language        string           `json:"language"`
	ToolsConfig     []ToolDefinition `json:"tools_config"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AgentCreate is the body for creating an agent.
type AgentCreate struct {
	Name            string           `json:"name"`
	SystemPrompt    string           `json:"system_prompt"`
	GreetingMessage string           `json:"greeting_message"`
	VoiceID         *string          `json:"voice_id,omitempty"`
	VoiceProvider   string           `json:"voice_provider,omitempty"`
	Language        string           `json:"language,omitempty"`
	ToolsConfig     []ToolDefinition `json:"tools_config,omitempty"`
}

func (c AgentCreate) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.SystemPrompt) == "" {
		missing = append(missing, "system_prompt")
	}
	if strings.TrimSpace(c.GreetingMessage) == "" {
		missing = append(missing, "greeting_message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errors.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// AgentUpdate changes only the fields that are set.
type AgentUpdate struct {
	Name            *string           `json:"name,omitempty"`
	SystemPrompt    *string           `json:"system_prompt,omitempty"`
	GreetingMessage *string           `json:"greeting_message,omitempty"`
	VoiceID         *string           `json:"voice_id,omitempty"`
	VoiceProvider   *string           `json:"voice_provider,omitempty"`
	Language        *string           `json:"language,omitempty"`
	ToolsConfig     *[]ToolDefinition `json:"tools_config,omitempty"`
}

type API struct {
	r apiclient.Requester
}

// New binds the agent endpoints to an authenticated requester.
func New(r apiclient.Requester) *API {
	return &API{r: r}
}

func (a *API) List(ctx context.Context) ([]Agent, error) {
	var out []Agent
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, RouteAgents, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[agents List]")
	}
	return out, nil
}

func (a *API) Get(ctx context.Context, id int64) (*Agent, error) {
	var out Agent
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, agentPath(id), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[agents Get] agent %d", id)
	}
	return &out, nil
}

// Create validates the required fields locally before sending.
func (a *API) Create(ctx context.Context, in AgentCreate) (*Agent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out Agent
	if err := apiclient.DoJSON(ctx, a.r, http.MethodPost, RouteAgents, in, &out); err != nil {
		return nil, errors.Wrapf(err, "[agents Create]")
	}
	return &out, nil
}

func (a *API) Update(ctx context.Context, id int64, in AgentUpdate) (*Agent, error) {
	var out Agent
	if err := apiclient.DoJSON(ctx, a.r, http.MethodPut, agentPath(id), in, &out); err != nil {
		return nil, errors.Wrapf(err, "[agents Update] agent %d", id)
	}
	return &out, nil
}

func (a *API) Delete(ctx context.Context, id int64) error {
	if err := apiclient.DoJSON(ctx, a.r, http.MethodDelete, agentPath(id), nil, nil); err != nil {
		return errors.Wrapf(err, "[agents Delete] agent %d", id)
	}
	return nil
}

func agentPath(id int64) string {
	return fmt.Sprintf("/agents/%d", id)
}
