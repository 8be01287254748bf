// Package catalog lists the tool types and voices an agent can be configured with.
package catalog

import (
	"context"
	"net/http"

	"github.com/jrsteele09/agent-console/apiclient"
	"github.com/jrsteele09/agent-console/internal/errors"
)

const (
	RouteAvailableTools = "/tools/available-tools"
	RouteVoices         = "/testing/voices"
)

// Tool is a tool type with its JSON schema parameters.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type Voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Language string `json:"language"`
}

type API struct {
	r apiclient.Requester
}

func New(r apiclient.Requester) *API {
	return &API{r: r}
}

func (a *API) Tools(ctx context.Context) ([]Tool, error) {
	var out struct {
		Tools []Tool `json:"tools"`
	}
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, RouteAvailableTools, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[catalog Tools]")
	}
	return out.Tools, nil
}

func (a *API) Voices(ctx context.Context) ([]Voice, error) {
	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, RouteVoices, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[catalog Voices]")
	}
	return out.Voices, nil
}

// VoiceByID finds a voice in list.
func VoiceByID(list []Voice, id string) (Voice, bool) {
	for _, v := range list {
		if v.VoiceID == id {
			return v, true
		}
	}
	return Voice{}, false
}
