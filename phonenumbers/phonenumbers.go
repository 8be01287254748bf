// Package phonenumbers manages the telephone numbers routed to agents.
package phonenumbers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/agent-console/apiclient"
	"github.com/jrsteele09/agent-console/internal/errors"
)

const (
	RoutePhoneNumbers = "/phone-numbers/"
	DefaultProvider   = "twilio"
)

type PhoneNumber struct {
	ID             int64                  `json:"id"`
	UserID         int64                  `json:"user_id"`
	AgentID        *int64                 `json:"agent_id"`
	PhoneNumber    string                 `json:"phone_number"`
	Provider       string                 `json:"provider"`
	ProviderConfig map[string]interface{} `json:"provider_config"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type PhoneNumberCreate struct {
	PhoneNumber    string                 `json:"phone_number"`
	Provider       string                 `json:"provider,omitempty"`
	ProviderConfig map[string]interface{} `json:"provider_config,omitempty"`
	AgentID        *int64                 `json:"agent_id,omitempty"`
}

func (c PhoneNumberCreate) Validate() error {
	if strings.TrimSpace(c.PhoneNumber) == "" {
		return fmt.Errorf("%w: missing phone_number", errors.ErrValidation)
	}
	return nil
}

// PhoneNumberUpdate changes only what is set. The server distinguishes an absent
// agent_id from an explicit null, so unassigning is its own flag.
type PhoneNumberUpdate struct {
	AgentID        *int64
	UnassignAgent  bool
	ProviderConfig map[string]interface{}
}

func (u PhoneNumberUpdate) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{})
	switch {
	case u.UnassignAgent:
		body["agent_id"] = nil
	case u.AgentID != nil:
		body["agent_id"] = *u.AgentID
	}
	if u.ProviderConfig != nil {
		body["provider_config"] = u.ProviderConfig
	}
	return json.Marshal(body)
}

type API struct {
	r apiclient.Requester
}

func New(r apiclient.Requester) *API {
	return &API{r: r}
}

func (a *API) List(ctx context.Context) ([]PhoneNumber, error) {
	var out []PhoneNumber
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, RoutePhoneNumbers, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[phonenumbers List]")
	}
	return out, nil
}

func (a *API) Create(ctx context.Context, in PhoneNumberCreate) (*PhoneNumber, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out PhoneNumber
	if err := apiclient.DoJSON(ctx, a.r, http.MethodPost, RoutePhoneNumbers, in, &out); err != nil {
		return nil, errors.Wrapf(err, "[phonenumbers Create]")
	}
	return &out, nil
}

func (a *API) Update(ctx context.Context, id int64, in PhoneNumberUpdate) (*PhoneNumber, error) {
	var out PhoneNumber
	if err := apiclient.DoJSON(ctx, a.r, http.MethodPut, numberPath(id), in, &out); err != nil {
		return nil, errors.Wrapf(err, "[phonenumbers Update] number %d", id)
	}
	return &out, nil
}

func (a *API) Delete(ctx context.Context, id int64) error {
	if err := apiclient.DoJSON(ctx, a.r, http.MethodDelete, numberPath(id), nil, nil); err != nil {
		return errors.Wrapf(err, "[phonenumbers Delete] number %d", id)
	}
	return nil
}

func numberPath(id int64) string {
	return fmt.Sprintf("/phone-numbers/%d", id)
}
