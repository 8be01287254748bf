// Package calls reads the call records kept by the remote API.
package calls

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/agent-console/apiclient"
	"github.com/jrsteele09/agent-console/internal/errors"
)

const (
	RouteConversations = "/calls/conversations"
	DefaultLimit       = 50
)

type Conversation struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	AgentID           int64      `json:"agent_id"`
	PhoneNumberID     *int64     `json:"phone_number_id"`
	CallSID           *string    `json:"call_sid"`
	CallerPhoneNumber string     `json:"caller_phone_number"`
	Direction         string     `json:"direction"` // inbound or outbound
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
	ConsentRecorded   bool       `json:"consent_recorded"`
	CallerConsented   bool       `json:"caller_consented"`
	Status            string     `json:"status"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"` // user, assistant or system
	Content        string    `json:"content"`
	AudioURL       *string   `json:"audio_url"`
	Timestamp      time.Time `json:"timestamp"`
	Anonymized     bool      `json:"anonymized"`
}

type CallLog struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Duration       *float64  `json:"duration"` // seconds
	Status         string    `json:"status"`
	Transcript     *string   `json:"transcript"`
	Summary        *string   `json:"summary"`
	CreatedAt      time.Time `json:"created_at"`
	RetentionUntil time.Time `json:"retention_until"`
}

// Page selects a window of conversations, newest first.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) query() string {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q.Encode()
}

type API struct {
	r apiclient.Requester
}

func New(r apiclient.Requester) *API {
	return &API{r: r}
}

func (a *API) ListConversations(ctx context.Context, page Page) ([]Conversation, error) {
	var out []Conversation
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, RouteConversations+"?"+page.query(), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[calls ListConversations]")
	}
	return out, nil
}

func (a *API) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	var out Conversation
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, conversationPath(id, ""), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[calls GetConversation] conversation %d", id)
	}
	return &out, nil
}

func (a *API) Messages(ctx context.Context, conversationID int64) ([]Message, error) {
	var out []Message
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, conversationPath(conversationID, "/messages"), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[calls Messages] conversation %d", conversationID)
	}
	return out, nil
}

func (a *API) CallLog(ctx context.Context, conversationID int64) (*CallLog, error) {
	var out CallLog
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, conversationPath(conversationID, "/log"), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[calls CallLog] conversation %d", conversationID)
	}
	return &out, nil
}

func conversationPath(id int64, suffix string) string {
	return fmt.Sprintf("%s/%d%s", RouteConversations, id, suffix)
}
