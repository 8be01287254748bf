package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/agent-console/agents"
	"github.com/jrsteele09/agent-console/calls"
	"github.com/jrsteele09/agent-console/internal/utils"
	"github.com/jrsteele09/agent-console/phonenumbers"
)

const maxBodyBytes = 1 << 20

// Agents

func (s *Server) ListAgentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.services.Agents.List(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func (s *Server) GetAgentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		agent, err := s.services.Agents.Get(r.Context(), id)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, agent)
	}
}

func (s *Server) CreateAgentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in agents.AgentCreate
		if !decodeBody(w, r, &in) {
			return
		}
		agent, err := s.services.Agents.Create(r.Context(), in)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, agent)
	}
}

func (s *Server) UpdateAgentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var in agents.AgentUpdate
		if !decodeBody(w, r, &in) {
			return
		}
		agent, err := s.services.Agents.Update(r.Context(), id, in)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, agent)
	}
}

func (s *Server) DeleteAgentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.services.Agents.Delete(r.Context(), id); err != nil {
			writeAPIError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Phone numbers

func (s *Server) ListPhoneNumbersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.services.PhoneNumbers.List(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func (s *Server) CreatePhoneNumberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in phonenumbers.PhoneNumberCreate
		if !decodeBody(w, r, &in) {
			return
		}
		number, err := s.services.PhoneNumbers.Create(r.Context(), in)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, number)
	}
}

// phoneNumberPatch keeps agent_id raw so an explicit null can be told apart from
// an absent field.
type phoneNumberPatch struct {
	AgentID        json.RawMessage        `json:"agent_id"`
	ProviderConfig map[string]interface{} `json:"provider_config"`
}

func (p phoneNumberPatch) update() (phonenumbers.PhoneNumberUpdate, error) {
	out := phonenumbers.PhoneNumberUpdate{ProviderConfig: p.ProviderConfig}
	switch string(p.AgentID) {
	case "":
	case "null":
		out.UnassignAgent = true
	default:
		var id int64
		if err := json.Unmarshal(p.AgentID, &id); err != nil {
			return out, fmt.Errorf("agent_id must be a number or null")
		}
		out.AgentID = utils.Ptr(id)
	}
	return out, nil
}

func (s *Server) UpdatePhoneNumberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var patch phoneNumberPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		in, err := patch.update()
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		number, err := s.services.PhoneNumbers.Update(r.Context(), id, in)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, number)
	}
}

func (s *Server) DeletePhoneNumberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.services.PhoneNumbers.Delete(r.Context(), id); err != nil {
			writeAPIError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Calls

func (s *Server) ListConversationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := calls.Page{
			Limit:  queryInt(r, "limit"),
			Offset: queryInt(r, "offset"),
		}
		list, err := s.services.Calls.ListConversations(r.Context(), page)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func (s *Server) GetConversationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		conv, err := s.services.Calls.GetConversation(r.Context(), id)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func (s *Server) MessagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		msgs, err := s.services.Calls.Messages(r.Context(), id)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(msgs))
	}
}

func (s *Server) CallLogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		callLog, err := s.services.Calls.CallLog(r.Context(), id)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, callLog)
	}
}

// GDPR

// ExportHandler serves the account's data export as a download.
func (s *Server) ExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.services.GDPR.Export(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		filename := fmt.Sprintf("user_data_%s.json", time.Now().UTC().Format("20060102T150405Z"))
		if u := UserFromContext(r.Context()); u != nil {
			filename = fmt.Sprintf("user_data_%d_%s.json", u.ID, time.Now().UTC().Format("20060102T150405Z"))
		}
		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (s *Server) RequestDeletionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := s.services.GDPR.RequestDeletion(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

// ConfirmDeletionHandler deletes the account, then ends the local session since
// its credentials no longer identify anyone.
func (s *Server) ConfirmDeletionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		msg, err := s.services.GDPR.ConfirmDeletion(r.Context(), id)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		s.services.Session.Logout()
		w.Header().Set("HX-Redirect", RouteLogin)
		writeJSON(w, http.StatusOK, map[string]string{"message": msg})
	}
}

// Catalog

func (s *Server) ToolsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tools, err := s.services.Catalog.Tools(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"tools": nonNil(tools)})
	}
}

func (s *Server) VoicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		voices, err := s.services.Catalog.Voices(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"voices": nonNil(voices)})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// queryInt returns 0 for a missing or malformed parameter.
func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
