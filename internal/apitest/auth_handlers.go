package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/users"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (s *Server) writePair(w http.ResponseWriter, status int, pair credentials.Pair) {
	WriteJSON(w, status, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg users.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		WriteDetail(w, http.StatusUnprocessableEntity, []map[string]string{{"msg": "invalid body"}})
		return
	}
	if reg.Email == "" || reg.Password == "" {
		WriteDetail(w, http.StatusUnprocessableEntity, []map[string]string{{"loc": "body", "msg": "field required"}})
		return
	}
	if !reg.DataProcessingConsent || !reg.TermsAccepted || !reg.PrivacyPolicyAccepted {
		WriteDetail(w, http.StatusBadRequest, "Data processing consent is required")
		return
	}
	hash, err := hashPassword(reg.Password)
	if err != nil {
		WriteDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.lock.Lock()
	if _, exists := s.byEmail[reg.Email]; exists {
		s.lock.Unlock()
		WriteDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	id := s.addUserLocked(reg, hash)
	s.lock.Unlock()

	pair, err := s.mintPair(id)
	if err != nil {
		WriteDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writePair(w, http.StatusCreated, pair)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.lock.Lock()
	var hash string
	id, ok := s.byEmail[req.Email]
	if ok {
		hash = s.accounts[id].passwordHash
	}
	s.lock.Unlock()

	if !ok || !checkPassword(req.Password, hash) {
		WriteDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	pair, err := s.mintPair(id)
	if err != nil {
		WriteDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writePair(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.lock.Lock()
	gate := s.hold
	s.lock.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	s.lock.Lock()
	id, ok := s.refresh[req.RefreshToken]
	if !ok {
		s.lock.Unlock()
		WriteDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	// Refresh credentials are single use.
	delete(s.refresh, req.RefreshToken)
	var next credentials.Pair
	if len(s.queued) > 0 {
		next = s.queued[0]
		s.queued = s.queued[1:]
		s.access[next.AccessToken] = id
		s.refresh[next.RefreshToken] = id
	}
	s.lock.Unlock()

	if !next.Valid() {
		var err error
		if next, err = s.mintPair(id); err != nil {
			WriteDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.writePair(w, http.StatusOK, next)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	acc, ok := s.accounts[UserID(r)]
	var user users.User
	if ok {
		user = acc.user
	}
	s.lock.Unlock()

	if !ok {
		WriteDetail(w, http.StatusNotFound, "User not found")
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// protect admits requests carrying a live access credential.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")

		s.lock.Lock()
		s.seen = append(s.seen, header)
		id, ok := s.access[token]
		s.lock.Unlock()

		if header == "" || !ok {
			s.rejections.Add(1)
			w.Header().Set("WWW-Authenticate", "Bearer")
			WriteDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	}
}
