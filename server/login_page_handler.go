package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/users"
)

// LoginPageData contains data for rendering the login and registration pages
type LoginPageData struct {
	AppName  string
	Error    string
	Email    string // Preserve email on error
	Register bool
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return s.authPage(false)
}

// RegisterPageHandler displays the registration page (GET /register)
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return s.authPage(true)
}

func (s *Server) authPage(register bool) http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if s.services.Session.User() != nil {
			redirectSuccess(w, r, "/")
			return
		}
		data := LoginPageData{
			AppName:  s.config.GetAppName(),
			Error:    r.URL.Query().Get("error"),
			Email:    r.URL.Query().Get("email"),
			Register: register,
		}
		renderHTML(w, tmpl, http.StatusOK, data)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		if email == "" || password == "" {
			redirectWithError(w, r, RouteLogin, "Email and password are required", email)
			return
		}

		if _, err := s.services.Session.Login(r.Context(), email, password); err != nil {
			log.Err(err).Str("email", email).Msg("Login failed")
			redirectWithError(w, r, RouteLogin, userMessage(err), email)
			return
		}
		redirectSuccess(w, r, "/")
	}
}

// RegisterSubmissionHandler processes the registration form submission
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		reg := users.Registration{
			Email:                 strings.TrimSpace(r.FormValue("email")),
			Password:              r.FormValue("password"),
			ConfirmPassword:       r.FormValue("confirm_password"),
			DataProcessingConsent: checked(r, "data_processing_consent"),
			TermsAccepted:         checked(r, "terms_accepted"),
			PrivacyPolicyAccepted: checked(r, "privacy_policy_accepted"),
		}

		if _, err := s.services.Session.Register(r.Context(), reg); err != nil {
			log.Err(err).Str("email", reg.Email).Msg("Registration failed")
			redirectWithError(w, r, RouteRegister, userMessage(err), reg.Email)
			return
		}
		redirectSuccess(w, r, "/")
	}
}

// LogoutHandler ends the session (POST /auth/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.services.Session.Logout()
		redirectSuccess(w, r, RouteLogin)
	}
}

// SessionHandler reports the session state (GET /api/session)
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.services.Session.Snapshot())
	}
}

func checked(r *http.Request, field string) bool {
	switch strings.ToLower(r.FormValue(field)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
