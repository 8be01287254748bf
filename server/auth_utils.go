package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/internal/errors"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects. The email, when set,
// is kept so the form can be refilled.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg, email string) {
	q := url.Values{"error": {errorMsg}}
	if email != "" {
		q.Set("email", email)
	}
	redirectSuccess(w, r, path+"?"+q.Encode())
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeAPIError maps an error from the remote API onto the console's response.
// Remote HTTP failures keep their status and detail.
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *errors.APIError
	switch {
	case errors.Is(err, errors.ErrSessionExpired):
		w.Header().Set("HX-Redirect", RouteLogin)
		writeDetail(w, http.StatusUnauthorized, "Session expired, please sign in again")
	case errors.As(err, &apiErr):
		detail := apiErr.Detail
		if detail == "" {
			detail = http.StatusText(apiErr.StatusCode)
		}
		writeDetail(w, apiErr.StatusCode, detail)
	case errors.Is(err, errors.ErrValidation), errors.Is(err, errors.ErrConsentRequired):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errors.ErrTransport):
		logError(r.Method, r.URL.Path, err.Error())
		writeDetail(w, http.StatusBadGateway, "Remote API unreachable")
	default:
		logError(r.Method, r.URL.Path, err.Error())
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// userMessage turns a login or registration failure into text for the form.
func userMessage(err error) string {
	var apiErr *errors.APIError
	switch {
	case errors.Is(err, errors.ErrConsentRequired):
		return "You must accept all consents to register"
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		return "Invalid email or password"
	case errors.As(err, &apiErr) && apiErr.Detail != "" && apiErr.StatusCode < http.StatusInternalServerError:
		return apiErr.Detail
	case errors.Is(err, errors.ErrValidation):
		return err.Error()
	case errors.Is(err, errors.ErrTransport):
		return "The service is unreachable, please try again"
	default:
		return "Something went wrong, please try again"
	}
}
