package server

import (
	"net/http"
)

type legalKind int

const (
	legalPrivacy legalKind = iota
	legalTerms
)

// LegalHandler renders a legal text fetched from the remote API.
func (s *Server) LegalHandler(kind legalKind) http.HandlerFunc {
	tmpl := mustParseTemplate("legal.html")

	fetch := s.services.GDPR.PrivacyPolicy
	title := "Privacy Policy"
	if kind == legalTerms {
		fetch = s.services.GDPR.TermsOfService
		title = "Terms of Service"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]interface{}{
			"AppName": s.config.GetAppName(),
			"Title":   title,
		}
		text, err := fetch(r.Context())
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			data["Error"] = "This document is unavailable right now."
			renderHTML(w, tmpl, http.StatusBadGateway, data)
			return
		}
		if text.Title != "" {
			data["Title"] = text.Title
		}
		data["Content"] = text.Content
		renderHTML(w, tmpl, http.StatusOK, data)
	}
}
