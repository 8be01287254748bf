package server

import (
	"net/http"
)

// IndexHandler renders the console home page for the signed in user
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]interface{}{
			"AppName": s.config.GetAppName(),
			"User":    UserFromContext(r.Context()),
		}
		renderHTML(w, tmpl, http.StatusOK, data)
	}
}
