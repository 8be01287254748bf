package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// Pages
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLegalPrivacy, ChainMiddleware(s.LegalHandler(legalPrivacy), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLegalTerms, ChainMiddleware(s.LegalHandler(legalTerms), s.HTMLMiddleWare()...))

	// Session
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))

	// Console API (JSON)
	s.RegisterRouteHandler("GET "+RouteConsoleAgents, s.consoleRoute(s.ListAgentsHandler()))
	s.RegisterRouteHandler("POST "+RouteConsoleAgents, s.consoleRoute(s.CreateAgentHandler()))
	s.RegisterRouteHandler("GET "+RouteConsoleAgent, s.consoleRoute(s.GetAgentHandler()))
	s.RegisterRouteHandler("PUT "+RouteConsoleAgent, s.consoleRoute(s.UpdateAgentHandler()))
	s.RegisterRouteHandler("DELETE "+RouteConsoleAgent, s.consoleRoute(s.DeleteAgentHandler()))

	s.RegisterRouteHandler("GET "+RouteConsolePhoneNumbers, s.consoleRoute(s.ListPhoneNumbersHandler()))
	s.RegisterRouteHandler("POST "+RouteConsolePhoneNumbers, s.consoleRoute(s.CreatePhoneNumberHandler()))
	s.RegisterRouteHandler("PUT "+RouteConsolePhoneNumber, s.consoleRoute(s.UpdatePhoneNumberHandler()))
	s.RegisterRouteHandler("DELETE "+RouteConsolePhoneNumber, s.consoleRoute(s.DeletePhoneNumberHandler()))

	s.RegisterRouteHandler("GET "+RouteConsoleConversations, s.consoleRoute(s.ListConversationsHandler()))
	s.RegisterRouteHandler("GET "+RouteConsoleConversation, s.consoleRoute(s.GetConversationHandler()))
	s.RegisterRouteHandler("GET "+RouteConsoleMessages, s.consoleRoute(s.MessagesHandler()))
	s.RegisterRouteHandler("GET "+RouteConsoleCallLog, s.consoleRoute(s.CallLogHandler()))

	s.RegisterRouteHandler("GET "+RouteConsoleExport, s.consoleRoute(s.ExportHandler()))
	s.RegisterRouteHandler("POST "+RouteConsoleDeleteAccount, s.consoleRoute(s.RequestDeletionHandler()))
	s.RegisterRouteHandler("DELETE "+RouteConsoleConfirmDeletion, s.consoleRoute(s.ConfirmDeletionHandler()))

	s.RegisterRouteHandler("GET "+RouteConsoleTools, s.consoleRoute(s.ToolsHandler()))
	s.RegisterRouteHandler("GET "+RouteConsoleVoices, s.consoleRoute(s.VoicesHandler()))

	s.RegisterRouteHandler("OPTIONS /console/", ChainMiddleware(preflight, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStatic, FileServerHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.services.Gatherer, promhttp.HandlerOpts{}))
}

func (s *Server) consoleRoute(h http.HandlerFunc) http.HandlerFunc {
	return ChainMiddleware(h, s.APIMiddleware(s.RequireSessionJSON())...)
}

// preflight answers CORS preflights; CorsMiddleware has already set the headers.
func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
