package server

// Route path constants
const (
	// Pages
	RouteIndex    = "/{$}"
	RouteLogin    = "/login"
	RouteRegister = "/register"

	// Session
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthLogout   = "/auth/logout"
	RouteAPISession   = "/api/session"

	// Legal texts
	RouteLegalPrivacy = "/legal/privacy-policy"
	RouteLegalTerms   = "/legal/terms"

	RouteMetrics = "/metrics"
	RouteStatic  = "/static/"

	// Console JSON proxies to the remote API
	RouteConsoleAgents          = "/console/agents"
	RouteConsoleAgent           = "/console/agents/{id}"
	RouteConsolePhoneNumbers    = "/console/phone-numbers"
	RouteConsolePhoneNumber     = "/console/phone-numbers/{id}"
	RouteConsoleConversations   = "/console/calls/conversations"
	RouteConsoleConversation    = "/console/calls/conversations/{id}"
	RouteConsoleMessages        = "/console/calls/conversations/{id}/messages"
	RouteConsoleCallLog         = "/console/calls/conversations/{id}/log"
	RouteConsoleExport          = "/console/gdpr/export"
	RouteConsoleDeleteAccount   = "/console/gdpr/delete-account"
	RouteConsoleConfirmDeletion = "/console/gdpr/delete-account/{id}"
	RouteConsoleTools           = "/console/tools"
	RouteConsoleVoices          = "/console/voices"
)
