package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

func (s *Server) setupRoutes() {
	s.app.Post("/webhooks/inbound-message", s.inboundMessageHandler)
	s.app.Post("/test/chat", s.handleLocalTest)

	s.app.Get("/crm/conversations", s.crmConversationsHandler)
	s.app.Get("/crm/conversations/:userId", s.crmConversationMessagesHandler)
	s.app.Delete("/crm/conversations/:userId", s.crmDeleteConversationHandler)

	s.app.Post("/catalog/refresh", s.catalogRefreshHandler)

	if s.metricsHandler != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metricsHandler))
	}
}
