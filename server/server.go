package server

import (
	"context"
	"net/http"

	"github.com/NextMind-AI/marlie/dialog"
	"github.com/NextMind-AI/marlie/processor"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// ConversationStore is the read side of the conversation state store used by the CRM.
type ConversationStore interface {
	Get(ctx context.Context, tenantID, phone string) (*dialog.State, error)
	List(ctx context.Context, tenantID string) ([]*dialog.State, error)
	Delete(ctx context.Context, tenantID, phone string) error
}

// CatalogRefresher is satisfied by *catalog.Syncer.
type CatalogRefresher interface {
	Refresh(ctx context.Context, tenantID string) (int, error)
}

type Deps struct {
	Processor     *processor.MessageProcessor
	Conversations ConversationStore
	Catalog       CatalogRefresher
	Metrics       http.Handler
}

type Server struct {
	app              *fiber.App
	tenantID         string
	messageProcessor *processor.MessageProcessor
	conversations    ConversationStore
	catalog          CatalogRefresher
	metricsHandler   http.Handler
}

func New(tenantID string, deps Deps) *Server {
	app := fiber.New()

	server := &Server{
		app:              app,
		tenantID:         tenantID,
		messageProcessor: deps.Processor,
		conversations:    deps.Conversations,
		catalog:          deps.Catalog,
		metricsHandler:   deps.Metrics,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) Start(port string) {
	log.Info().Str("port", port).Str("tenant_id", s.tenantID).Msg("Starting marlie server")

	err := s.app.Listen(":"+port, fiber.ListenConfig{
		DisableStartupMessage: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
