package server

import (
	"context"
	"time"

	"github.com/NextMind-AI/marlie/processor"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 60 * time.Second

func (s *Server) inboundMessageHandler(c fiber.Ctx) error {
	log.Info().Msg("Received inbound message request")

	var message processor.InboundMessage
	if err := c.Bind().JSON(&message); err != nil {
		log.Error().Err(err).Msg("Error parsing JSON")
		return c.Status(fiber.StatusBadRequest).SendString("Error parsing JSON")
	}

	log.Info().
		Str("message_uuid", message.MessageUUID).
		Str("message_type", message.MessageType).
		Str("from", message.From).
		Bool("has_audio", message.Audio != nil).
		Msg("Processing inbound message")

	go s.messageProcessor.ProcessMessage(message)

	return c.SendStatus(fiber.StatusOK)
}

// handleLocalTest runs a turn synchronously and returns the reply instead of
// sending it over WhatsApp.
func (s *Server) handleLocalTest(c fiber.Ctx) error {
	var testMessage processor.LocalTestMessage

	if err := c.Bind().JSON(&testMessage); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(processor.LocalTestResponse{
			Error: "Invalid request body: " + err.Error(),
		})
	}

	if testMessage.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(processor.LocalTestResponse{
			Error: "Text field is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	response, err := s.messageProcessor.ProcessLocalTestMessage(ctx, testMessage.ConvertToInboundMessage())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(processor.LocalTestResponse{
			Error: "Processing error: " + err.Error(),
		})
	}

	return c.JSON(processor.LocalTestResponse{
		Response: response,
	})
}

// catalogRefreshHandler handles POST /catalog/refresh
func (s *Server) catalogRefreshHandler(c fiber.Ctx) error {
	if s.catalog == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: ErrorDetail{Code: "UNAVAILABLE", Message: "Catalog sync is not configured"},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	count, err := s.catalog.Refresh(ctx, s.tenantID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", s.tenantID).Msg("Error refreshing catalog")
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: ErrorDetail{Code: "UPSTREAM_ERROR", Message: "Failed to refresh service catalog"},
		})
	}

	return c.JSON(CatalogRefreshResponse{TenantID: s.tenantID, Services: count})
}
