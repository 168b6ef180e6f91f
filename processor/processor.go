// Package processor turns inbound WhatsApp webhooks into conversation turns
// and sends the resulting reply back through the transport.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NextMind-AI/marlie/dialog"
	"github.com/NextMind-AI/marlie/metrics"

	"github.com/rs/zerolog/log"
)

const (
	replyUnsupported = "Por enquanto só consigo entender mensagens de texto e áudio."
	replyAudioFailed = "Não consegui ouvir seu áudio. Pode escrever sua mensagem, por favor?"
	replyFailure     = "Desculpe, tive um problema para processar sua mensagem. Pode tentar novamente em instantes?"

	defaultTurnTimeout = 60 * time.Second
)

type MessageProcessor struct {
	transport   Transport
	transcriber Transcriber
	handler     TurnHandler
	metrics     *metrics.Metrics
	turnTimeout time.Duration
}

func NewMessageProcessor(transport Transport, transcriber Transcriber, handler TurnHandler, m *metrics.Metrics) *MessageProcessor {
	return &MessageProcessor{
		transport:   transport,
		transcriber: transcriber,
		handler:     handler,
		metrics:     m,
		turnTimeout: defaultTurnTimeout,
	}
}

// ProcessMessage handles one webhook delivery end to end. It runs detached
// from the HTTP request, so it owns its own deadline.
func (mp *MessageProcessor) ProcessMessage(message InboundMessage) {
	log.Info().Str("message_uuid", message.MessageUUID).Msg("Processing message")

	ctx, cancel := context.WithTimeout(context.Background(), mp.turnTimeout)
	defer cancel()

	if err := mp.transport.MarkMessageAsRead(ctx, message.MessageUUID); err != nil {
		log.Error().
			Err(err).
			Str("message_uuid", message.MessageUUID).
			Msg("Error marking message as read")
	}

	reply, status := mp.respond(ctx, message)
	mp.metrics.ObserveInbound(message.MessageType, status)
	if reply == "" {
		return
	}

	if _, err := mp.transport.SendWhatsAppReplyMessage(ctx, message.From, reply, message.MessageUUID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", message.From).
			Str("message_uuid", message.MessageUUID).
			Msg("Error sending reply")
		return
	}

	log.Info().Str("user_id", message.From).Str("status", status).Msg("Completed message processing")
}

// respond maps the message to the text that should go back to the customer
// and a status label for metrics.
func (mp *MessageProcessor) respond(ctx context.Context, message InboundMessage) (string, string) {
	processedMsg, err := mp.extractMessageContent(ctx, message)
	switch {
	case errors.Is(err, errUnsupportedType):
		return replyUnsupported, "unsupported"
	case errors.Is(err, errEmptyContent):
		return "", "empty"
	case err != nil:
		log.Error().
			Err(err).
			Str("message_uuid", message.MessageUUID).
			Msg("Error processing message content")
		return replyAudioFailed, "transcription_error"
	}

	reply, err := mp.handler.HandleTurn(ctx, dialog.Turn{
		Text:        processedMsg.Text,
		Phone:       message.From,
		ContactName: message.Profile.Name,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", message.From).
			Msg("Error handling turn")
		return replyFailure, "error"
	}

	return reply, "ok"
}

// ProcessLocalTestMessage runs a turn without touching the transport and
// returns the reply, for the local chat endpoint.
func (mp *MessageProcessor) ProcessLocalTestMessage(ctx context.Context, message InboundMessage) (string, error) {
	log.Info().Str("user_id", message.From).Msg("Processing local test message")

	processedMsg, err := mp.extractMessageContent(ctx, message)
	if err != nil {
		return "", fmt.Errorf("error processing message content: %w", err)
	}

	reply, err := mp.handler.HandleTurn(ctx, dialog.Turn{
		Text:        processedMsg.Text,
		Phone:       message.From,
		ContactName: message.Profile.Name,
	})
	if err != nil {
		return "", fmt.Errorf("error handling turn: %w", err)
	}

	return reply, nil
}
