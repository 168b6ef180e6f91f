package processor

import (
	"context"

	"github.com/NextMind-AI/marlie/dialog"
	"github.com/NextMind-AI/marlie/vonage"
)

// Transport is the subset of *vonage.Client used to talk back to the customer.
type Transport interface {
	MarkMessageAsRead(ctx context.Context, messageID string) error
	SendWhatsAppReplyMessage(ctx context.Context, toNumber, text, messageUUID string) (*vonage.MessageResponse, error)
}

// Transcriber turns a voice note into text.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, url string) (string, error)
}

// TurnHandler is satisfied by *dialog.Orchestrator.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn dialog.Turn) (string, error)
}
