package processor

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	errUnsupportedType = errors.New("unsupported message type")
	errEmptyContent    = errors.New("no text content found in message")
)

func (mp *MessageProcessor) extractMessageContent(ctx context.Context, message InboundMessage) (*ProcessedMessage, error) {
	var messageText string
	var err error

	switch message.MessageType {
	case "text":
		messageText = message.Text
	case "audio":
		if message.Audio == nil || message.Audio.URL == "" || mp.transcriber == nil {
			return nil, errEmptyContent
		}
		messageText, err = mp.transcriber.TranscribeAudio(ctx, message.Audio.URL)
		if err != nil {
			return nil, err
		}
	default:
		log.Warn().
			Str("message_type", message.MessageType).
			Str("message_uuid", message.MessageUUID).
			Msg("Unsupported message type")
		return nil, errUnsupportedType
	}

	finalMessageText := strings.TrimSpace(messageText)
	if finalMessageText == "" {
		log.Error().
			Str("message_uuid", message.MessageUUID).
			Msg("No text content found in message")
		return nil, errEmptyContent
	}

	return &ProcessedMessage{
		Text: finalMessageText,
		UUID: message.MessageUUID,
	}, nil
}
