package vonage

import (
	"context"
	"net/http"
)

// SendWhatsAppTextMessage sends text to toNumber from the configured sender.
func (c *Client) SendWhatsAppTextMessage(ctx context.Context, toNumber, text string) (*MessageResponse, error) {
	message := c.createWhatsAppMessage(toNumber, text, nil)
	return c.sendMessageRequest(ctx, http.MethodPost, c.config.MessagesAPIURL, message)
}

// SendWhatsAppReplyMessage sends text quoting the inbound message messageUUID.
func (c *Client) SendWhatsAppReplyMessage(ctx context.Context, toNumber, text, messageUUID string) (*MessageResponse, error) {
	replyContext := &Context{MessageUUID: messageUUID}
	message := c.createWhatsAppMessage(toNumber, text, replyContext)
	return c.sendMessageRequest(ctx, http.MethodPost, c.config.MessagesAPIURL, message)
}

func (c *Client) createWhatsAppMessage(toNumber, text string, replyContext *Context) WhatsAppMessage {
	return WhatsAppMessage{
		To:          toNumber,
		From:        c.config.SenderID,
		Channel:     "whatsapp",
		MessageType: "text",
		Text:        text,
		Context:     replyContext,
	}
}
