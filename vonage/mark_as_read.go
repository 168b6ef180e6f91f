package vonage

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

func (c *Client) MarkMessageAsRead(ctx context.Context, messageID string) error {
	log.Debug().Str("message_id", messageID).Msg("Marking message as read")

	payload := MarkAsReadPayload{Status: "read"}
	url := fmt.Sprintf("%s/%s", c.config.GeospecificMessagesAPIURL, messageID)

	_, err := c.sendRequest(ctx, http.MethodPatch, url, payload)
	return err
}
