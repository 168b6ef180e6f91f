// Package vonage sends WhatsApp messages through the Vonage Messages API.
// Delivery retries are left to the gateway.
package vonage

import (
	"net/http"
	"strings"
)

type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient builds a client for config. SenderID is the WhatsApp number the
// salon sends from; trailing slashes on the API URLs are ignored.
func NewClient(config Config, httpClient http.Client) Client {
	config.GeospecificMessagesAPIURL = strings.TrimRight(config.GeospecificMessagesAPIURL, "/")
	config.MessagesAPIURL = strings.TrimRight(config.MessagesAPIURL, "/")

	return Client{
		config:     config,
		httpClient: &httpClient,
	}
}
