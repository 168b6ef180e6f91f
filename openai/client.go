package openai

import (
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client used for message understanding.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewClient creates a new OpenAI client wrapper with the specified API key and HTTP client.
// Extra request options are applied after the defaults, which lets tests point the
// client at a local server.
func NewClient(apiKey string, httpClient http.Client, opts ...option.RequestOption) Client {
	options := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&httpClient),
	}, opts...)

	client := openai.NewClient(options...)

	openaiClient := Client{
		client: &client,
		model:  openai.ChatModelGPT4_1Mini,
	}

	return openaiClient
}
