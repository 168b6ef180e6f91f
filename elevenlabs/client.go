// Package elevenlabs transcribes inbound WhatsApp voice notes with the
// ElevenLabs speech-to-text API so they can enter the conversation as text.
package elevenlabs

import (
	"fmt"
	"net/http"
)

const (
	BaseURL          = "https://api.elevenlabs.io/v1"
	SpeechToTextPath = "/speech-to-text"
	DefaultModel     = "scribe_v1"
)

type Client struct {
	APIKey       string
	LanguageCode string
	BaseURL      string
	HTTPClient   *http.Client
}

// NewClient creates an ElevenLabs client that transcribes Portuguese audio.
func NewClient(apiKey string, httpClient http.Client) Client {
	return Client{
		APIKey:       apiKey,
		LanguageCode: "pt",
		BaseURL:      BaseURL,
		HTTPClient:   &httpClient,
	}
}

type transcription struct {
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
	Text                string  `json:"text"`
}

// APIError is a non-200 answer from ElevenLabs.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
}

func (e APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("elevenlabs: status %d: %s - %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("elevenlabs: status %d: %s", e.StatusCode, e.Message)
}
