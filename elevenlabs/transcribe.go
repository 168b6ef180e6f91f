package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// TranscribeAudio downloads the audio at url and returns its transcription.
func (c *Client) TranscribeAudio(ctx context.Context, url string) (string, error) {
	log.Info().Str("url", url).Msg("Downloading and transcribing audio from URL")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download audio: HTTP %d", resp.StatusCode)
	}

	return c.transcribeAudioFile(ctx, resp.Body, "audio.ogg")
}

func (c *Client) transcribeAudioFile(ctx context.Context, file io.Reader, fileName string) (string, error) {
	log.Info().Str("file_name", fileName).Msg("Transcribing audio file")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("model_id", DefaultModel); err != nil {
		return "", fmt.Errorf("failed to write model_id field: %w", err)
	}

	if c.LanguageCode != "" {
		if err := writer.WriteField("language_code", c.LanguageCode); err != nil {
			return "", fmt.Errorf("failed to write language_code field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := c.BaseURL + SpeechToTextPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		apiErr.StatusCode = resp.StatusCode
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return "", apiErr
	}

	var result transcription
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response JSON: %w", err)
	}

	log.Info().
		Str("detected_language", result.LanguageCode).
		Float64("confidence", result.LanguageProbability).
		Int("text_length", len(result.Text)).
		Msg("Audio transcription completed")

	return strings.TrimSpace(result.Text), nil
}
