package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/NextMind-AI/marlie/dialog"
	"github.com/NextMind-AI/marlie/metrics"

	"github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
)

const defaultExtractTimeout = 20 * time.Second

var _ dialog.Extractor = (*Extractor)(nil)

// Extractor reads intent and booking fields from a customer message using a
// structured chat completion. It never fails: any problem yields IntentOther.
type Extractor struct {
	client   Client
	location *time.Location
	timeout  time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewExtractor(client Client, location *time.Location, m *metrics.Metrics) *Extractor {
	if location == nil {
		location = time.UTC
	}
	return &Extractor{
		client:   client,
		location: location,
		timeout:  defaultExtractTimeout,
		metrics:  m,
		now:      time.Now,
	}
}

func (e *Extractor) Extract(ctx context.Context, text string, history []dialog.Message) dialog.Extraction {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	completion, err := e.client.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages:    buildMessages(e.now().In(e.location), text, history),
			Model:       e.client.model,
			Temperature: openai.Float(0),
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: createSchemaParam()},
			},
		},
	)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		e.metrics.ObserveExternal("openai", "extract", "error", elapsed)
		log.Error().
			Err(err).
			Msg("Error calling OpenAI for message extraction")
		return fallbackExtraction()
	}
	e.metrics.ObserveExternal("openai", "extract", "ok", elapsed)

	if len(completion.Choices) == 0 {
		log.Warn().Msg("OpenAI returned no choices for message extraction")
		return fallbackExtraction()
	}

	ext := parseExtraction(completion.Choices[0].Message.Content)

	log.Debug().
		Str("intent", string(ext.Intent)).
		Str("service", ext.ServiceName).
		Str("date", ext.Date).
		Str("time", ext.Time).
		Msg("Message extracted")

	return ext
}

// buildMessages keeps only user and assistant turns of the history; the
// current text is always the last message.
func buildMessages(now time.Time, text string, history []dialog.Message) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt(now)),
	}
	for _, msg := range history {
		switch msg.Role {
		case dialog.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case dialog.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return append(messages, openai.UserMessage(text))
}

func parseExtraction(content string) dialog.Extraction {
	content = strings.TrimSpace(content)
	if content == "" {
		return fallbackExtraction()
	}

	var ext dialog.Extraction
	if err := json.Unmarshal([]byte(content), &ext); err != nil {
		log.Warn().
			Err(err).
			Int("content_length", len(content)).
			Msg("Discarding unparseable extraction")
		return fallbackExtraction()
	}

	ext.Intent = dialog.Intent(strings.ToLower(strings.TrimSpace(string(ext.Intent))))
	if !ext.Intent.Known() {
		ext.Intent = dialog.IntentOther
	}
	ext.Question = strings.TrimSpace(ext.Question)
	ext.Name = strings.TrimSpace(ext.Name)
	ext.Phone = strings.TrimSpace(ext.Phone)
	ext.Email = strings.TrimSpace(ext.Email)
	ext.ServiceName = strings.TrimSpace(ext.ServiceName)
	ext.Date = strings.TrimSpace(ext.Date)
	ext.Time = strings.TrimSpace(ext.Time)
	ext.ProfessionalName = strings.TrimSpace(ext.ProfessionalName)
	return ext
}

func fallbackExtraction() dialog.Extraction {
	return dialog.Extraction{Intent: dialog.IntentOther}
}
