package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NextMind-AI/marlie/dialog"

	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseExtraction(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected dialog.Extraction
	}{
		{
			name:  "Schedule with slots",
			input: `{"intent":"schedule","question":"","name":"","phone":"","email":"","serviceName":" corte feminino ","date":"2030-05-10","time":"15:00","professionalName":""}`,
			expected: dialog.Extraction{
				Intent:      dialog.IntentSchedule,
				ServiceName: "corte feminino",
				Date:        "2030-05-10",
				Time:        "15:00",
			},
		},
		{
			name:     "Intent case is normalized",
			input:    `{"intent":" FAQ ","question":"Vocês aceitam pix?"}`,
			expected: dialog.Extraction{Intent: dialog.IntentFAQ, Question: "Vocês aceitam pix?"},
		},
		{
			name:     "Unknown intent becomes other",
			input:    `{"intent":"cancel","serviceName":"escova"}`,
			expected: dialog.Extraction{Intent: dialog.IntentOther, ServiceName: "escova"},
		},
		{
			name:     "Missing intent becomes other",
			input:    `{"name":"Maria"}`,
			expected: dialog.Extraction{Intent: dialog.IntentOther, Name: "Maria"},
		},
		{
			name:     "Invalid JSON",
			input:    `{"intent": "schedule"`,
			expected: dialog.Extraction{Intent: dialog.IntentOther},
		},
		{
			name:     "Empty content",
			input:    "   ",
			expected: dialog.Extraction{Intent: dialog.IntentOther},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseExtraction(tc.input)
			if got != tc.expected {
				t.Errorf("Expected %+v, got %+v", tc.expected, got)
			}
		})
	}
}

func TestSystemPromptCarriesDate(t *testing.T) {
	loc := time.FixedZone("America/Araguaina", -3*60*60)
	now := time.Date(2030, 5, 9, 10, 0, 0, 0, loc)

	prompt := systemPrompt(now)

	if !strings.Contains(prompt, "Hoje é quinta-feira, 2030-05-09") {
		t.Errorf("Expected prompt to carry today's date, got tail %q", prompt[len(prompt)-80:])
	}
	if !strings.Contains(prompt, "America/Araguaina") {
		t.Error("Expected prompt to carry the timezone name")
	}
}

func TestBuildMessagesSkipsUnknownRoles(t *testing.T) {
	history := []dialog.Message{
		{Role: dialog.RoleUser, Content: "oi"},
		{Role: "system", Content: "ignored"},
		{Role: dialog.RoleAssistant, Content: "Olá! Qual serviço?"},
	}

	messages := buildMessages(time.Now(), "corte amanhã", history)

	if len(messages) != 4 {
		t.Fatalf("Expected 4 messages (system, user, assistant, user), got %d", len(messages))
	}
	if messages[0].OfSystem == nil {
		t.Error("Expected first message to be the system prompt")
	}
	if messages[3].OfUser == nil {
		t.Error("Expected the current text to be the last user message")
	}
}

type recordedRequest struct {
	Model          string            `json:"model"`
	Messages       []json.RawMessage `json:"messages"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string `json:"name"`
			Strict bool   `json:"strict"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

func newTestExtractor(t *testing.T, handler http.HandlerFunc) *Extractor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("test-key", http.Client{}, option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	extractor := NewExtractor(client, time.UTC, nil)
	extractor.now = func() time.Time { return time.Date(2030, 5, 9, 13, 0, 0, 0, time.UTC) }
	return extractor
}

func completionBody(content string) string {
	encoded, _ := json.Marshal(content)
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4.1-mini",` +
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(encoded) + `}}]}`
}

func TestExtractorSendsStrictSchema(t *testing.T) {
	var got recordedRequest
	extractor := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("Request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionBody(`{"intent":"schedule","question":"","name":"","phone":"","email":"","serviceName":"manicure","date":"2030-05-10","time":"","professionalName":""}`))
	})

	ext := extractor.Extract(context.Background(), "quero manicure amanhã", []dialog.Message{{Role: dialog.RoleUser, Content: "oi"}})

	if ext.Intent != dialog.IntentSchedule || ext.ServiceName != "manicure" || ext.Date != "2030-05-10" {
		t.Errorf("Unexpected extraction %+v", ext)
	}
	if got.Model != "gpt-4.1-mini" {
		t.Errorf("Expected gpt-4.1-mini, got %q", got.Model)
	}
	if got.ResponseFormat.Type != "json_schema" || !got.ResponseFormat.JSONSchema.Strict {
		t.Errorf("Expected strict json_schema response format, got %+v", got.ResponseFormat)
	}
	if len(got.Messages) != 3 {
		t.Errorf("Expected system, history and current message, got %d", len(got.Messages))
	}
}

func TestExtractorFailsSoft(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			},
		},
		{
			name: "No choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4.1-mini","choices":[]}`)
			},
		},
		{
			name: "Content is not JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, completionBody("desculpe, não entendi"))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			extractor := newTestExtractor(t, tc.handler)

			ext := extractor.Extract(context.Background(), "oi", nil)

			if ext != (dialog.Extraction{Intent: dialog.IntentOther}) {
				t.Errorf("Expected fallback extraction, got %+v", ext)
			}
		})
	}
}

func TestExtractorLogsExtractionOnce(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	extractor := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionBody(`{"intent":"hours","question":"","name":"","phone":"","email":"","serviceName":"","date":"","time":"","professionalName":""}`))
	})

	extractor.Extract(context.Background(), "que horas abre?", nil)

	if n := strings.Count(buf.String(), `"message":"Message extracted"`); n != 1 {
		t.Errorf("Expected one extraction log line, got %d in %s", n, buf.String())
	}
}
