package processor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NextMind-AI/marlie/dialog"
	"github.com/NextMind-AI/marlie/vonage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	to, text, replyTo string
}

type fakeTransport struct {
	mu      sync.Mutex
	read    []string
	sent    []sentMessage
	sendErr error
	readErr error
}

func (f *fakeTransport) MarkMessageAsRead(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, messageID)
	return f.readErr
}

func (f *fakeTransport) SendWhatsAppReplyMessage(_ context.Context, toNumber, text, messageUUID string) (*vonage.MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: toNumber, text: text, replyTo: messageUUID})
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &vonage.MessageResponse{MessageUUID: "out-" + messageUUID}, nil
}

type fakeTranscriber struct {
	text string
	err  error
	urls []string
}

func (f *fakeTranscriber) TranscribeAudio(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.text, f.err
}

type fakeHandler struct {
	reply string
	err   error
	turns []dialog.Turn
}

func (f *fakeHandler) HandleTurn(_ context.Context, turn dialog.Turn) (string, error) {
	f.turns = append(f.turns, turn)
	return f.reply, f.err
}

func textMessage(text string) InboundMessage {
	return InboundMessage{
		MessageUUID: "in-1",
		From:        "5563999990000",
		MessageType: "text",
		Text:        text,
		Profile:     Profile{Name: "Maria"},
	}
}

func TestProcessTextMessage(t *testing.T) {
	transport := &fakeTransport{}
	handler := &fakeHandler{reply: "Qual serviço você gostaria de agendar?"}
	mp := NewMessageProcessor(transport, nil, handler, nil)

	mp.ProcessMessage(textMessage("  quero agendar  "))

	assert.Equal(t, []string{"in-1"}, transport.read)
	require.Len(t, handler.turns, 1)
	assert.Equal(t, dialog.Turn{Text: "quero agendar", Phone: "5563999990000", ContactName: "Maria"}, handler.turns[0])
	require.Len(t, transport.sent, 1)
	assert.Equal(t, sentMessage{to: "5563999990000", text: "Qual serviço você gostaria de agendar?", replyTo: "in-1"}, transport.sent[0])
}

func TestProcessAudioMessage(t *testing.T) {
	transport := &fakeTransport{}
	transcriber := &fakeTranscriber{text: "corte feminino amanhã"}
	handler := &fakeHandler{reply: "Qual horário você prefere?"}
	mp := NewMessageProcessor(transport, transcriber, handler, nil)

	msg := InboundMessage{
		MessageUUID: "in-2",
		From:        "5563999990000",
		MessageType: "audio",
		Audio:       &Audio{URL: "https://media.example/voice.ogg"},
	}
	mp.ProcessMessage(msg)

	assert.Equal(t, []string{"https://media.example/voice.ogg"}, transcriber.urls)
	require.Len(t, handler.turns, 1)
	assert.Equal(t, "corte feminino amanhã", handler.turns[0].Text)
	require.Len(t, transport.sent, 1)
}

func TestProcessMessageFallbacks(t *testing.T) {
	testCases := []struct {
		name        string
		message     InboundMessage
		transcriber *fakeTranscriber
		handler     *fakeHandler
		wantReply   string
		wantTurns   int
	}{
		{
			name:      "Unsupported type",
			message:   InboundMessage{MessageUUID: "in-3", From: "5563999990000", MessageType: "image"},
			handler:   &fakeHandler{},
			wantReply: replyUnsupported,
		},
		{
			name: "Transcription failure",
			message: InboundMessage{
				MessageUUID: "in-4", From: "5563999990000", MessageType: "audio",
				Audio: &Audio{URL: "https://media.example/voice.ogg"},
			},
			transcriber: &fakeTranscriber{err: errors.New("elevenlabs down")},
			handler:     &fakeHandler{},
			wantReply:   replyAudioFailed,
		},
		{
			name:      "Turn failure",
			message:   textMessage("oi"),
			handler:   &fakeHandler{err: errors.New("redis down")},
			wantReply: replyFailure,
			wantTurns: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{}
			var transcriber Transcriber
			if tc.transcriber != nil {
				transcriber = tc.transcriber
			}
			mp := NewMessageProcessor(transport, transcriber, tc.handler, nil)

			mp.ProcessMessage(tc.message)

			assert.Len(t, tc.handler.turns, tc.wantTurns)
			require.Len(t, transport.sent, 1)
			assert.Equal(t, tc.wantReply, transport.sent[0].text)
		})
	}
}

func TestProcessEmptyTextSendsNothing(t *testing.T) {
	transport := &fakeTransport{}
	handler := &fakeHandler{}
	mp := NewMessageProcessor(transport, nil, handler, nil)

	mp.ProcessMessage(textMessage("   "))

	assert.Empty(t, handler.turns)
	assert.Empty(t, transport.sent)
	assert.Equal(t, []string{"in-1"}, transport.read)
}

func TestReadReceiptFailureDoesNotStopTurn(t *testing.T) {
	transport := &fakeTransport{readErr: errors.New("gone")}
	handler := &fakeHandler{reply: "ok"}
	mp := NewMessageProcessor(transport, nil, handler, nil)

	mp.ProcessMessage(textMessage("oi"))

	assert.Len(t, handler.turns, 1)
	assert.Len(t, transport.sent, 1)
}

func TestProcessLocalTestMessage(t *testing.T) {
	transport := &fakeTransport{}
	handler := &fakeHandler{reply: "Qual serviço você gostaria de agendar?"}
	mp := NewMessageProcessor(transport, nil, handler, nil)

	msg := LocalTestMessage{Text: "oi", UserID: "5563988887777"}.ConvertToInboundMessage()
	reply, err := mp.ProcessLocalTestMessage(context.Background(), msg)

	require.NoError(t, err)
	assert.Equal(t, "Qual serviço você gostaria de agendar?", reply)
	assert.Equal(t, "5563988887777", handler.turns[0].Phone)
	assert.Equal(t, "Test User", handler.turns[0].ContactName)
	assert.Empty(t, transport.read)
	assert.Empty(t, transport.sent)

	handler.err = errors.New("boom")
	_, err = mp.ProcessLocalTestMessage(context.Background(), msg)
	assert.ErrorContains(t, err, "boom")
}
