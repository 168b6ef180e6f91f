package elevenlabs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribeAudio(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/media/voice.ogg", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "OggS-fake-audio")
	})
	mux.HandleFunc(SpeechToTextPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, DefaultModel, r.FormValue("model_id"))
		assert.Equal(t, "pt", r.FormValue("language_code"))

		file, _, err := r.FormFile("file")
		if assert.NoError(t, err) {
			data, _ := io.ReadAll(file)
			assert.Equal(t, "OggS-fake-audio", string(data))
		}
		io.WriteString(w, `{"language_code":"por","language_probability":0.98,"text":" quero marcar um corte amanhã "}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient("secret", http.Client{})
	client.BaseURL = srv.URL

	text, err := client.TranscribeAudio(context.Background(), srv.URL+"/media/voice.ogg")

	require.NoError(t, err)
	assert.Equal(t, "quero marcar um corte amanhã", text)
}

func TestTranscribeAudioErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/media/missing.ogg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/media/voice.ogg", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "audio")
	})
	mux.HandleFunc(SpeechToTextPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"invalid api key"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient("bad", http.Client{})
	client.BaseURL = srv.URL

	_, err := client.TranscribeAudio(context.Background(), srv.URL+"/media/missing.ogg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")

	_, err = client.TranscribeAudio(context.Background(), srv.URL+"/media/voice.ogg")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
