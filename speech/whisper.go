package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"dysaccess/config"
	"dysaccess/dictation"
)

const (
	groqURL   = "https://api.groq.com/openai/v1/audio/transcriptions"
	openaiURL = "https://api.openai.com/v1/audio/transcriptions"

	// Segments above this are treated as hallucinated filler.
	noSpeechCutoff = 0.6
)

// Transcriber turns one FLAC-encoded utterance into text.
type Transcriber interface {
	Name() string
	// Ready reports a configuration problem before any audio is captured.
	Ready() error
	Transcribe(ctx context.Context, flac []byte) (string, error)
}

// Whisper talks to an OpenAI-compatible transcription endpoint
// (Groq or OpenAI).
type Whisper struct {
	name     string
	endpoint string
	model    string
	apiKey   string
	language string
	client   *http.Client
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// NewWhisper builds the client for cfg.Provider. Endpoint and Model
// override the provider defaults.
func NewWhisper(cfg config.Speech) *Whisper {
	w := &Whisper{
		name:     cfg.Provider,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		client:   newHTTPClient(),
	}
	switch cfg.Provider {
	case "openai":
		w.endpoint, w.model = openaiURL, "whisper-1"
	default:
		w.name = "groq"
		w.endpoint, w.model = groqURL, "whisper-large-v3-turbo"
	}
	if cfg.Endpoint != "" {
		w.endpoint = cfg.Endpoint
	}
	if cfg.Model != "" {
		w.model = cfg.Model
	}
	return w
}

func (w *Whisper) Name() string { return w.name }

func (w *Whisper) Ready() error {
	if w.apiKey == "" {
		return &dictation.Error{Kind: dictation.PermissionDenied, Err: fmt.Errorf("%s: no API key configured", w.name)}
	}
	return nil
}

type whisperResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text         string  `json:"text"`
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
}

func (w *Whisper) Transcribe(ctx context.Context, flac []byte) (string, error) {
	if err := w.Ready(); err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "audio.flac")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(flac); err != nil {
		return "", err
	}
	writer.WriteField("model", w.model)
	writer.WriteField("response_format", "verbose_json")
	if w.language != "" {
		writer.WriteField("language", w.language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", classifyTransport(ctx, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransport(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(w.name, resp.StatusCode, data)
	}

	var wr whisperResponse
	if err := json.Unmarshal(data, &wr); err != nil {
		return "", &dictation.Error{Kind: dictation.ServiceUnavailable, Err: fmt.Errorf("%s response parse error: %w", w.name, err)}
	}
	return wr.text(), nil
}

// text drops segments the model itself flags as probably not speech.
func (r whisperResponse) text() string {
	if len(r.Segments) == 0 {
		return strings.TrimSpace(r.Text)
	}
	var b strings.Builder
	for _, seg := range r.Segments {
		if seg.NoSpeechProb > noSpeechCutoff {
			continue
		}
		b.WriteString(seg.Text)
	}
	return strings.TrimSpace(b.String())
}

func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &dictation.Error{Kind: dictation.UserAborted, Err: err}
	}
	return &dictation.Error{Kind: dictation.NetworkUnavailable, Err: err}
}

func classifyStatus(name string, code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	err := fmt.Errorf("%s API error %d: %s", name, code, msg)
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return &dictation.Error{Kind: dictation.PermissionDenied, Err: err}
	case code == http.StatusTooManyRequests, code >= 500:
		return &dictation.Error{Kind: dictation.ServiceUnavailable, Err: err}
	}
	return &dictation.Error{Kind: dictation.Unknown, Err: err}
}
