package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const googleTTSBaseURL = "https://texttospeech.googleapis.com/v1"

// GoogleTTSConfig configures the Text-to-Speech REST client.
type GoogleTTSConfig struct {
	APIKey string `env:"GOOGLE_TTS_API_KEY,required"`
}

// GoogleTTS synthesizes speech through the Google Cloud Text-to-Speech REST
// API.
type GoogleTTS struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// GoogleTTSOption customizes the client.
type GoogleTTSOption func(*GoogleTTS)

// WithTTSBaseURL overrides the endpoint, mainly for tests.
func WithTTSBaseURL(u string) GoogleTTSOption {
	return func(t *GoogleTTS) {
		if u == "" {
			panic("media.WithTTSBaseURL: empty URL")
		}
		t.baseURL = u
	}
}

// WithTTSHTTPClient replaces the HTTP client.
func WithTTSHTTPClient(hc *http.Client) GoogleTTSOption {
	return func(t *GoogleTTS) {
		if hc == nil {
			panic("media.WithTTSHTTPClient: nil client")
		}
		t.httpClient = hc
	}
}

// NewGoogleTTS creates the client. Panics on a missing API key.
func NewGoogleTTS(cfg GoogleTTSConfig, opts ...GoogleTTSOption) *GoogleTTS {
	if cfg.APIKey == "" {
		panic("media.NewGoogleTTS: empty API key")
	}
	t := &GoogleTTS{
		apiKey:     cfg.APIKey,
		baseURL:    googleTTSBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Synthesize renders text as MP3 using the named voice. The language code is
// the first two segments of the voice name.
func (t *GoogleTTS) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	languageCode := voice
	if len(voice) > 5 {
		languageCode = voice[:5]
	}

	reqBody := map[string]any{
		"input": map[string]string{"text": text},
		"voice": map[string]string{
			"languageCode": languageCode,
			"name":         voice,
		},
		"audioConfig": map[string]any{
			"audioEncoding": "MP3",
			"speakingRate":  1.0,
			"pitch":         0.0,
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/text:synthesize?key="+t.apiKey, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("texttospeech: unexpected status %s: %s", resp.Status, msg)
	}

	var respBody struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, err
	}
	if respBody.AudioContent == "" {
		return nil, fmt.Errorf("texttospeech: empty audio content")
	}
	return base64.StdEncoding.DecodeString(respBody.AudioContent)
}
