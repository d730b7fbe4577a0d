package summarizer

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const timedTextBaseURL = "https://video.google.com/timedtext"

// TranscriptFetcher retrieves the spoken text of a video.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string, languages []string) (string, error)
}

// TimedTextClient fetches captions from YouTube's timedtext endpoint. It
// tries the requested languages in order and joins caption lines into one
// block of text.
type TimedTextClient struct {
	baseURL    string
	httpClient *http.Client
}

// TimedTextOption customizes the client.
type TimedTextOption func(*TimedTextClient)

// WithTimedTextBaseURL overrides the endpoint, mainly for tests.
func WithTimedTextBaseURL(u string) TimedTextOption {
	return func(c *TimedTextClient) {
		if u == "" {
			panic("summarizer.WithTimedTextBaseURL: empty URL")
		}
		c.baseURL = u
	}
}

// WithTimedTextHTTPClient replaces the HTTP client.
func WithTimedTextHTTPClient(hc *http.Client) TimedTextOption {
	return func(c *TimedTextClient) {
		if hc == nil {
			panic("summarizer.WithTimedTextHTTPClient: nil client")
		}
		c.httpClient = hc
	}
}

func NewTimedTextClient(opts ...TimedTextOption) *TimedTextClient {
	c := &TimedTextClient{
		baseURL:    timedTextBaseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type timedTextDoc struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// Transcript returns the first non-empty caption track among the given
// languages.
func (c *TimedTextClient) Transcript(ctx context.Context, videoID string, languages []string) (string, error) {
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	var lastErr error
	for _, lang := range languages {
		text, err := c.fetch(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			continue
		}
		if text != "" {
			return text, nil
		}
	}
	if lastErr != nil {
		return "", errors.Join(ErrFailedToFetchTranscript, lastErr)
	}
	return "", fmt.Errorf("%w: video %s", ErrNoTranscript, videoID)
}

func (c *TimedTextClient) fetch(ctx context.Context, videoID, lang string) (string, error) {
	q := url.Values{"v": {videoID}, "lang": {lang}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		// YouTube answers 200 with an empty body when no track exists.
		return "", nil
	}

	var doc timedTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		if t := strings.TrimSpace(html.UnescapeString(line.Text)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}
