package summarizer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/summarizer"
)

func TestVideoID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{name: "watch URL", link: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "watch with extra params", link: "https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", want: "dQw4w9WgXcQ"},
		{name: "short link", link: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "short link with query", link: "https://youtu.be/dQw4w9WgXcQ?si=abc", want: "dQw4w9WgXcQ"},
		{name: "shorts", link: "https://www.youtube.com/shorts/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "embed", link: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "mobile", link: "https://m.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "live", link: "https://www.youtube.com/live/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "whitespace", link: "  https://youtu.be/dQw4w9WgXcQ  ", want: "dQw4w9WgXcQ"},
		{name: "other host", link: "https://vimeo.com/12345", wantErr: true},
		{name: "short id", link: "https://youtu.be/short", wantErr: true},
		{name: "bad characters", link: "https://youtu.be/dQw4w9WgXc!", wantErr: true},
		{name: "plain text", link: "hello world", wantErr: true},
		{name: "empty", link: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := summarizer.VideoID(tt.link)
			if tt.wantErr {
				assert.ErrorIs(t, err, summarizer.ErrUnsupportedLink)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestTimedTextClient(t *testing.T) {
	t.Parallel()

	t.Run("joins caption lines", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
			assert.Equal(t, "en", r.URL.Query().Get("lang"))
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0" dur="2">Never gonna</text>
  <text start="2" dur="2">give you up &amp; let you down</text>
  <text start="4" dur="2">  </text>
</transcript>`))
		}))
		t.Cleanup(srv.Close)

		client := summarizer.NewTimedTextClient(
			summarizer.WithTimedTextBaseURL(srv.URL),
			summarizer.WithTimedTextHTTPClient(srv.Client()),
		)

		text, err := client.Transcript(context.Background(), "dQw4w9WgXcQ", []string{"en"})
		require.NoError(t, err)
		assert.Equal(t, "Never gonna give you up & let you down", text)
	})

	t.Run("falls back to next language", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("lang") == "ru" {
				// Empty body means no track for this language.
				return
			}
			_, _ = w.Write([]byte(`<transcript><text>english only</text></transcript>`))
		}))
		t.Cleanup(srv.Close)

		client := summarizer.NewTimedTextClient(
			summarizer.WithTimedTextBaseURL(srv.URL),
			summarizer.WithTimedTextHTTPClient(srv.Client()),
		)

		text, err := client.Transcript(context.Background(), "dQw4w9WgXcQ", []string{"ru", "en"})
		require.NoError(t, err)
		assert.Equal(t, "english only", text)
	})

	t.Run("no transcript in any language", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		t.Cleanup(srv.Close)

		client := summarizer.NewTimedTextClient(
			summarizer.WithTimedTextBaseURL(srv.URL),
			summarizer.WithTimedTextHTTPClient(srv.Client()),
		)

		_, err := client.Transcript(context.Background(), "dQw4w9WgXcQ", []string{"en"})
		assert.ErrorIs(t, err, summarizer.ErrNoTranscript)
	})
}

type fakeChat struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeChat) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeTranscripts struct {
	languages []string
	text      string
	err       error
}

func (f *fakeTranscripts) Transcript(_ context.Context, _ string, languages []string) (string, error) {
	f.languages = languages
	return f.text, f.err
}

func TestServiceSummarize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("builds prompt from preferences", func(t *testing.T) {
		t.Parallel()

		chat := &fakeChat{reply: "a summary"}
		transcripts := &fakeTranscripts{text: "the transcript"}
		svc := summarizer.NewService(chat, transcripts, nil)

		prefs := store.DefaultPreferences()
		prefs.SummaryLanguage = "ru"
		prefs.SummaryLength = store.SummaryShort

		summary, err := svc.Summarize(ctx, "https://youtu.be/dQw4w9WgXcQ", prefs)
		require.NoError(t, err)

		assert.Equal(t, "a summary", summary.Text)
		assert.Equal(t, "ru", summary.Language)
		assert.Equal(t, "dQw4w9WgXcQ", summary.VideoID)
		assert.Equal(t, len("the transcript"), summary.ContentLength)
		assert.GreaterOrEqual(t, summary.ProcessingSeconds, 0.0)

		assert.Equal(t, []string{"ru", "en"}, transcripts.languages)
		assert.True(t, strings.HasPrefix(chat.prompt, "Generate a summary of this content in ru."))
		assert.Contains(t, chat.prompt, "brief overview")
		assert.Contains(t, chat.prompt, "the transcript")
	})

	t.Run("unknown length falls back to medium", func(t *testing.T) {
		t.Parallel()

		chat := &fakeChat{reply: "s"}
		svc := summarizer.NewService(chat, &fakeTranscripts{text: "t"}, nil)

		prefs := store.DefaultPreferences()
		prefs.SummaryLength = "epic"

		_, err := svc.Summarize(ctx, "https://youtu.be/dQw4w9WgXcQ", prefs)
		require.NoError(t, err)
		assert.Contains(t, chat.prompt, "balanced summary")
	})

	t.Run("unsupported link", func(t *testing.T) {
		t.Parallel()

		svc := summarizer.NewService(&fakeChat{}, &fakeTranscripts{}, nil)
		_, err := svc.Summarize(ctx, "not a link", store.DefaultPreferences())
		assert.ErrorIs(t, err, summarizer.ErrUnsupportedLink)
	})

	t.Run("transcript failure propagates", func(t *testing.T) {
		t.Parallel()

		svc := summarizer.NewService(&fakeChat{}, &fakeTranscripts{err: summarizer.ErrNoTranscript}, nil)
		_, err := svc.Summarize(ctx, "https://youtu.be/dQw4w9WgXcQ", store.DefaultPreferences())
		assert.ErrorIs(t, err, summarizer.ErrNoTranscript)
	})

	t.Run("chat failure propagates", func(t *testing.T) {
		t.Parallel()

		svc := summarizer.NewService(&fakeChat{err: summarizer.ErrEmptyCompletion}, &fakeTranscripts{text: "t"}, nil)
		_, err := svc.Summarize(ctx, "https://youtu.be/dQw4w9WgXcQ", store.DefaultPreferences())
		assert.ErrorIs(t, err, summarizer.ErrEmptyCompletion)
	})
}

func TestOpenAIClient(t *testing.T) {
	t.Parallel()

	t.Run("completes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
		}))
		t.Cleanup(srv.Close)

		client := summarizer.NewOpenAIClient(
			summarizer.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL},
			summarizer.WithOpenAIHTTPClient(srv.Client()),
		)

		out, err := client.Complete(context.Background(), "say hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("empty choices", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		t.Cleanup(srv.Close)

		client := summarizer.NewOpenAIClient(
			summarizer.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL},
			summarizer.WithOpenAIHTTPClient(srv.Client()),
		)

		_, err := client.Complete(context.Background(), "p")
		assert.ErrorIs(t, err, summarizer.ErrEmptyCompletion)
	})

	t.Run("API error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		t.Cleanup(srv.Close)

		client := summarizer.NewOpenAIClient(
			summarizer.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL},
			summarizer.WithOpenAIHTTPClient(srv.Client()),
		)

		_, err := client.Complete(context.Background(), "p")
		assert.ErrorIs(t, err, summarizer.ErrFailedToSummarize)
	})
}
