package media_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-bot/briefly/internal/media"
	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/pkg/blob"
)

type fakeTTS struct {
	calls int
	voice string
	audio []byte
	err   error
}

func (f *fakeTTS) Synthesize(_ context.Context, _, voice string) ([]byte, error) {
	f.calls++
	f.voice = voice
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

func newLocalStorage(t *testing.T) *blob.LocalStorage {
	t.Helper()
	storage, err := blob.NewLocalStorage(blob.LocalConfig{
		BaseDir: t.TempDir(),
		BaseURL: "https://cdn.example.com",
	})
	require.NoError(t, err)
	return storage
}

func TestVoiceFor(t *testing.T) {
	t.Parallel()

	prefs := store.DefaultPreferences()
	assert.Equal(t, "en-US-Standard-C", media.VoiceFor(prefs))

	prefs.VoiceGender = "male"
	assert.Equal(t, "en-US-Standard-D", media.VoiceFor(prefs))

	prefs.VoiceLanguage = "ru"
	assert.Equal(t, "ru-RU-Standard-B", media.VoiceFor(prefs))

	prefs.VoiceLanguage = "xx"
	assert.Equal(t, "en-US-Standard-C", media.VoiceFor(prefs))
}

func TestServiceGenerate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("synthesizes and stores", func(t *testing.T) {
		t.Parallel()

		tts := &fakeTTS{audio: []byte("mp3 bytes")}
		storage := newLocalStorage(t)
		svc := media.NewService(tts, storage, nil)

		out, err := svc.Generate(ctx, "a summary", store.DefaultPreferences())
		require.NoError(t, err)

		assert.False(t, out.Cached)
		assert.Equal(t, "en-US-Standard-C", out.Voice)
		assert.Contains(t, out.Path, "summaries/")
		assert.Contains(t, out.URL, "https://cdn.example.com/")

		stored, err := storage.Get(ctx, out.Path)
		require.NoError(t, err)
		assert.Equal(t, []byte("mp3 bytes"), stored)
	})

	t.Run("repeated generation hits storage", func(t *testing.T) {
		t.Parallel()

		tts := &fakeTTS{audio: []byte("mp3")}
		svc := media.NewService(tts, newLocalStorage(t), nil)

		first, err := svc.Generate(ctx, "same text", store.DefaultPreferences())
		require.NoError(t, err)
		second, err := svc.Generate(ctx, "same text", store.DefaultPreferences())
		require.NoError(t, err)

		assert.Equal(t, 1, tts.calls)
		assert.False(t, first.Cached)
		assert.True(t, second.Cached)
		assert.Equal(t, first.Path, second.Path)
	})

	t.Run("different voice gets its own blob", func(t *testing.T) {
		t.Parallel()

		tts := &fakeTTS{audio: []byte("mp3")}
		svc := media.NewService(tts, newLocalStorage(t), nil)

		prefs := store.DefaultPreferences()
		first, err := svc.Generate(ctx, "text", prefs)
		require.NoError(t, err)

		prefs.VoiceGender = "male"
		second, err := svc.Generate(ctx, "text", prefs)
		require.NoError(t, err)

		assert.NotEqual(t, first.Path, second.Path)
		assert.Equal(t, 2, tts.calls)
	})

	t.Run("synthesis failure propagates", func(t *testing.T) {
		t.Parallel()

		svc := media.NewService(&fakeTTS{err: assert.AnError}, newLocalStorage(t), nil)
		_, err := svc.Generate(ctx, "text", store.DefaultPreferences())
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestGoogleTTS(t *testing.T) {
	t.Parallel()

	t.Run("synthesizes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/text:synthesize", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			// "bW9ja21wMw==" decodes to "mockmp3".
			_, _ = w.Write([]byte(`{"audioContent":"bW9ja21wMw=="}`))
		}))
		t.Cleanup(srv.Close)

		tts := media.NewGoogleTTS(
			media.GoogleTTSConfig{APIKey: "test-key"},
			media.WithTTSBaseURL(srv.URL),
			media.WithTTSHTTPClient(srv.Client()),
		)

		audio, err := tts.Synthesize(context.Background(), "hello", "en-US-Standard-C")
		require.NoError(t, err)
		assert.Equal(t, []byte("mockmp3"), audio)
	})

	t.Run("API error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		t.Cleanup(srv.Close)

		tts := media.NewGoogleTTS(
			media.GoogleTTSConfig{APIKey: "test-key"},
			media.WithTTSBaseURL(srv.URL),
			media.WithTTSHTTPClient(srv.Client()),
		)

		_, err := tts.Synthesize(context.Background(), "hello", "en-US-Standard-C")
		assert.Error(t, err)
	})

	t.Run("missing key panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { media.NewGoogleTTS(media.GoogleTTSConfig{}) })
	})
}
