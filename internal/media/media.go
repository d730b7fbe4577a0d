package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/pkg/blob"
)

// Synthesizer converts text to MP3 speech with the named voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// AudioSummary is a stored spoken rendition of a text summary.
type AudioSummary struct {
	URL    string
	Path   string
	Voice  string
	Cached bool
}

// Service synthesizes audio summaries and stores them as blobs. Identical
// text and voice produce the same storage path, so repeated requests hit the
// stored copy instead of the TTS backend.
type Service struct {
	tts     Synthesizer
	storage blob.Storage
	log     *slog.Logger
}

// NewService creates the audio summary service. Panics on nil collaborators.
func NewService(tts Synthesizer, storage blob.Storage, log *slog.Logger) *Service {
	if tts == nil {
		panic("media.NewService: nil synthesizer")
	}
	if storage == nil {
		panic("media.NewService: nil storage")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{tts: tts, storage: storage, log: log}
}

// Voice table keyed by "<language>/<gender>". Unknown combinations fall back
// to the English female voice.
var voices = map[string]string{
	"en/female": "en-US-Standard-C",
	"en/male":   "en-US-Standard-D",
	"ru/female": "ru-RU-Standard-A",
	"ru/male":   "ru-RU-Standard-B",
}

// VoiceFor picks the synthesis voice for the user's preferences.
func VoiceFor(prefs store.Preferences) string {
	if v, ok := voices[prefs.VoiceLanguage+"/"+prefs.VoiceGender]; ok {
		return v
	}
	return voices["en/female"]
}

// Generate synthesizes the summary text and stores the MP3, returning the
// URL to send to the user.
func (s *Service) Generate(ctx context.Context, text string, prefs store.Preferences) (*AudioSummary, error) {
	voice := VoiceFor(prefs)
	path := audioPath(text, voice)

	if s.storage.Exists(ctx, path) {
		s.log.DebugContext(ctx, "audio summary served from storage",
			slog.String("path", path))
		return &AudioSummary{
			URL:    s.storage.URL(path),
			Path:   path,
			Voice:  voice,
			Cached: true,
		}, nil
	}

	start := time.Now()
	audio, err := s.tts.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}

	obj, err := s.storage.Put(ctx, path, audio, "audio/mpeg")
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "audio summary generated",
		slog.String("path", path),
		slog.String("voice", voice),
		slog.Int("bytes", len(audio)),
		slog.Duration("took", time.Since(start)))

	return &AudioSummary{
		URL:   obj.URL,
		Path:  obj.Path,
		Voice: voice,
	}, nil
}

func audioPath(text, voice string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + voice))
	return fmt.Sprintf("summaries/%s.mp3", hex.EncodeToString(sum[:16]))
}
