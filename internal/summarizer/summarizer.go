package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/briefly-bot/briefly/internal/store"
)

// Summary is the result of one summarization run. ProcessingSeconds feeds
// the per-user usage statistics.
type Summary struct {
	Text              string
	Language          string
	VideoID           string
	ContentLength     int
	ProcessingSeconds float64
}

// Service turns a video link into a summary honoring the user's length and
// language preferences.
type Service struct {
	chat        ChatClient
	transcripts TranscriptFetcher
	log         *slog.Logger
}

// NewService creates the summarizer. Panics on nil collaborators.
func NewService(chat ChatClient, transcripts TranscriptFetcher, log *slog.Logger) *Service {
	if chat == nil {
		panic("summarizer.NewService: nil chat client")
	}
	if transcripts == nil {
		panic("summarizer.NewService: nil transcript fetcher")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{chat: chat, transcripts: transcripts, log: log}
}

var detailLevels = map[store.SummaryLength]string{
	store.SummaryShort:    "Create a brief overview focusing only on the most important points",
	store.SummaryMedium:   "Create a balanced summary covering main points and key details",
	store.SummaryDetailed: "Create a comprehensive summary including main points, key details, and supporting information",
}

// Summarize fetches the transcript and produces a summary in the preferred
// language. The transcript languages tried are the user's language first,
// then English.
func (s *Service) Summarize(ctx context.Context, link string, prefs store.Preferences) (*Summary, error) {
	start := time.Now()

	videoID, err := VideoID(link)
	if err != nil {
		return nil, err
	}

	languages := []string{"en"}
	if prefs.SummaryLanguage != "" && prefs.SummaryLanguage != "en" {
		languages = []string{prefs.SummaryLanguage, "en"}
	}

	transcript, err := s.transcripts.Transcript(ctx, videoID, languages)
	if err != nil {
		return nil, err
	}

	detail, ok := detailLevels[prefs.SummaryLength]
	if !ok {
		detail = detailLevels[store.SummaryMedium]
	}
	language := prefs.SummaryLanguage
	if language == "" {
		language = "en"
	}

	prompt := fmt.Sprintf("Generate a summary of this content in %s. %s:\n\n%s",
		language, detail, transcript)

	text, err := s.chat.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start).Seconds()
	s.log.InfoContext(ctx, "summary generated",
		slog.String("video_id", videoID),
		slog.Int("transcript_chars", len(transcript)),
		slog.Int("summary_chars", len(text)),
		slog.Float64("processing_seconds", elapsed))

	return &Summary{
		Text:              text,
		Language:          language,
		VideoID:           videoID,
		ContentLength:     len(transcript),
		ProcessingSeconds: elapsed,
	}, nil
}
