package summarizer

import "errors"

var (
	ErrUnsupportedLink         = errors.New("unsupported video link")
	ErrNoTranscript            = errors.New("no transcript available")
	ErrFailedToFetchTranscript = errors.New("failed to fetch transcript")
	ErrEmptyCompletion         = errors.New("empty model completion")
	ErrFailedToSummarize       = errors.New("failed to generate summary")
)
