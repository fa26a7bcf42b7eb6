package engine

import "context"

// TranscriptEntry is one caption unit with its timing in seconds.
type TranscriptEntry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptFetcher retrieves the full transcript of a video in caption order.
// languages lists preferred caption languages; empty means the fetcher's default.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) ([]TranscriptEntry, error)
}
