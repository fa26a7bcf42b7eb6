package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

var videoIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// YouTubeConfig configures a YouTube transcript client.
type YouTubeConfig struct {
	Requester engine.Requester
	Languages []string      // default preference order, e.g. ["en"]
	Timeout   time.Duration // per Fetch; 0 = caller's deadline only
	RPS       float64       // outbound fetch throttle; 0 = unthrottled
	Metrics   *engine.Metrics
}

// YouTube fetches transcripts from YouTube's caption service.
// Safe for concurrent use.
type YouTube struct {
	req       engine.Requester
	baseURL   string
	languages []string
	timeout   time.Duration
	throttle  *rate.Limiter
	metrics   *engine.Metrics
}

// NewYouTube creates a transcript client.
func NewYouTube(c YouTubeConfig) *YouTube {
	y := &YouTube{
		req:       c.Requester,
		baseURL:   ytBaseURL,
		languages: c.Languages,
		timeout:   c.Timeout,
		metrics:   c.Metrics,
	}
	if len(y.languages) == 0 {
		y.languages = []string{"en"}
	}
	if c.RPS > 0 {
		burst := int(c.RPS)
		if burst < 1 {
			burst = 1
		}
		y.throttle = rate.NewLimiter(rate.Limit(c.RPS), burst)
	}
	return y
}

// Fetch retrieves the transcript of videoID in caption order.
// languages overrides the configured preference order when non-empty.
// Every failure is an *engine.UpstreamError. No retries are made.
func (y *YouTube) Fetch(ctx context.Context, videoID string, languages []string) ([]engine.TranscriptEntry, error) {
	if !videoIDRE.MatchString(videoID) {
		return nil, engine.NewUpstreamError(videoID, engine.ReasonInvalidVideoID,
			"%q is not a valid video ID; pass the 11-character ID, not the URL", videoID)
	}
	if len(languages) == 0 {
		languages = y.languages
	}
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	start := time.Now()
	var entries []engine.TranscriptEntry
	err := engine.TrackOperation(ctx, "youtube_transcript", func(ctx context.Context) error {
		var err error
		entries, err = y.fetch(ctx, videoID, languages)
		return err
	})

	var reason engine.Reason
	if err != nil {
		ue := engine.WrapUpstream(videoID, "transcript fetch", err)
		reason = ue.Reason
		slog.Warn("youtube: transcript fetch failed",
			slog.String("id", videoID),
			slog.String("reason", string(ue.Reason)),
			slog.Any("err", ue))
		err = ue
	}
	y.metrics.ObserveUpstream(reason, time.Since(start))
	return entries, err
}

func (y *YouTube) fetch(ctx context.Context, videoID string, languages []string) ([]engine.TranscriptEntry, error) {
	if y.throttle != nil {
		if err := y.throttle.Wait(ctx); err != nil {
			return nil, &engine.UpstreamError{VideoID: videoID, Reason: engine.ReasonTransient,
				Message: "upstream throttle", Err: err}
		}
	}

	page, err := y.fetchWatchHTML(ctx, videoID)
	if err != nil {
		return nil, err
	}
	apiKey, err := extractAPIKey(videoID, page)
	if err != nil {
		return nil, err
	}

	player, err := y.fetchPlayer(ctx, videoID, apiKey)
	if err != nil {
		return nil, err
	}
	if err := assertPlayability(videoID, player.PlayabilityStatus); err != nil {
		return nil, err
	}
	if player.Captions == nil || player.Captions.PlayerCaptionsTracklistRenderer == nil ||
		len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, engine.NewUpstreamError(videoID, engine.ReasonTranscriptsDisabled,
			"subtitles are disabled for this video")
	}

	track, err := pickTrack(videoID, player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, languages)
	if err != nil {
		return nil, err
	}
	if needsPoToken(track.BaseURL) {
		return nil, engine.NewUpstreamError(videoID, engine.ReasonPoTokenRequired,
			"the %s caption track requires a PoToken, which only a browser can provide", track.LanguageCode)
	}
	return y.fetchTimedText(ctx, videoID, strings.Replace(track.BaseURL, "&fmt=srv3", "", 1))
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack selects the caption track for the given language preferences.
// Languages are tried in order; within a language a manually created track
// beats an auto-generated one.
func pickTrack(videoID string, tracks []captionTrack, langs []string) (captionTrack, error) {
	for _, lang := range langs {
		var generated *captionTrack
		for i, t := range tracks {
			if t.LanguageCode != lang {
				continue
			}
			if !t.generated() {
				return t, nil
			}
			if generated == nil {
				generated = &tracks[i]
			}
		}
		if generated != nil {
			return *generated, nil
		}
	}

	available := make([]string, 0, len(tracks))
	for _, t := range tracks {
		kind := "manual"
		if t.generated() {
			kind = "generated"
		}
		available = append(available, fmt.Sprintf("%s (%s, %s)", t.LanguageCode, t.label(), kind))
	}
	return captionTrack{}, engine.NewUpstreamError(videoID, engine.ReasonNoTranscript,
		"no transcript found for languages %v; available: %s",
		langs, strings.Join(available, ", "))
}

// --- Timedtext XML types ---

type ytTimedText struct {
	Lines []ytLine `xml:"text"`
}

type ytLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL.
func (y *YouTube) fetchTimedText(ctx context.Context, videoID, trackURL string) ([]engine.TranscriptEntry, error) {
	data, status, err := y.req.Do(ctx, http.MethodGet, trackURL, map[string]string{
		"Accept-Language": "en-US",
		"User-Agent":      engine.RandomUserAgent(),
	}, nil)
	if err != nil {
		return nil, engine.WrapUpstream(videoID, "timedtext request", err)
	}
	if status != http.StatusOK {
		return nil, engine.StatusError(videoID, "timedtext", status)
	}

	entries, err := parseTimedText(data)
	if err != nil {
		return nil, &engine.UpstreamError{
			VideoID: videoID,
			Reason:  engine.ReasonUnparsable,
			Message: "could not parse the caption track: " + engine.Snippet(data, 120),
			Err:     err,
		}
	}
	return entries, nil
}

// parseTimedText converts timedtext XML into transcript entries.
// Empty <text> elements are skipped; a missing dur means zero.
func parseTimedText(data []byte) ([]engine.TranscriptEntry, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	entries := make([]engine.TranscriptEntry, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		if line.Text == "" {
			continue
		}
		entries = append(entries, engine.TranscriptEntry{
			Text:     engine.CleanCaption(line.Text),
			Start:    max(line.Start, 0),
			Duration: max(line.Dur, 0),
		})
	}
	return entries, nil
}
