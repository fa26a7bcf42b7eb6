package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// YouTube Innertube API: low-level constants, types, and the /player call.
// Watch page handling lives in youtube_watch.go, track selection and timedtext
// parsing in youtube_transcript.go.

const (
	ytBaseURL        = "https://www.youtube.com"
	ytPlayerPath     = "/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
)

// Playability reasons YouTube reports for videos it will not serve.
const (
	ytReasonUnavailable   = "This video is unavailable"
	ytReasonAgeRestricted = "This video may be inappropriate for some users"
	ytReasonBotDetected   = "confirm you" // "Sign in to confirm you’re not a bot"
)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID string       `json:"videoId"`
	Context innertubeCtx `json:"context"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

type innertubePlayerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer *struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *playabilityStatus `json:"playabilityStatus"`
}

type playabilityStatus struct {
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	ErrorScreen *struct {
		PlayerErrorMessageRenderer *struct {
			Subreason *struct {
				Runs []struct {
					Text string `json:"text"`
				} `json:"runs"`
			} `json:"subreason"`
		} `json:"playerErrorMessageRenderer"`
	} `json:"errorScreen"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
	Name         *struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

func (t captionTrack) generated() bool { return t.Kind == "asr" }

func (t captionTrack) label() string {
	if t.Name == nil || len(t.Name.Runs) == 0 {
		return t.LanguageCode
	}
	return t.Name.Runs[0].Text
}

// subreasons flattens the error screen text shown under an unplayable video.
func (p *playabilityStatus) subreasons() []string {
	if p.ErrorScreen == nil || p.ErrorScreen.PlayerErrorMessageRenderer == nil ||
		p.ErrorScreen.PlayerErrorMessageRenderer.Subreason == nil {
		return nil
	}
	var out []string
	for _, run := range p.ErrorScreen.PlayerErrorMessageRenderer.Subreason.Runs {
		if run.Text != "" {
			out = append(out, run.Text)
		}
	}
	return out
}

// fetchPlayer calls the ANDROID Innertube /player endpoint with the key scraped
// from the watch page.
func (y *YouTube) fetchPlayer(ctx context.Context, videoID, apiKey string) (*innertubePlayerResp, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{Client: innertubeClient{
			ClientName:    "ANDROID",
			ClientVersion: ytAndroidVersion,
		}},
	})
	if err != nil {
		return nil, err
	}

	endpoint := y.baseURL + ytPlayerPath + "?key=" + url.QueryEscape(apiKey)
	data, status, err := y.req.Do(ctx, http.MethodPost, endpoint, map[string]string{
		"Content-Type":    "application/json",
		"Accept-Language": "en-US",
	}, reqBody)
	if err != nil {
		return nil, engine.WrapUpstream(videoID, "innertube player request", err)
	}
	if status != http.StatusOK {
		return nil, engine.StatusError(videoID, "innertube player", status)
	}

	var player innertubePlayerResp
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, &engine.UpstreamError{
			VideoID: videoID,
			Reason:  engine.ReasonUnparsable,
			Message: "could not decode the player response",
			Err:     fmt.Errorf("decode player: %w", err),
		}
	}
	return &player, nil
}

// assertPlayability maps a non-OK playability status to an UpstreamError.
func assertPlayability(videoID string, p *playabilityStatus) error {
	if p == nil || p.Status == "" || p.Status == "OK" {
		return nil
	}
	switch {
	case p.Status == "LOGIN_REQUIRED" && strings.Contains(p.Reason, ytReasonBotDetected):
		return engine.NewUpstreamError(videoID, engine.ReasonRequestBlocked,
			"YouTube is blocking requests from this IP (bot check)")
	case p.Status == "LOGIN_REQUIRED" && strings.HasPrefix(p.Reason, ytReasonAgeRestricted):
		return engine.NewUpstreamError(videoID, engine.ReasonAgeRestricted,
			"this video is age-restricted and requires authentication")
	case p.Status == "ERROR" && strings.HasPrefix(p.Reason, ytReasonUnavailable):
		return engine.NewUpstreamError(videoID, engine.ReasonVideoUnavailable,
			"the video is no longer available")
	}

	msg := "the video is unplayable"
	if p.Reason != "" {
		msg += ": " + p.Reason
	}
	if sub := p.subreasons(); len(sub) > 0 {
		msg += " (" + strings.Join(sub, "; ") + ")"
	}
	return engine.NewUpstreamError(videoID, engine.ReasonVideoUnplayable, "%s", msg)
}
