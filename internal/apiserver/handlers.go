package apiserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/limiter"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	endpoints := map[string]string{
		"GET /":                      "service description",
		"GET /health":                "liveness probe",
		"GET /transcript/{video_id}": "transcript of a YouTube video; optional ?languages=en,de",
	}
	if s.opts.MCPEnabled {
		endpoints["POST /mcp"] = "Model Context Protocol endpoint with the youtube_transcript tool"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "YouTube Transcript API is running!",
		"version":   s.opts.Version,
		"endpoints": endpoints,
		"authentication": map[string]string{
			"header": headerAPIKey,
			"query":  queryAPIKey,
			"scope":  "required for /transcript",
		},
		"rate_limits": map[string][]string{
			"default":    limitStrings(s.opts.DefaultLimits),
			"transcript": limitStrings(s.opts.TranscriptLimits),
		},
		"security": map[string]any{
			"proxy_routing":    "optional Webshare residential proxy for upstream requests",
			"key_comparison":   "constant time",
			"limits_per":       "remote address",
			"trusts_forwarded": s.opts.TrustProxy,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	languages := splitLanguages(r.URL.Query().Get("languages"))

	entries, err := s.opts.Fetcher.Fetch(r.Context(), videoID, languages)
	if err != nil {
		body := ErrorResponse{Error: err.Error()}
		var ue *engine.UpstreamError
		if errors.As(err, &ue) {
			body.Reason = string(ue.Reason)
		}
		slog.Info("transcript unavailable",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("id", videoID),
			slog.String("reason", body.Reason))
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	if entries == nil {
		entries = []engine.TranscriptEntry{}
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{VideoID: videoID, Transcript: entries})
}

// splitLanguages parses "en, de,fr" into ["en","de","fr"].
func splitLanguages(raw string) []string {
	var out []string
	for _, l := range strings.Split(raw, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func limitStrings(limits []limiter.Limit) []string {
	out := make([]string, 0, len(limits))
	for _, l := range limits {
		out = append(out, l.String())
	}
	return out
}
