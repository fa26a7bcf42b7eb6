package apiserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/limiter"
)

func TestTranscriptTool(t *testing.T) {
	f := &fakeFetcher{entries: []engine.TranscriptEntry{{Text: "hello", Start: 1, Duration: 2}}}
	s := New(testOptions(f))

	_, out, err := s.transcriptTool(context.Background(), nil, TranscriptToolInput{
		VideoID:   " dQw4w9WgXcQ ",
		Languages: []string{"de"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", out.VideoID)
	assert.Equal(t, f.entries, out.Transcript)
	assert.Equal(t, []string{"de"}, f.langs)
}

func TestTranscriptToolErrors(t *testing.T) {
	f := &fakeFetcher{err: engine.NewUpstreamError("dQw4w9WgXcQ", engine.ReasonVideoUnavailable, "gone")}
	opts := testOptions(f)
	opts.TranscriptLimits = []limiter.Limit{{Count: 1, Period: 24 * time.Hour, Scope: "transcript"}}
	s := New(opts)

	_, _, err := s.transcriptTool(context.Background(), nil, TranscriptToolInput{})
	assert.ErrorContains(t, err, "video_id is required")

	_, _, err = s.transcriptTool(context.Background(), nil, TranscriptToolInput{VideoID: "dQw4w9WgXcQ"})
	var ue *engine.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, engine.ReasonVideoUnavailable, ue.Reason)

	_, _, err = s.transcriptTool(context.Background(), nil, TranscriptToolInput{VideoID: "dQw4w9WgXcQ"})
	assert.ErrorContains(t, err, "rate limit exceeded")
	assert.Equal(t, 1, f.Calls())
}

func TestTranscriptToolEmpty(t *testing.T) {
	s := New(testOptions(&fakeFetcher{}))

	_, out, err := s.transcriptTool(context.Background(), nil, TranscriptToolInput{VideoID: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.NotNil(t, out.Transcript)
	assert.Empty(t, out.Transcript)
}

func TestMCPRouteRequiresKey(t *testing.T) {
	opts := testOptions(&fakeFetcher{})
	opts.MCPEnabled = true
	h := New(opts).Routes()

	rec := do(t, h, "/mcp", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	root := decode[map[string]any](t, do(t, h, "/", nil))
	assert.Contains(t, root["endpoints"], "POST /mcp")
}
