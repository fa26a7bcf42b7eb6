package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// mcpCaller is the limiter identity shared by all MCP tool calls; the
// per-address limit is applied to the /mcp HTTP requests themselves.
const mcpCaller = "mcp"

// TranscriptToolInput is the input of the youtube_transcript tool.
type TranscriptToolInput struct {
	VideoID   string   `json:"video_id" jsonschema:"11-character YouTube video ID, e.g. dQw4w9WgXcQ"`
	Languages []string `json:"languages,omitempty" jsonschema:"preferred caption languages in priority order, e.g. [\"en\",\"de\"]"`
}

func (s *Server) mcpHandler() http.Handler {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: s.opts.Version,
	}, nil)
	s.registerTools(server)

	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

// registerTools registers the transcript tool on the given MCP server.
func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript",
		Description: "Fetch the transcript of a YouTube video. Returns caption entries in order, each with text, start and duration in seconds.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.transcriptTool)
}

func (s *Server) transcriptTool(ctx context.Context, _ *mcp.CallToolRequest, input TranscriptToolInput) (*mcp.CallToolResult, TranscriptResponse, error) {
	videoID := strings.TrimSpace(input.VideoID)
	if videoID == "" {
		return nil, TranscriptResponse{}, fmt.Errorf("video_id is required")
	}
	if d := s.opts.Limiter.Allow(mcpCaller, s.opts.TranscriptLimits...); !d.Allowed {
		s.opts.Metrics.IncRateLimited()
		return nil, TranscriptResponse{}, fmt.Errorf("rate limit exceeded: %s", d.Limit)
	}

	entries, err := s.opts.Fetcher.Fetch(ctx, videoID, input.Languages)
	if err != nil {
		return nil, TranscriptResponse{}, err
	}
	if entries == nil {
		entries = []engine.TranscriptEntry{}
	}
	return nil, TranscriptResponse{VideoID: videoID, Transcript: entries}, nil
}
