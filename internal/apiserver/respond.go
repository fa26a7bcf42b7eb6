package apiserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// TranscriptResponse is the success envelope of the transcript endpoint.
type TranscriptResponse struct {
	VideoID    string                   `json:"video_id"`
	Transcript []engine.TranscriptEntry `json:"transcript"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response failed", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, ErrorResponse{Error: title, Message: message})
}
