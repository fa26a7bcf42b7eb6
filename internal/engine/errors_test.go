package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
)

func TestWrapUpstreamClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"deadline", context.DeadlineExceeded, ReasonTransient},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ReasonTransient},
		{"dns timeout", &net.DNSError{IsTimeout: true}, ReasonTransient},
		{"dial refused", &net.OpError{Op: "dial", Err: errors.New("refused")}, ReasonTransient},
		{"regular error", errors.New("something"), ReasonRequestFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ue := WrapUpstream("dQw4w9WgXcQ", "watch page request", tt.err)
			if ue.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", ue.Reason, tt.want)
			}
			if !errors.Is(ue, tt.err) {
				t.Error("UpstreamError should unwrap to the cause")
			}
		})
	}
}

func TestWrapUpstreamPassesThrough(t *testing.T) {
	orig := NewUpstreamError("dQw4w9WgXcQ", ReasonNoTranscript, "none")
	wrapped := fmt.Errorf("outer: %w", orig)
	if got := WrapUpstream("dQw4w9WgXcQ", "x", wrapped); got != orig {
		t.Errorf("WrapUpstream should return the existing *UpstreamError, got %v", got)
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		code int
		want Reason
	}{
		{429, ReasonRequestBlocked},
		{503, ReasonTransient},
		{502, ReasonTransient},
		{404, ReasonRequestFailed},
		{403, ReasonRequestFailed},
	}
	for _, tt := range tests {
		if got := StatusError("id", "watch page", tt.code).Reason; got != tt.want {
			t.Errorf("StatusError(%d).Reason = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestUpstreamErrorTemporary(t *testing.T) {
	for reason, want := range map[Reason]bool{
		ReasonTransient:           true,
		ReasonRequestBlocked:      true,
		ReasonVideoUnavailable:    false,
		ReasonTranscriptsDisabled: false,
		ReasonInvalidVideoID:      false,
	} {
		if got := (&UpstreamError{Reason: reason}).Temporary(); got != want {
			t.Errorf("Temporary() for %s = %v, want %v", reason, got, want)
		}
	}
}

func TestUpstreamErrorMessage(t *testing.T) {
	err := NewUpstreamError("dQw4w9WgXcQ", ReasonTranscriptsDisabled, "subtitles are disabled for this video")
	msg := err.Error()
	if !strings.Contains(msg, "https://www.youtube.com/watch?v=dQw4w9WgXcQ") {
		t.Errorf("message should name the video URL: %q", msg)
	}
	if !strings.HasSuffix(msg, "subtitles are disabled for this video") {
		t.Errorf("message should end with the cause: %q", msg)
	}
}
