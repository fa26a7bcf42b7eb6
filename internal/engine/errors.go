package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Reason classifies why a transcript could not be retrieved.
type Reason string

const (
	ReasonInvalidVideoID      Reason = "invalid_video_id"
	ReasonVideoUnavailable    Reason = "video_unavailable"
	ReasonVideoUnplayable     Reason = "video_unplayable"
	ReasonAgeRestricted       Reason = "age_restricted"
	ReasonTranscriptsDisabled Reason = "transcripts_disabled"
	ReasonNoTranscript        Reason = "no_transcript_found"
	ReasonPoTokenRequired     Reason = "po_token_required"
	ReasonRequestBlocked      Reason = "request_blocked"
	ReasonRequestFailed       Reason = "request_failed"
	ReasonUnparsable          Reason = "unparsable_response"
	ReasonTransient           Reason = "transient"
)

// UpstreamError is returned for every failed transcript fetch.
type UpstreamError struct {
	VideoID string
	Reason  Reason
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("could not retrieve a transcript for the video %s: %s", WatchURL(e.VideoID), e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Temporary reports whether the same request may succeed later
// (network trouble or an IP block that a rotating proxy can route around).
func (e *UpstreamError) Temporary() bool {
	return e.Reason == ReasonTransient || e.Reason == ReasonRequestBlocked
}

// NewUpstreamError builds an UpstreamError without an underlying cause.
func NewUpstreamError(videoID string, reason Reason, format string, args ...any) *UpstreamError {
	return &UpstreamError{VideoID: videoID, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// StatusError converts an unexpected upstream HTTP status into an UpstreamError.
// 429 means the egress IP is blocked; other retryable statuses are transient.
func StatusError(videoID, what string, code int) *UpstreamError {
	switch {
	case code == http.StatusTooManyRequests:
		return NewUpstreamError(videoID, ReasonRequestBlocked,
			"YouTube is blocking requests from this IP (HTTP 429 on %s)", what)
	case IsRetryableStatus(code):
		return NewUpstreamError(videoID, ReasonTransient, "%s returned HTTP %d", what, code)
	default:
		return NewUpstreamError(videoID, ReasonRequestFailed, "%s returned HTTP %d", what, code)
	}
}

// WrapUpstream classifies an arbitrary error from the transcript pipeline.
// Errors that already are *UpstreamError pass through unchanged.
func WrapUpstream(videoID, what string, err error) *UpstreamError {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue
	}
	reason := ReasonRequestFailed
	if isTransient(err) {
		reason = ReasonTransient
	}
	return &UpstreamError{VideoID: videoID, Reason: reason, Message: what + " failed", Err: err}
}

// isTransient returns true for network-level errors worth retrying later.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	// Connection errors (dial failures, connection refused, proxy handshake, etc.)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// net.Error includes OpError, so check after OpError
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// WatchURL returns the public watch page URL of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
