package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// Re-export stealth types and functions for engine consumers.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }
func IsRetryableStatus(code int) bool  { return stealth.IsRetryableStatus(code) }

// browserTimeoutSeconds bounds a single stealth request; callers add their own deadline.
const browserTimeoutSeconds = 30

// NewBrowserClient creates a Chrome-fingerprinted client whose requests exit
// through the Webshare proxy pool owned by apiKey.
func NewBrowserClient(webshareAPIKey string) (*BrowserClient, error) {
	pool, err := proxypool.NewWebshare(webshareAPIKey)
	if err != nil {
		return nil, fmt.Errorf("webshare proxy pool: %w", err)
	}
	slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))

	bc, err := stealth.NewClient(
		stealth.WithTimeout(browserTimeoutSeconds),
		stealth.WithProxyPool(pool),
	)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return bc, nil
}

// BrowserRequester adapts a BrowserClient to the Requester interface.
type BrowserRequester struct {
	bc *BrowserClient
}

// NewBrowserRequester wraps bc.
func NewBrowserRequester(bc *BrowserClient) *BrowserRequester {
	return &BrowserRequester{bc: bc}
}

// Do runs the request on a goroutine and returns early when ctx ends;
// the stealth client has no context support of its own.
func (b *BrowserRequester) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, int, error) {
	type result struct {
		data   []byte
		status int
		err    error
	}
	ch := make(chan result, 1)

	go func() {
		var r io.Reader
		if len(body) > 0 {
			r = bytes.NewReader(body)
		}
		data, _, status, err := b.bc.Do(method, url, lowerKeys(headers), r)
		ch <- result{data, status, err}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res := <-ch:
		return res.data, res.status, res.err
	}
}

// lowerKeys normalises header names; the stealth client orders headers by lowercase name.
func lowerKeys(h map[string]string) map[string]string {
	out := ChromeHeaders()
	for k, v := range h {
		out[strings.ToLower(k)] = v
	}
	return out
}

