// Package sources holds upstream transcript providers.
package sources

// The YouTube client is split across three files:
//   youtube_innertube.go:  Innertube API types, the /player call and playability checks
//   youtube_watch.go:      watch page loading, consent interstitial, API key extraction
//   youtube_transcript.go: the client itself, caption track selection, timedtext parsing
