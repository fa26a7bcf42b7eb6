package sources

import (
	"bytes"
	"context"
	"html"
	"net/http"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	xhtml "golang.org/x/net/html"
)

const (
	ytConsentAction = "https://consent.youtube.com/s"
	ytRecaptchaMark = `class="g-recaptcha"`
)

var innertubeAPIKeyRE = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)

// fetchWatchHTML loads the watch page, accepting the EU consent interstitial once
// if YouTube serves it. The result is HTML-unescaped.
func (y *YouTube) fetchWatchHTML(ctx context.Context, videoID string) (string, error) {
	body, err := y.getWatchPage(ctx, videoID, "")
	if err != nil {
		return "", err
	}

	if bytes.Contains(body, []byte(`action="`+ytConsentAction+`"`)) {
		v, ok := consentValue(body)
		if !ok {
			return "", engine.NewUpstreamError(videoID, engine.ReasonUnparsable,
				"failed to create the consent cookie: consent form without a v field")
		}
		body, err = y.getWatchPage(ctx, videoID, "CONSENT=YES+"+v)
		if err != nil {
			return "", err
		}
		if bytes.Contains(body, []byte(`action="`+ytConsentAction+`"`)) {
			return "", engine.NewUpstreamError(videoID, engine.ReasonRequestFailed,
				"failed to create the consent cookie: YouTube kept serving the consent page")
		}
	}
	return html.UnescapeString(string(body)), nil
}

func (y *YouTube) getWatchPage(ctx context.Context, videoID, cookie string) ([]byte, error) {
	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US",
		"User-Agent":      engine.RandomUserAgent(),
	}
	if cookie != "" {
		headers["Cookie"] = cookie
	}

	data, status, err := y.req.Do(ctx, http.MethodGet, y.baseURL+"/watch?v="+videoID, headers, nil)
	if err != nil {
		return nil, engine.WrapUpstream(videoID, "watch page request", err)
	}
	if status != http.StatusOK {
		return nil, engine.StatusError(videoID, "watch page", status)
	}
	return data, nil
}

// consentValue finds the hidden "v" input of the consent form.
func consentValue(page []byte) (string, bool) {
	doc, err := xhtml.Parse(bytes.NewReader(page))
	if err != nil {
		return "", false
	}

	var walk func(n *xhtml.Node, inForm bool) (string, bool)
	walk = func(n *xhtml.Node, inForm bool) (string, bool) {
		if n.Type == xhtml.ElementNode {
			switch n.Data {
			case "form":
				inForm = inForm || attr(n, "action") == ytConsentAction
			case "input":
				if inForm && attr(n, "name") == "v" {
					if v := attr(n, "value"); v != "" {
						return v, true
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if v, ok := walk(c, inForm); ok {
				return v, true
			}
		}
		return "", false
	}
	return walk(doc, false)
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// extractAPIKey pulls the Innertube API key out of the watch page.
func extractAPIKey(videoID, page string) (string, error) {
	if m := innertubeAPIKeyRE.FindStringSubmatch(page); len(m) == 2 {
		return m[1], nil
	}
	if strings.Contains(page, ytRecaptchaMark) {
		return "", engine.NewUpstreamError(videoID, engine.ReasonRequestBlocked,
			"YouTube is blocking requests from this IP (captcha)")
	}
	return "", engine.NewUpstreamError(videoID, engine.ReasonUnparsable,
		"the watch page did not contain an Innertube API key")
}
