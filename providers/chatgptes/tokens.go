package chatgptes

import (
	"context"
	"io"
	"regexp"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
	"github.com/sujalrajpoot/chatgpt-go/internal/httpx"
)

// pageTokens are the two per-page values the plugin requires on every chat
// POST. They rotate with the page, so they are scraped fresh for each call.
type pageTokens struct {
	nonce  string
	postID string
}

var (
	nonceRe  = regexp.MustCompile(`data-nonce="(.+?)"`)
	postIDRe = regexp.MustCompile(`data-post-id="(.+?)"`)
)

// challengeMarkers are substrings that identify an interstitial bot-challenge
// page. Their presence means the fingerprint was rejected upstream, which is
// an authentication failure regardless of HTTP status.
var challengeMarkers = []string{
	"Just a moment...",
	"cf-browser-verification",
	"challenge-platform",
	"Attention Required!",
}

// fetchPageTokens GETs the landing page through the fingerprinted session and
// scrapes the nonce and post id out of the widget markup.
func (p *Provider) fetchPageTokens(ctx context.Context) (pageTokens, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, p.baseURL, nil)
	if err != nil {
		return pageTokens{}, chat.NewConnectionError("error creating token request", err)
	}
	req.Header = landingHeaders()

	res, err := p.session.Do(req)
	if err != nil {
		return pageTokens{}, chat.NewConnectionError("failed to retrieve authentication tokens", err)
	}
	defer httpx.CloseWithLog(res.Body)

	if isBlockedStatus(res.StatusCode) {
		return pageTokens{}, chat.NewAuthenticationError(
			"upstream rejected the token request with status " + res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, httpx.MaxErrorBodySize))
	if err != nil {
		return pageTokens{}, chat.NewConnectionError("error reading landing page", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return pageTokens{}, chat.NewConnectionError(
			"non-2xx status "+res.Status+" retrieving authentication tokens", nil)
	}

	page := string(body)
	if isChallengePage(page) {
		return pageTokens{}, chat.NewAuthenticationError("landing page served a bot challenge")
	}

	nonceMatch := nonceRe.FindStringSubmatch(page)
	postIDMatch := postIDRe.FindStringSubmatch(page)
	if nonceMatch == nil || postIDMatch == nil {
		return pageTokens{}, chat.NewParseError("failed to parse authentication tokens from response", nil)
	}

	return pageTokens{nonce: nonceMatch[1], postID: postIDMatch[1]}, nil
}

// isBlockedStatus reports whether status signifies rejected or challenged
// access rather than a transient upstream fault.
func isBlockedStatus(status int) bool {
	return status == fhttp.StatusUnauthorized || status == fhttp.StatusForbidden
}

// isChallengePage reports whether the body looks like a bot-challenge
// interstitial instead of the real page.
func isChallengePage(body string) bool {
	for _, marker := range challengeMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
