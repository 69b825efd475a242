package chatgptes

import (
	"fmt"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// browserUserAgent matches the Chrome build advertised by the TLS profile.
// The upstream's bot detection cross-checks the User-Agent against the
// TLS fingerprint, so the two must stay in sync.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Doer issues HTTP requests on behalf of the provider. It is the narrow
// surface of tls_client.HttpClient the provider needs, which keeps tests on
// stub transports.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// newSession builds the fingerprinted HTTP session: a Chrome client profile
// with a cookie jar, so challenge cookies set on the landing page carry over
// to the chat POST.
func newSession(timeout time.Duration) (Doer, error) {
	jar := tls_client.NewCookieJar()

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutMilliseconds(timeoutMilliseconds(timeout)),
		tls_client.WithClientProfile(profiles.Chrome_124),
		tls_client.WithCookieJar(jar),
		tls_client.WithRandomTLSExtensionOrder(),
	}

	session, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("error creating TLS session: %w", err)
	}
	return session, nil
}

// timeoutMilliseconds converts a validated-positive timeout for the session
// options, never rounding a sub-millisecond value down to zero.
func timeoutMilliseconds(timeout time.Duration) int {
	ms := int(timeout / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return ms
}

// landingHeaders returns the header set for the token-scraping GET. It
// imitates a browser arriving from a search result.
func landingHeaders() fhttp.Header {
	return fhttp.Header{
		"User-Agent": {browserUserAgent},
		"Referer":    {"https://www.google.com/"},
		"Accept": {"text/html,application/xhtml+xml,application/xml;q=0.9," +
			"image/avif,image/webp,image/apng,*/*;q=0.8," +
			"application/signed-exchange;v=b3;q=0.7"},
		fhttp.HeaderOrderKey: {"user-agent", "referer", "accept"},
	}
}

// chatHeaders returns the header set for the chat POST. Referer and Origin
// point back at the site itself, as they would for the embedded widget.
func chatHeaders(baseURL string) fhttp.Header {
	return fhttp.Header{
		"User-Agent":   {browserUserAgent},
		"Referer":      {baseURL},
		"Origin":       {baseURL},
		"Accept":       {"*/*"},
		"Content-Type": {"application/x-www-form-urlencoded; charset=UTF-8"},
		fhttp.HeaderOrderKey: {"user-agent", "referer", "origin", "accept", "content-type"},
	}
}
