// Package fetch is the shared HTTP substrate described in spec §4.4: one
// client construction path for every scraper and resolver, with a per-call
// deadline, bounded retry/backoff for transient failures, and a per-purpose
// proxy matrix (no proxy / legacy URL-wrapping proxy / SOCKS5 agent).
//
// Grounded on k8v-streamx's resty-based prowlarr client for the base
// request/retry shape, and deflix-stremio's SOCKS5 dialer + cookiejar for
// the proxy agent and the Session variant resolvers use for multi-step
// anti-bot redirect chains (§4.7).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/proxy"

	"github.com/avast/retry-go/v4"
)

// Purpose selects which row of the proxy matrix (config §6 `proxyServices`)
// applies to a given client: "scrapers", "httpstreams", or a per-debrid
// service name.
type Purpose string

const (
	PurposeScrapers    Purpose = "scrapers"
	PurposeHTTPStreams Purpose = "httpstreams"
)

// ProxyPolicy is the resolved per-purpose proxy configuration.
type ProxyPolicy struct {
	// Mode is "" (none), "legacy" (URL-wrapping), or "socks5".
	Mode string
	// URL is the legacy proxy's own endpoint (destination percent-encoded
	// into it) or the SOCKS5/HTTPS proxy's dial address.
	URL string
}

// ProxyMatrix resolves which ProxyPolicy applies to a Purpose, mirroring
// config's `proxyServices` map (`*:true` enables for everything, `svc:true`
// /`svc:false` override per purpose).
type ProxyMatrix struct {
	ProxyURL string
	Services map[string]bool
}

func (m ProxyMatrix) enabledFor(purpose Purpose) bool {
	if m.Services == nil {
		return false
	}
	if v, ok := m.Services[string(purpose)]; ok {
		return v
	}
	if v, ok := m.Services["*"]; ok {
		return v
	}
	return false
}

func (m ProxyMatrix) Resolve(purpose Purpose) ProxyPolicy {
	if m.ProxyURL == "" || !m.enabledFor(purpose) {
		return ProxyPolicy{}
	}
	if strings.HasPrefix(m.ProxyURL, "socks5://") {
		return ProxyPolicy{Mode: "socks5", URL: m.ProxyURL}
	}
	return ProxyPolicy{Mode: "legacy", URL: m.ProxyURL}
}

// agentEntry is one pooled proxy transport, aged out every ~5 minutes or
// after a bounded run of consecutive connection failures, per §4.4.
type agentEntry struct {
	transport   http.RoundTripper
	createdAt   time.Time
	failStreak  int
}

const (
	agentMaxAge        = 5 * time.Minute
	agentMaxFailStreak = 5
)

// agentPool caches one transport per (purpose, policy) pair so concurrent
// scrapers share a dialer instead of reconnecting per request.
type agentPool struct {
	mu      sync.Mutex
	entries map[string]*agentEntry
}

var pool = &agentPool{entries: map[string]*agentEntry{}}

func (p *agentPool) get(key string, build func() (http.RoundTripper, error)) (http.RoundTripper, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[key]; ok {
		if time.Since(e.createdAt) < agentMaxAge && e.failStreak < agentMaxFailStreak {
			return e.transport, nil
		}
		delete(p.entries, key)
	}

	tr, err := build()
	if err != nil {
		return nil, err
	}
	p.entries[key] = &agentEntry{transport: tr, createdAt: time.Now()}
	return tr, nil
}

func (p *agentPool) reportFailure(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[key]; ok {
		e.failStreak++
	}
}

// buildTransport constructs the RoundTripper for a resolved ProxyPolicy.
// A "legacy" proxy wraps the destination URL (percent-encoded) as a query
// parameter on the proxy's own endpoint instead of tunneling; callers using
// that mode must rewrite outbound request URLs through WrapLegacyURL.
func buildTransport(policy ProxyPolicy) (http.RoundTripper, error) {
	switch policy.Mode {
	case "":
		return http.DefaultTransport, nil
	case "legacy":
		return http.DefaultTransport, nil
	case "socks5":
		u, err := url.Parse(policy.URL)
		if err != nil {
			return nil, fmt.Errorf("parse socks5 proxy url: %w", err)
		}
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("build socks5 dialer: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer does not support context dialing")
		}
		return &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return contextDialer.DialContext(ctx, network, addr)
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown proxy mode %q", policy.Mode)
	}
}

// WrapLegacyURL rewrites destURL to go through a legacy URL-wrapping proxy,
// percent-encoding the destination into the proxy's own query string.
func WrapLegacyURL(proxyURL, destURL string) string {
	sep := "?"
	if strings.Contains(proxyURL, "?") {
		sep = "&"
	}
	return proxyURL + sep + "url=" + url.QueryEscape(destURL)
}

// RetryPolicy bounds the fetch substrate's transient-failure retries.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	// IdempotentOn5xx marks whether the target is declared idempotent, in
	// which case a 5xx response (not just connection-level failures) is
	// also retried.
	IdempotentOn5xx bool
}

// DefaultRetryPolicy matches the teacher's own bounded-retry convention: a
// handful of attempts with a fixed delay, no exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 500 * time.Millisecond}
}

// Client wraps a resty.Client with the substrate's retry + proxy policy
// already applied. Adapters call Get/Post/Head with a context carrying the
// per-call deadline derived from the request's cancelation signal.
type Client struct {
	rc          *resty.Client
	retryPolicy RetryPolicy
	proxyKey    string
	jar         http.CookieJar
}

// New builds a Client for purpose under matrix, with ceiling as the default
// per-call timeout ceiling (overridable per request via context deadline).
func New(purpose Purpose, matrix ProxyMatrix, ceiling time.Duration, retryPolicy RetryPolicy) (*Client, error) {
	if ceiling <= 0 {
		ceiling = 15 * time.Second
	}
	policy := matrix.Resolve(purpose)
	key := string(purpose) + "|" + policy.Mode + "|" + policy.URL

	tr, err := pool.get(key, func() (http.RoundTripper, error) { return buildTransport(policy) })
	if err != nil {
		return nil, fmt.Errorf("build transport for %s: %w", purpose, err)
	}

	rc := resty.New().
		SetTransport(tr).
		SetTimeout(ceiling).
		SetHeader("User-Agent", "Mozilla/5.0 (novastream aggregator)")

	return &Client{rc: rc, retryPolicy: retryPolicy, proxyKey: key}, nil
}

// NewSession builds a Client that additionally carries a cookie jar scoped
// to the caller, used by redirect-chain resolvers that must persist cookies
// across several hops of one resolution (§4.7). Jars are never shared
// across requests/sessions.
func NewSession(purpose Purpose, matrix ProxyMatrix, ceiling time.Duration, retryPolicy RetryPolicy) (*Client, error) {
	c, err := New(purpose, matrix, ceiling, retryPolicy)
	if err != nil {
		return nil, err
	}
	jar, err := cookieJar()
	if err != nil {
		return nil, err
	}
	c.rc.SetCookieJar(jar)
	c.jar = jar
	return c, nil
}

func cookieJar() (http.CookieJar, error) {
	return cookiejarNew()
}

// isTransient classifies an error/response as retryable per §7's
// TransientNetwork taxonomy: connection reset, timeout, DNS, and (only for
// idempotent targets) 5xx.
func (c *Client) isTransient(resp *resty.Response, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return true
		}
		msg := err.Error()
		return strings.Contains(msg, "connection reset") ||
			strings.Contains(msg, "no such host") ||
			strings.Contains(msg, "EOF")
	}
	if resp != nil && c.retryPolicy.IdempotentOn5xx && resp.StatusCode() >= 500 {
		return true
	}
	return false
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any, result any, headers map[string]string) (*resty.Response, error) {
	attempts := c.retryPolicy.Attempts
	if attempts == 0 {
		attempts = 1
	}
	delay := c.retryPolicy.Delay

	var resp *resty.Response
	retryErr := retry.Do(
		func() error {
			req := c.rc.R().SetContext(ctx)
			if result != nil {
				req = req.SetResult(result)
			}
			if body != nil {
				req = req.SetBody(body)
			}
			if len(headers) > 0 {
				req = req.SetHeaders(headers)
			}
			var err error
			switch method {
			case http.MethodGet:
				resp, err = req.Get(rawURL)
			case http.MethodPost:
				resp, err = req.Post(rawURL)
			case http.MethodHead:
				resp, err = req.Head(rawURL)
			default:
				return fmt.Errorf("unsupported method %s", method)
			}
			if c.isTransient(resp, err) {
				pool.reportFailure(c.proxyKey)
				if err == nil {
					err = fmt.Errorf("transient status %d", resp.StatusCode())
				}
				return err
			}
			pool.mu.Lock()
			if e, ok := pool.entries[c.proxyKey]; ok {
				e.failStreak = 0
			}
			pool.mu.Unlock()
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if retryErr != nil && resp == nil {
		return nil, retryErr
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, rawURL string, result any) (*resty.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, result, nil)
}

func (c *Client) Post(ctx context.Context, rawURL string, body any, result any) (*resty.Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, body, result, nil)
}

func (c *Client) Head(ctx context.Context, rawURL string) (*resty.Response, error) {
	return c.do(ctx, http.MethodHead, rawURL, nil, nil, nil)
}

// GetWithHeaders behaves like Get but layers extra per-request headers
// (e.g. a scraper's anti-bot browser-header set) on top of the client's
// defaults, still inside the same retry/backoff and proxy policy.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, result any) (*resty.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, result, headers)
}

// SetCookie sets a cookie on the session's origin, used by the SID-walk's
// step 3 dynamic-cookie injection (s_343(...)).
func (c *Client) SetCookie(rawURL string, cookie *http.Cookie) error {
	if c.jar == nil {
		return fmt.Errorf("client has no cookie jar; use NewSession")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse cookie origin url: %w", err)
	}
	c.jar.SetCookies(u, []*http.Cookie{cookie})
	return nil
}

// Underlying exposes the resty client for adapters that need goquery's
// io.Reader directly from a raw response body.
func (c *Client) Underlying() *resty.Client { return c.rc }
