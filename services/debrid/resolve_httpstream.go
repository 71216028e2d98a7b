package debrid

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"novastream/internal/fetch"
)

// HTTPStreamResolver implements spec §4.7's canonical HTTP-stream resolver
// chain: SID walk -> redirect page -> file page -> CDN post-processing ->
// range-request validation. Grounded on deflix-stremio's proxy/cookiejar
// session handling for the multi-hop anti-bot form walk, generalizing the
// teacher's single-shot HEAD verification in playback.go into a dedicated
// step with a skip-list.
type HTTPStreamResolver struct {
	disableURLValidation  bool
	disableSeekValidation bool
	skipValidationHosts   map[string]struct{}
}

// NewHTTPStreamResolver builds a resolver honoring the resolver config flags
// (spec §6 disableUrlValidation/disableSeekValidation/skipValidationHosts).
func NewHTTPStreamResolver(disableURLValidation, disableSeekValidation bool, skipHosts []string) *HTTPStreamResolver {
	hosts := make(map[string]struct{}, len(skipHosts))
	for _, h := range skipHosts {
		hosts[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return &HTTPStreamResolver{
		disableURLValidation:  disableURLValidation,
		disableSeekValidation: disableSeekValidation,
		skipValidationHosts:   hosts,
	}
}

var (
	wpHTTPFormRegex   = regexp.MustCompile(`name=['"]_wp_http['"][^>]*value=['"]([^'"]+)['"]`)
	wpHTTP2FormRegex  = regexp.MustCompile(`name=['"]_wp_http2['"][^>]*value=['"]([^'"]+)['"]`)
	wpTokenFormRegex  = regexp.MustCompile(`name=['"]token['"][^>]*value=['"]([^'"]+)['"]`)
	formActionRegex   = regexp.MustCompile(`<form[^>]*action=['"]([^'"]+)['"]`)
	s343CookieRegex   = regexp.MustCompile(`s_343\('([^']+)'\s*,\s*'([^']+)'\)`)
	setAttrHrefRegex  = regexp.MustCompile(`setAttribute\("href"\s*,\s*"([^"]+)"\)`)
	metaRefreshRegex  = regexp.MustCompile(`(?i)<meta[^>]+http-equiv=["']refresh["'][^>]+content=["'][^;]+;\s*url=([^"']+)["']`)
	jsLocationRegex   = regexp.MustCompile(`window\.location\.replace\("([^"]+)"\)`)
	cdnURLParamRegex  = regexp.MustCompile(`[?&]url=([^&"']+)`)
	videoCDNLinkRegex = regexp.MustCompile(`https?://[^\s"'<>]+\.(?:workers\.dev|video-cdn[^\s"'<>]*)[^\s"'<>]*`)
)

var intermediateCDNHosts = []string{"video-leech.pro", "cdn.video-leech.pro", "video-seed.pro"}

// Resolve runs the full chain for sidURL and returns the final, range-request
// validated CDN URL.
func (r *HTTPStreamResolver) Resolve(ctx context.Context, sidURL string) (string, error) {
	client, err := fetch.NewSession(fetch.PurposeHTTPStreams, fetch.ProxyMatrix{}, 20*time.Second, fetch.RetryPolicy{Attempts: 4, Delay: 1500 * time.Millisecond, IdempotentOn5xx: false})
	if err != nil {
		return "", fmt.Errorf("build resolver session: %w", err)
	}

	finalURL, err := r.walkSID(ctx, client, sidURL)
	if err != nil {
		return "", fmt.Errorf("sid resolution: %w", err)
	}

	redirected, err := r.followRedirectPage(ctx, client, finalURL)
	if err != nil {
		return "", fmt.Errorf("follow redirect page: %w", err)
	}

	cdnURL, err := r.extractFromFilePage(ctx, client, redirected)
	if err != nil {
		return "", fmt.Errorf("extract direct url: %w", err)
	}

	cdnURL = r.postProcessCDN(cdnURL)

	if archiveExt := detectArchiveExtension(cdnURL); archiveExt != "" {
		return "", fmt.Errorf("resolved url points to unsupported archive (%s)", archiveExt)
	}

	if !r.disableURLValidation {
		if err := r.validateSeekable(ctx, client, cdnURL); err != nil {
			return "", fmt.Errorf("seek validation: %w", err)
		}
	}

	return normalizeDirectURL(cdnURL), nil
}

// walkSID implements step 1: the four-step anti-bot form walk.
func (r *HTTPStreamResolver) walkSID(ctx context.Context, client *fetch.Client, sidURL string) (string, error) {
	// Step 0: GET the SID URL and extract _wp_http from the landing form.
	body, action, err := getFormPage(ctx, client, sidURL)
	if err != nil {
		return "", fmt.Errorf("step0 get sid page: %w", err)
	}
	wpHTTP := firstSubmatch(wpHTTPFormRegex, body)
	if wpHTTP == "" {
		return "", fmt.Errorf("step0: _wp_http not found on landing form")
	}
	if action == "" {
		action = sidURL
	}

	if err := checkCancel(ctx); err != nil {
		return "", err
	}

	// Step 1: POST _wp_http back to the form's action.
	verifyBody, verifyAction, err := postForm(ctx, client, action, map[string]string{"_wp_http": wpHTTP})
	if err != nil {
		return "", fmt.Errorf("step1 post _wp_http: %w", err)
	}

	if err := checkCancel(ctx); err != nil {
		return "", err
	}

	// Step 2: parse the verification page, extract _wp_http2 + token, POST them.
	wpHTTP2 := firstSubmatch(wpHTTP2FormRegex, verifyBody)
	tokenVal := firstSubmatch(wpTokenFormRegex, verifyBody)
	if wpHTTP2 == "" || tokenVal == "" {
		return "", fmt.Errorf("step2: _wp_http2/token not found on verification form")
	}
	if verifyAction == "" {
		verifyAction = action
	}
	finalBody, _, err := postForm(ctx, client, verifyAction, map[string]string{"_wp_http2": wpHTTP2, "token": tokenVal})
	if err != nil {
		return "", fmt.Errorf("step2 post _wp_http2/token: %w", err)
	}

	if err := checkCancel(ctx); err != nil {
		return "", err
	}

	// Step 3: scrape for a dynamic cookie and a link, set the cookie, GET the
	// link, and extract the destination from a meta-refresh tag.
	cookieMatch := s343CookieRegex.FindStringSubmatch(finalBody)
	linkMatch := setAttrHrefRegex.FindStringSubmatch(finalBody)
	if len(linkMatch) < 2 {
		return "", fmt.Errorf("step3: redirect link not found")
	}
	if len(cookieMatch) == 3 {
		if err := client.SetCookie(sidURL, &http.Cookie{Name: cookieMatch[1], Value: cookieMatch[2]}); err != nil {
			log.Printf("[httpstream-resolver] set dynamic cookie: %v", err)
		}
	}

	linkURL := resolveRelative(sidURL, linkMatch[1])
	resp, err := client.Get(ctx, linkURL, nil)
	if err != nil {
		return "", fmt.Errorf("step3 get redirect link: %w", err)
	}
	dest := firstSubmatch(metaRefreshRegex, resp.String())
	if dest == "" {
		return "", fmt.Errorf("step3: meta-refresh destination not found")
	}
	return strings.TrimSpace(dest), nil
}

// followRedirectPage implements step 2: a GET that may itself contain a
// window.location.replace(...) redirect to follow once more.
func (r *HTTPStreamResolver) followRedirectPage(ctx context.Context, client *fetch.Client, pageURL string) (string, error) {
	resp, err := client.Get(ctx, pageURL, nil)
	if err != nil {
		return "", err
	}
	if dest := firstSubmatch(jsLocationRegex, resp.String()); dest != "" {
		return resolveRelative(pageURL, dest), nil
	}
	return pageURL, nil
}

// extractFromFilePage implements step 3: scan the file page for a direct
// link, preferring Resume-Cloud/Instant-Download buttons over a raw scan.
func (r *HTTPStreamResolver) extractFromFilePage(ctx context.Context, client *fetch.Client, pageURL string) (string, error) {
	resp, err := client.Get(ctx, pageURL, nil)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", fmt.Errorf("parse file page: %w", err)
	}

	if href, ok := findButtonHref(doc, "resume cloud"); ok {
		if strings.Contains(href, "/zfile/") {
			return r.resolveZFile(ctx, client, resolveRelative(pageURL, href))
		}
		return resolveRelative(pageURL, href), nil
	}
	if href, ok := findButtonHref(doc, "instant download"); ok {
		if direct, err := r.resolveInstantDownload(ctx, client, resolveRelative(pageURL, href)); err == nil && direct != "" {
			return direct, nil
		}
	}
	for _, host := range append([]string{}, intermediateCDNHosts...) {
		if href, ok := findLinkToHost(doc, host); ok {
			return resolveRelative(pageURL, href), nil
		}
	}
	if link := videoCDNLinkRegex.FindString(resp.String()); link != "" {
		return link, nil
	}
	return "", fmt.Errorf("no direct link found on file page")
}

func (r *HTTPStreamResolver) resolveZFile(ctx context.Context, client *fetch.Client, zfileURL string) (string, error) {
	resp, err := client.Get(ctx, zfileURL, nil)
	if err != nil {
		return "", fmt.Errorf("get zfile page: %w", err)
	}
	key := firstSubmatch(regexp.MustCompile(`key["']?\s*[:=]\s*["']([^"']+)["']`), resp.String())
	if key == "" {
		return "", fmt.Errorf("zfile key not found")
	}
	postResp, err := client.Underlying().R().SetContext(ctx).SetFormData(map[string]string{"key": key}).Post(zfileURL)
	if err != nil {
		return "", fmt.Errorf("post zfile key: %w", err)
	}
	if link := videoCDNLinkRegex.FindString(postResp.String()); link != "" {
		return link, nil
	}
	return "", fmt.Errorf("zfile response carried no direct link")
}

func (r *HTTPStreamResolver) resolveInstantDownload(ctx context.Context, client *fetch.Client, apiURL string) (string, error) {
	resp, err := client.Get(ctx, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("get instant-download api: %w", err)
	}
	keys := firstSubmatch(regexp.MustCompile(`keys["']?\s*[:=]\s*["']([^"']+)["']`), resp.String())
	if keys == "" {
		return "", fmt.Errorf("instant-download keys not found")
	}
	postResp, err := client.Underlying().R().SetContext(ctx).SetFormData(map[string]string{"keys": keys}).Post(apiURL)
	if err != nil {
		return "", fmt.Errorf("post instant-download keys: %w", err)
	}
	if link := videoCDNLinkRegex.FindString(postResp.String()); link != "" {
		return link, nil
	}
	return "", nil
}

// postProcessCDN implements step 4: a known intermediate host's URL that
// carries the final URL as its url query parameter yields that parameter,
// percent-decoded. The intermediate host's HTML is not fetched, so a final
// URL embedded only there is not extracted and rawURL is returned unchanged.
func (r *HTTPStreamResolver) postProcessCDN(rawURL string) string {
	for _, host := range intermediateCDNHosts {
		if !strings.Contains(rawURL, host) {
			continue
		}
		if m := cdnURLParamRegex.FindStringSubmatch(rawURL); len(m) == 2 {
			if decoded, err := url.QueryUnescape(m[1]); err == nil {
				return decoded
			}
			return m[1]
		}
	}
	return rawURL
}

// validateSeekable implements step 5: HEAD with Range, fall back to a
// destroyed GET, skipping hosts on the configured skip-list.
func (r *HTTPStreamResolver) validateSeekable(ctx context.Context, client *fetch.Client, rawURL string) error {
	if r.disableSeekValidation || r.hostSkipsValidation(rawURL) {
		return nil
	}

	underlying := client.Underlying()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build head request: %w", err)
	}
	req.Header.Set("Range", "bytes=0-1")

	httpClient := underlying.GetClient()
	resp, err := httpClient.Do(req)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusPartialContent || (resp.StatusCode == http.StatusOK && resp.Header.Get("Accept-Ranges") == "bytes") {
			return nil
		}
	}

	// HEAD failed or was inconclusive: retry with a GET, destroying the body
	// immediately after inspecting the status.
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build get request: %w", err)
	}
	getReq.Header.Set("Range", "bytes=0-1")
	getResp, err := httpClient.Do(getReq)
	if err != nil {
		return fmt.Errorf("seek validation request failed: %w", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusPartialContent && getResp.StatusCode != http.StatusOK {
		return fmt.Errorf("seek validation failed with status %d", getResp.StatusCode)
	}
	return nil
}

func (r *HTTPStreamResolver) hostSkipsValidation(rawURL string) bool {
	if len(r.skipValidationHosts) == 0 {
		return false
	}
	for host := range r.skipValidationHosts {
		if strings.Contains(strings.ToLower(rawURL), host) {
			return true
		}
	}
	return false
}

// normalizeDirectURL rewrites known share-link shapes into their direct-
// download form, e.g. PixelDrain's "/u/<id>" -> "/api/file/<id>".
func normalizeDirectURL(rawURL string) string {
	if idx := strings.Index(rawURL, "pixeldrain.com/u/"); idx >= 0 {
		id := rawURL[idx+len("pixeldrain.com/u/"):]
		if slash := strings.IndexAny(id, "/?#"); slash >= 0 {
			id = id[:slash]
		}
		return "https://pixeldrain.com/api/file/" + id
	}
	return rawURL
}

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func firstSubmatch(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func getFormPage(ctx context.Context, client *fetch.Client, pageURL string) (body, action string, err error) {
	resp, err := client.Get(ctx, pageURL, nil)
	if err != nil {
		return "", "", err
	}
	body = resp.String()
	action = firstSubmatch(formActionRegex, body)
	return body, action, nil
}

// postForm submits fields as application/x-www-form-urlencoded, matching how
// a browser would submit the anti-bot page's own <form>; a JSON body here
// would just be ignored by the target site.
func postForm(ctx context.Context, client *fetch.Client, actionURL string, fields map[string]string) (body, nextAction string, err error) {
	resp, err := client.Underlying().R().SetContext(ctx).SetFormData(fields).Post(actionURL)
	if err != nil {
		return "", "", err
	}
	body = resp.String()
	nextAction = firstSubmatch(formActionRegex, body)
	return body, nextAction, nil
}

func findButtonHref(doc *goquery.Document, label string) (string, bool) {
	var href string
	var found bool
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if strings.Contains(text, label) {
			if h, ok := s.Attr("href"); ok {
				href, found = h, true
				return false
			}
		}
		return true
	})
	return href, found
}

func findLinkToHost(doc *goquery.Document, host string) (string, bool) {
	var href string
	var found bool
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, ok := s.Attr("href")
		if ok && strings.Contains(h, host) {
			href, found = h, true
			return false
		}
		return true
	})
	return href, found
}

func resolveRelative(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	idx := strings.Index(base[strings.Index(base, "://")+3:], "/")
	if idx < 0 {
		return base + ref
	}
	origin := base[:strings.Index(base, "://")+3+idx]
	if strings.HasPrefix(ref, "/") {
		return origin + ref
	}
	return strings.TrimSuffix(base, "/") + "/" + ref
}
