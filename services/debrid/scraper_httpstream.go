package debrid

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"novastream/internal/fetch"
	"novastream/internal/token"
	"novastream/models"
)

// HTTPStreamScraper scrapes an HTTP-file-hoster index (UHDMovies, MoviesDrive
// style): it returns preview results whose URL is one of our own opaque
// resolver tokens rather than a playable link, since the SID chain that
// unwraps the real CDN URL is expensive and only worth running when a user
// actually clicks the stream (spec §4.7).
//
// Grounded on deflix-stremio's 1337x goquery scraper for the search ->
// detail-page -> link traversal shape.
type HTTPStreamScraper struct {
	name    string
	baseURL string
	client  *fetch.Client
}

// NewHTTPStreamScraper constructs a scraper for one HTTP-stream hoster index.
// client may be nil, in which case a default no-proxy fetch.Client is built.
func NewHTTPStreamScraper(name, baseURL string, client *fetch.Client) *HTTPStreamScraper {
	if client == nil {
		client, _ = fetch.New(fetch.PurposeHTTPStreams, fetch.ProxyMatrix{}, 15*time.Second, fetch.DefaultRetryPolicy())
	}
	return &HTTPStreamScraper{
		name:    strings.TrimSpace(name),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (h *HTTPStreamScraper) Name() string {
	if h.name != "" {
		return h.name
	}
	return "httpstream"
}

// httpStreamSIDPayload is the opaque token payload minted for this
// provider: the intermediate SID URL the resolver chain must walk.
type httpStreamSIDPayload struct {
	SIDURL string `json:"sidUrl"`
}

func (h *HTTPStreamScraper) Search(ctx context.Context, req SearchRequest) ([]ScrapeResult, error) {
	query := strings.TrimSpace(req.Parsed.Title)
	if query == "" {
		query = strings.TrimSpace(req.Query)
	}
	if query == "" {
		return nil, nil
	}

	searchURL := fmt.Sprintf("%s/?s=%s", h.baseURL, strings.ReplaceAll(query, " ", "+"))
	doc, err := h.getDoc(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", h.Name(), err)
	}

	var postURLs []string
	doc.Find("article a, h2.entry-title a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		for _, u := range postURLs {
			if u == href {
				return
			}
		}
		postURLs = append(postURLs, href)
	})
	if len(postURLs) == 0 {
		return nil, nil
	}
	if len(postURLs) > 5 {
		postURLs = postURLs[:5]
	}

	var results []ScrapeResult
	for _, postURL := range postURLs {
		select {
		case <-ctx.Done():
			return results, nil
		default:
		}

		postResults, err := h.scrapePost(ctx, postURL)
		if err != nil {
			log.Printf("[%s] post %s: %v", h.Name(), postURL, err)
			continue
		}
		results = append(results, postResults...)
		if req.MaxResults > 0 && len(results) >= req.MaxResults {
			results = results[:req.MaxResults]
			break
		}
	}
	return results, nil
}

// scrapePost reads one article/post page and mints one ScrapeResult per
// download link found, each carrying its own opaque token.
func (h *HTTPStreamScraper) scrapePost(ctx context.Context, postURL string) ([]ScrapeResult, error) {
	doc, err := h.getDoc(ctx, postURL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("h1.entry-title, h1").First().Text())
	if title == "" {
		title = postURL
	}
	size := extractSizeFromText(doc.Find(".entry-content").Text())
	resolution := detectResolutionFromTitle(title)

	var out []ScrapeResult
	doc.Find(".entry-content a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !looksLikeSIDURL(href) {
			return
		}
		linkText := strings.TrimSpace(s.Text())

		tok, err := token.Encode("httpstream", httpStreamSIDPayload{SIDURL: href})
		if err != nil {
			log.Printf("[%s] mint token: %v", h.Name(), err)
			return
		}

		resultTitle := title
		if linkText != "" {
			resultTitle = title + " " + linkText
		}

		out = append(out, ScrapeResult{
			Title:       resultTitle,
			Indexer:     h.Name(),
			TorrentURL:  tok, // opaque resolution token, not a playable URL
			SizeBytes:   size,
			Resolution:  resolution,
			Provider:    h.Name(),
			Source:      h.Name(),
			ServiceType: models.ServiceTypeHTTPStream,
			Attributes: map[string]string{
				"needsResolution": "true",
				"opaqueToken":     tok,
				"sourcePage":      postURL,
			},
		})
	})
	return out, nil
}

func (h *HTTPStreamScraper) getDoc(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := h.client.Get(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %d", rawURL, resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// looksLikeSIDURL filters the post's anchor links down to the ones that are
// plausibly the anti-bot intermediate link rather than navigation/sharing
// chrome, by requiring a path segment the hoster uses for its SID redirector.
func looksLikeSIDURL(href string) bool {
	lower := strings.ToLower(href)
	if !strings.HasPrefix(lower, "http") {
		return false
	}
	for _, marker := range []string{"/archives/", "sid=", "/?id=", "go.php", "links.php"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

var resolutionMarkers = []string{"2160p", "1080p", "720p", "480p"}

func detectResolutionFromTitle(title string) string {
	lower := strings.ToLower(title)
	for _, r := range resolutionMarkers {
		if strings.Contains(lower, r) {
			return r
		}
	}
	return ""
}

// extractSizeFromText finds the first "<number><unit>" size mention (e.g.
// "4.2GB") in free text and returns it in bytes, or 0 if none is found.
func extractSizeFromText(text string) int64 {
	fields := strings.Fields(text)
	for _, f := range fields {
		f = strings.Trim(f, "()[],")
		if n, unit, ok := splitSizeToken(f); ok {
			return sizeToBytes(n, unit)
		}
	}
	return 0
}

func splitSizeToken(token string) (float64, string, bool) {
	units := []string{"GB", "GiB", "MB", "MiB", "TB", "TiB"}
	upper := strings.ToUpper(token)
	for _, unit := range units {
		if strings.HasSuffix(upper, strings.ToUpper(unit)) {
			numPart := token[:len(token)-len(unit)]
			n, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				continue
			}
			return n, strings.ToUpper(unit), true
		}
	}
	return 0, "", false
}

func sizeToBytes(n float64, unit string) int64 {
	const (
		kib = 1024
		mib = kib * 1024
		gib = mib * 1024
		tib = gib * 1024
	)
	switch unit {
	case "GB", "GIB":
		return int64(n * gib)
	case "MB", "MIB":
		return int64(n * mib)
	case "TB", "TIB":
		return int64(n * tib)
	default:
		return 0
	}
}
