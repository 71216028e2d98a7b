package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"novastream/models"
)

// Minimal TVDB v4 client: token auth plus the one search-by-remote-id lookup
// GetMeta needs for series. Everything the teacher's catalog used this
// client for beyond that (episode translations, artworks, aliases, extended
// data, trailers, MDBList list sync) has no SPEC_FULL.md component.

const tvdbArtworkBaseURL = "https://artworks.thetvdb.com"

type tvdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTVDBClient(apiKey, language string, httpc *http.Client) *tvdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	language = normalizeTVDBLanguage(language)
	return &tvdbClient{apiKey: apiKey, language: language, httpc: httpc, minInterval: 20 * time.Millisecond}
}

func (c *tvdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// normalizeTVDBLanguage converts 2-letter ISO 639-1 codes to 3-letter ISO 639-2 codes for TVDB
func normalizeTVDBLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	switch lang {
	case "en":
		return "eng"
	case "es":
		return "spa"
	case "fr":
		return "fra"
	case "de":
		return "deu"
	case "it":
		return "ita"
	case "pt":
		return "por"
	case "ja":
		return "jpn"
	default:
		if len(lang) == 3 {
			return lang
		}
		return "eng"
	}
}

func normalizeLanguageCode(lang string) string {
	trimmed := strings.TrimSpace(lang)
	if trimmed == "" {
		return ""
	}
	if idx := strings.Index(trimmed, ";"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = strings.ToLower(strings.TrimSpace(trimmed))
	if idx := strings.IndexAny(trimmed, "-_"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if len(trimmed) > 2 {
		trimmed = trimmed[:2]
	}
	return trimmed
}

func normalizeTVDBImageURL(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if u, err := url.Parse(trimmed); err == nil && u.Scheme != "" && u.Host != "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "//") {
		return "https:" + trimmed
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "artworks.thetvdb.com") {
		return "https://" + strings.TrimPrefix(trimmed, "//")
	}
	return tvdbArtworkBaseURL + "/" + strings.TrimPrefix(trimmed, "/")
}

func (c *tvdbClient) ensureToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-1*time.Minute)) {
		return c.token, nil
	}
	body := map[string]string{"apikey": c.apiKey}
	buf, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, "https://api4.thetvdb.com/v4/login", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("tvdb login failed: %s", resp.Status)
	}
	var data struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	c.token = data.Data.Token
	c.tokenExpiry = time.Now().Add(23 * time.Hour)
	return c.token, nil
}

func (c *tvdbClient) doGET(u string, q url.Values, v any) error {
	if len(q) > 0 {
		if strings.Contains(u, "?") {
			u = u + "&" + q.Encode()
		} else {
			u = u + "?" + q.Encode()
		}
	}
	var lastErr error
	backoff := 300 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		token, err := c.ensureToken()
		if err != nil {
			lastErr = err
			time.Sleep(backoff)
			backoff *= 2
			continue
		}
		c.throttleMu.Lock()
		since := time.Since(c.lastRequest)
		if since < c.minInterval {
			time.Sleep(c.minInterval - since)
		}
		c.lastRequest = time.Now()
		c.throttleMu.Unlock()

		req, _ := http.NewRequest(http.MethodGet, u, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if acceptLang := normalizeLanguageCode(c.language); acceptLang != "" {
			req.Header.Set("Accept-Language", acceptLang)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(backoff)
			backoff *= 2
			continue
		}
		if resp.StatusCode >= 300 {
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				if ra := resp.Header.Get("Retry-After"); ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						time.Sleep(time.Duration(secs) * time.Second)
					}
				} else {
					time.Sleep(backoff)
					backoff *= 2
				}
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				resp.Body.Close()
				lastErr = fmt.Errorf("tvdb get %s failed: %s: %s", u, resp.Status, strings.TrimSpace(string(body)))
				continue
			}
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return fmt.Errorf("tvdb get %s failed: %s: %s", u, resp.Status, strings.TrimSpace(string(body)))
		}
		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		return err
	}
	return lastErr
}

type tvdbSearchResult struct {
	Name      string   `json:"name"`
	Overview  string   `json:"overview"`
	Year      string   `json:"year"`
	TVDBID    string   `json:"tvdb_id"`
	ImageURL  string   `json:"image_url"`
	RemoteIDs []struct {
		ID         string `json:"id"`
		SourceName string `json:"sourceName"`
	} `json:"remote_ids"`
}

// seriesByIMDBID searches TVDB's remote-id index for a series matching an
// IMDb ID directly, without a title-based fallback search.
func (c *tvdbClient) seriesByIMDBID(imdbID string) (*models.Title, error) {
	if !c.isConfigured() {
		return nil, fmt.Errorf("tvdb not configured")
	}
	var resp struct {
		Data []tvdbSearchResult `json:"data"`
	}
	params := url.Values{"type": []string{"series"}, "remote_id": []string{imdbID}}
	if err := c.doGET("https://api4.thetvdb.com/v4/search", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no tvdb series for imdb id %s", imdbID)
	}
	return tvdbSearchResultToTitle(resp.Data[0], imdbID), nil
}

func tvdbSearchResultToTitle(r tvdbSearchResult, imdbID string) *models.Title {
	year := 0
	if y, err := strconv.Atoi(r.Year); err == nil {
		year = y
	}
	tvdbID := int64(0)
	if id, err := strconv.ParseInt(r.TVDBID, 10, 64); err == nil {
		tvdbID = id
	}

	title := &models.Title{
		Name:      r.Name,
		Overview:  r.Overview,
		Year:      year,
		MediaType: "series",
		IMDBID:    imdbID,
		TVDBID:    tvdbID,
	}
	if r.ImageURL != "" {
		title.Poster = &models.Image{URL: normalizeTVDBImageURL(r.ImageURL)}
	}
	return title
}
