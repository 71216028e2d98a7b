package debrid

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"novastream/internal/fetch"
	"novastream/models"
)

// AIOStreamsScraper queries AIOStreams for pre-resolved debrid streams.
// AIOStreams aggregates multiple Stremio addons and returns ready-to-play URLs.
type AIOStreamsScraper struct {
	name    string // User-configured name for display
	baseURL string
	client  *fetch.Client
}

// NewAIOStreamsScraper constructs a scraper for AIOStreams.
// The name parameter is the user-configured display name (empty falls back to "aiostreams").
// The baseURL should be the full path including the user config portion,
// e.g., "https://aiostreams.elfhosted.com/stremio/{userId}/{configToken}"
// client may be nil, in which case a default no-proxy fetch.Client is built.
func NewAIOStreamsScraper(baseURL, name string, client *fetch.Client) *AIOStreamsScraper {
	if client == nil {
		client, _ = fetch.New(fetch.PurposeScrapers, fetch.ProxyMatrix{}, 30*time.Second, fetch.DefaultRetryPolicy())
	}
	// Normalize URL: trim trailing slashes and /manifest.json if present
	baseURL = strings.TrimSuffix(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/manifest.json")
	return &AIOStreamsScraper{
		name:    strings.TrimSpace(name),
		baseURL: baseURL,
		client:  client,
	}
}

func (a *AIOStreamsScraper) Name() string {
	if a.name != "" {
		return a.name
	}
	return "aiostreams"
}

func (a *AIOStreamsScraper) Search(ctx context.Context, req SearchRequest) ([]ScrapeResult, error) {
	// AIOStreams requires an IMDB ID - it doesn't support text search
	imdbID := strings.TrimSpace(req.IMDBID)
	if imdbID == "" {
		log.Printf("[aiostreams] No IMDB ID provided, skipping search")
		return nil, nil
	}

	// Ensure IMDB ID has "tt" prefix
	if !strings.HasPrefix(strings.ToLower(imdbID), "tt") {
		imdbID = "tt" + imdbID
	}

	log.Printf("[aiostreams] Search called with IMDBID=%q, Season=%d, Episode=%d, MediaType=%s",
		imdbID, req.Parsed.Season, req.Parsed.Episode, req.Parsed.MediaType)

	// Determine media type candidates
	mediaCandidates := determineMediaCandidates(req.Parsed.MediaType)

	var (
		results []ScrapeResult
		errs    []error
		seen    = make(map[string]struct{})
	)

	for _, mediaType := range mediaCandidates {
		streamID := imdbID
		stremioType := "movie"
		if mediaType == MediaTypeSeries {
			stremioType = "series"
			if req.Parsed.Season > 0 && req.Parsed.Episode > 0 {
				streamID = fmt.Sprintf("%s:%d:%d", imdbID, req.Parsed.Season, req.Parsed.Episode)
			}
		}

		streams, err := a.fetchStreams(ctx, stremioType, streamID)
		if err != nil {
			errs = append(errs, fmt.Errorf("aiostreams %s %s: %w", stremioType, streamID, err))
			continue
		}

		for _, stream := range streams {
			if stream.url == "" {
				continue
			}
			// Use URL as unique identifier since there's no infohash
			guid := fmt.Sprintf("%s:%s", a.Name(), stream.url)
			if _, exists := seen[guid]; exists {
				continue
			}
			seen[guid] = struct{}{}

			results = append(results, ScrapeResult{
				Title:       stream.filename,
				Indexer:     a.Name(),
				TorrentURL:  stream.url, // Use TorrentURL field to store the direct stream URL
				InfoHash:    "",         // No infohash - these are pre-resolved streams
				FileIndex:   0,
				SizeBytes:   stream.sizeBytes,
				Seeders:     0, // Not applicable for pre-resolved streams
				Provider:    stream.provider,
				Languages:   stream.languages,
				Resolution:  stream.resolution,
				MetaName:    stream.title,
				MetaID:      imdbID,
				Source:      a.Name(),
				Attributes:  stream.attributes(),
				ServiceType: models.ServiceTypeDebrid,
			})

			if req.MaxResults > 0 && len(results) >= req.MaxResults {
				return results, nil
			}
		}
	}

	if len(results) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("aiostreams search failed: %w", errs[0])
	}

	log.Printf("[aiostreams] Found %d streams for %s", len(results), imdbID)
	return results, nil
}

type aiostreamsResponse struct {
	Streams []struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		URL           string `json:"url"`
		BehaviorHints struct {
			BingeGroup string `json:"bingeGroup"`
			VideoSize  int64  `json:"videoSize"`
			Filename   string `json:"filename"`
		} `json:"behaviorHints"`
	} `json:"streams"`
}

type aiostreamsStream struct {
	title      string
	filename   string
	url        string
	sizeBytes  int64
	resolution string
	provider   string
	languages  []string
	source     string // e.g., "BluRay REMUX"
	hdr        string // e.g., "HDR", "DV", "HDR10"
	codec      string // e.g., "HEVC"
	audio      string // e.g., "DTS-HD MA", "Atmos"
	rawDesc    string
}

func (s aiostreamsStream) attributes() map[string]string {
	attrs := map[string]string{
		"scraper":    "aiostreams",
		"raw_title":  s.filename,
		"stream_url": s.url,
	}
	if s.provider != "" {
		attrs["tracker"] = s.provider
	}
	if s.resolution != "" {
		attrs["resolution"] = s.resolution
	}
	if s.source != "" {
		attrs["source"] = s.source
	}
	if s.hdr != "" {
		attrs["hdr"] = s.hdr
	}
	if s.codec != "" {
		attrs["codec"] = s.codec
	}
	if s.audio != "" {
		attrs["audio"] = s.audio
	}
	if len(s.languages) > 0 {
		attrs["languages"] = strings.Join(s.languages, ",")
	}
	// Mark as pre-resolved so downstream knows not to resolve again
	attrs["preresolved"] = "true"
	return attrs
}

// Regex patterns for parsing AIOStreams description
var (
	aioSizeRegex     = regexp.MustCompile(`📦\s*([\d.,]+)\s*([KMGTP]?B)`)
	aioProviderRegex = regexp.MustCompile(`📡\s*(\S+)`)
	aioSourceRegex   = regexp.MustCompile(`🎥\s*([^\n📺🎞️🎧]+)`)
	aioHDRRegex      = regexp.MustCompile(`📺\s*([^\n🎞️🎧]+)`)
	aioCodecRegex    = regexp.MustCompile(`🎞️\s*([^\n🎧📦]+)`)
	aioAudioRegex    = regexp.MustCompile(`🎧\s*([^\n🔊📦]+)`)
)

func (a *AIOStreamsScraper) fetchStreams(ctx context.Context, mediaType, id string) ([]aiostreamsStream, error) {
	if id == "" {
		return nil, fmt.Errorf("empty stream id")
	}

	endpoint := fmt.Sprintf("%s/stream/%s/%s.json", a.baseURL, mediaType, url.PathEscape(id))
	log.Printf("[aiostreams] Fetching: %s", endpoint)

	resp, err := a.client.GetWithHeaders(ctx, endpoint, browserHeaders(), nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		preview := resp.String()
		if len(preview) > 512 {
			preview = preview[:512]
		}
		return nil, fmt.Errorf("aiostreams %s returned %d: %s", id, resp.StatusCode(), strings.TrimSpace(preview))
	}

	var payload aiostreamsResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode aiostreams response: %w", err)
	}

	streams := make([]aiostreamsStream, 0, len(payload.Streams))
	for _, stream := range payload.Streams {
		streamURL := strings.TrimSpace(stream.URL)
		if streamURL == "" {
			continue
		}

		filename := strings.TrimSpace(stream.BehaviorHints.Filename)
		if filename == "" {
			// Try to extract from URL or description
			filename = extractFilenameFromURL(streamURL)
		}

		parsed := parseAIODescription(stream.Description)
		resolution := detectAIOResolution(stream.Name, stream.BehaviorHints.BingeGroup)

		// Use size from behaviorHints if available
		sizeBytes := stream.BehaviorHints.VideoSize
		if sizeBytes == 0 {
			sizeBytes = parsed.sizeBytes
		}

		streams = append(streams, aiostreamsStream{
			title:      extractTitleFromDescription(stream.Description),
			filename:   filename,
			url:        streamURL,
			sizeBytes:  sizeBytes,
			resolution: resolution,
			provider:   parsed.provider,
			languages:  parsed.languages,
			source:     parsed.source,
			hdr:        parsed.hdr,
			codec:      parsed.codec,
			audio:      parsed.audio,
			rawDesc:    stream.Description,
		})
	}

	return streams, nil
}

type parsedAIODescription struct {
	provider  string
	source    string
	hdr       string
	codec     string
	audio     string
	languages []string
	sizeBytes int64
}

func parseAIODescription(desc string) parsedAIODescription {
	var p parsedAIODescription

	// Extract provider (📡)
	if match := aioProviderRegex.FindStringSubmatch(desc); len(match) > 1 {
		p.provider = strings.TrimSpace(match[1])
	}

	// Extract source (🎥) - e.g., "BluRay REMUX"
	if match := aioSourceRegex.FindStringSubmatch(desc); len(match) > 1 {
		p.source = strings.TrimSpace(match[1])
	}

	// Extract HDR info (📺) - e.g., "HDR | DV"
	if match := aioHDRRegex.FindStringSubmatch(desc); len(match) > 1 {
		p.hdr = strings.TrimSpace(match[1])
	}

	// Extract codec (🎞️) - e.g., "HEVC"
	if match := aioCodecRegex.FindStringSubmatch(desc); len(match) > 1 {
		codec := strings.TrimSpace(match[1])
		// Clean up - might contain episode info like "E01"
		if !strings.HasPrefix(strings.ToUpper(codec), "E0") && !strings.HasPrefix(strings.ToUpper(codec), "E1") {
			p.codec = codec
		}
	}

	// Extract audio (🎧) - e.g., "Atmos | DTS-HD MA"
	if match := aioAudioRegex.FindStringSubmatch(desc); len(match) > 1 {
		p.audio = strings.TrimSpace(match[1])
	}

	// Extract size (📦)
	if match := aioSizeRegex.FindStringSubmatch(desc); len(match) == 3 {
		p.sizeBytes = parseSize("💾 " + match[1] + " " + match[2]) // Reuse existing parseSize
	}

	// Extract languages from flags in description
	p.languages = extractLanguagesFromDesc(desc)

	return p
}

func detectAIOResolution(name, bingeGroup string) string {
	combined := strings.ToLower(name + " " + bingeGroup)
	switch {
	case strings.Contains(combined, "2160p") || strings.Contains(combined, "4k"):
		return "2160p"
	case strings.Contains(combined, "1080p"):
		return "1080p"
	case strings.Contains(combined, "720p"):
		return "720p"
	case strings.Contains(combined, "480p"):
		return "480p"
	default:
		return ""
	}
}

func extractTitleFromDescription(desc string) string {
	// Title is usually after 🎬 emoji
	if idx := strings.Index(desc, "🎬"); idx >= 0 {
		rest := desc[idx+len("🎬"):]
		// Find end of line or next emoji
		end := strings.IndexAny(rest, "\n🎥📺🎞️🎧📦")
		if end > 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	// Fallback: first line
	lines := strings.Split(desc, "\n")
	if len(lines) > 0 {
		return strings.TrimSpace(lines[0])
	}
	return ""
}

func extractFilenameFromURL(streamURL string) string {
	parsed, err := url.Parse(streamURL)
	if err != nil {
		return ""
	}
	// Check query parameter "name"
	if name := parsed.Query().Get("name"); name != "" {
		return name
	}
	// Use last path segment
	segments := strings.Split(parsed.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(segments[i]); seg != "" {
			decoded, err := url.PathUnescape(seg)
			if err == nil {
				return decoded
			}
			return seg
		}
	}
	return ""
}

func extractLanguagesFromDesc(desc string) []string {
	var languages []string

	// Common language flags and indicators
	langPatterns := map[string]string{
		"🇬🇧": "English",
		"🇺🇸": "English",
		"🇩🇪": "German",
		"🇫🇷": "French",
		"🇪🇸": "Spanish",
		"🇮🇹": "Italian",
		"🇷🇺": "Russian",
		"🇯🇵": "Japanese",
		"🇨🇳": "Chinese",
		"🇰🇷": "Korean",
		"🇵🇹": "Portuguese",
		"🇳🇱": "Dutch",
		"🇵🇱": "Polish",
		"🇸🇪": "Swedish",
		"🇨🇿": "Czech",
		"🇭🇺": "Hungarian",
		"🇹🇷": "Turkish",
		"🌎": "Multi",
	}

	for flag, lang := range langPatterns {
		if strings.Contains(desc, flag) {
			languages = append(languages, lang)
		}
	}

	// Check for "Dubbed" indicator
	if strings.Contains(strings.ToLower(desc), "dubbed") {
		if len(languages) == 0 {
			languages = append(languages, "Dubbed")
		}
	}

	return languages
}

// TestConnection verifies the AIOStreams endpoint is reachable by fetching the manifest.
func (a *AIOStreamsScraper) TestConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("%s/manifest.json", a.baseURL)
	resp, err := a.client.GetWithHeaders(ctx, endpoint, browserHeaders(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to AIOStreams: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("AIOStreams returned status %d", resp.StatusCode())
	}

	return nil
}
