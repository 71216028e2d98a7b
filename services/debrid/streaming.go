package debrid

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"novastream/config"
	"novastream/services/streaming"
)

// cachedURL remembers an unrestricted download URL so repeat range requests
// against the same torrent/file don't re-unrestrict on every seek.
type cachedURL struct {
	url       string
	filename  string
	expiresAt time.Time
}

// StreamingProvider implements streaming.Provider over debrid-backed paths
// of the form /debrid/<provider>/<torrentID>[/file/<fileID>].
type StreamingProvider struct {
	cfg      *config.Manager
	urlCache map[string]cachedURL
	cacheMux sync.RWMutex
	cacheTTL time.Duration
}

// NewStreamingProvider returns a debrid-backed streaming.Provider.
func NewStreamingProvider(cfg *config.Manager) *StreamingProvider {
	return &StreamingProvider{
		cfg:      cfg,
		urlCache: make(map[string]cachedURL),
		cacheTTL: 10 * time.Minute,
	}
}

func parseDebridPath(p string) (provider, torrentID, fileID string, err error) {
	trimmed := strings.TrimSpace(p)
	if idx := strings.IndexAny(trimmed, "?#"); idx != -1 {
		trimmed = trimmed[:idx]
	}
	if !strings.HasPrefix(trimmed, "/debrid/") {
		err = fmt.Errorf("invalid debrid path format: %s", p)
		return
	}

	segments := strings.Split(strings.TrimPrefix(trimmed, "/debrid/"), "/")
	if len(segments) < 2 {
		err = fmt.Errorf("invalid debrid path format: %s", p)
		return
	}

	provider = segments[0]
	torrentID = segments[1]
	if len(segments) >= 4 && segments[2] == "file" {
		fileID = segments[3]
	}
	return
}

func cacheKeyFor(torrentID, fileID string) string {
	if strings.TrimSpace(fileID) == "" {
		return torrentID
	}
	return fmt.Sprintf("%s:%s", torrentID, fileID)
}

func (p *StreamingProvider) getCachedURL(key string) (url, filename string, found bool) {
	p.cacheMux.RLock()
	defer p.cacheMux.RUnlock()
	cached, ok := p.urlCache[key]
	if !ok || time.Now().After(cached.expiresAt) {
		return "", "", false
	}
	return cached.url, cached.filename, true
}

func (p *StreamingProvider) setCachedURL(key, url, filename string) {
	p.cacheMux.Lock()
	defer p.cacheMux.Unlock()
	p.urlCache[key] = cachedURL{url: url, filename: filename, expiresAt: time.Now().Add(p.cacheTTL)}
	for id, cached := range p.urlCache {
		if time.Now().After(cached.expiresAt) {
			delete(p.urlCache, id)
		}
	}
}

// GetDirectURL returns the unrestricted HTTP download URL for a debrid path,
// so ffprobe can seek against it directly instead of through our own proxy.
func (p *StreamingProvider) GetDirectURL(ctx context.Context, reqPath string) (string, error) {
	provider, torrentID, fileID, err := parseDebridPath(reqPath)
	if err != nil {
		return "", streaming.ErrNotFound
	}

	cacheKey := cacheKeyFor(torrentID, fileID)
	if url, _, found := p.getCachedURL(cacheKey); found {
		return url, nil
	}

	client, _, err := p.resolveClient(provider)
	if err != nil {
		return "", err
	}

	info, err := client.GetTorrentInfo(ctx, torrentID)
	if err != nil {
		return "", fmt.Errorf("get torrent info: %w", err)
	}

	restrictedLink, filename, _, _ := resolveRestrictedLink(info, fileID)
	if restrictedLink == "" {
		return "", fmt.Errorf("no download links available for torrent %s", torrentID)
	}

	unrestricted, err := client.UnrestrictLink(ctx, restrictedLink)
	if err != nil {
		return "", fmt.Errorf("unrestrict link: %w", err)
	}
	if unrestricted.DownloadURL == "" {
		return "", fmt.Errorf("no download URL returned from provider")
	}

	p.setCachedURL(cacheKey, unrestricted.DownloadURL, filename)
	return unrestricted.DownloadURL, nil
}

func (p *StreamingProvider) resolveClient(providerName string) (Provider, string, error) {
	settings, err := p.cfg.Load()
	if err != nil {
		return nil, "", fmt.Errorf("load settings: %w", err)
	}

	var apiKey string
	for _, dp := range settings.Streaming.DebridProviders {
		if strings.EqualFold(dp.Provider, providerName) && dp.Enabled {
			apiKey = strings.TrimSpace(dp.APIKey)
			break
		}
	}
	if apiKey == "" {
		return nil, "", fmt.Errorf("provider %q not configured or not enabled", providerName)
	}

	client, ok := GetProvider(strings.ToLower(providerName), apiKey)
	if !ok {
		return nil, "", fmt.Errorf("provider %q not registered", providerName)
	}
	return client, apiKey, nil
}

// Stream proxies a range request through to the unrestricted debrid URL.
func (p *StreamingProvider) Stream(ctx context.Context, req streaming.Request) (*streaming.Response, error) {
	cleanPath := strings.TrimPrefix(req.Path, "/")
	if !strings.HasPrefix(cleanPath, "debrid/") {
		return nil, streaming.ErrNotFound
	}

	provider, torrentID, fileID, err := parseDebridPath("/" + cleanPath)
	if err != nil {
		return nil, streaming.ErrNotFound
	}

	client, providerName, err := p.resolveClient(provider)
	if err != nil {
		return nil, err
	}

	cacheKey := cacheKeyFor(torrentID, fileID)
	downloadURL, filename, found := "", "", false
	if downloadURL, filename, found = p.getCachedURL(cacheKey); !found {
		info, err := client.GetTorrentInfo(ctx, torrentID)
		if err != nil {
			return nil, fmt.Errorf("get torrent info: %w", err)
		}

		restrictedLink, resolvedFilename, _, _ := resolveRestrictedLink(info, fileID)
		if restrictedLink == "" {
			return nil, fmt.Errorf("no download links available for torrent %s", torrentID)
		}

		unrestricted, err := client.UnrestrictLink(ctx, restrictedLink)
		if err != nil {
			return nil, fmt.Errorf("unrestrict link: %w", err)
		}
		downloadURL = unrestricted.DownloadURL
		filename = unrestricted.Filename
		if filename == "" {
			filename = resolvedFilename
		}
		p.setCachedURL(cacheKey, downloadURL, filename)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.RangeHeader != "" {
		httpReq.Header.Set("Range", req.RangeHeader)
	}

	httpClient := &http.Client{Timeout: 30 * time.Minute}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, fmt.Errorf("%s request failed: %s: %s", providerName, resp.Status, string(body))
	}

	headers := make(http.Header)
	for key, values := range resp.Header {
		for _, v := range values {
			headers.Add(key, v)
		}
	}
	if headers.Get("Accept-Ranges") == "" {
		headers.Set("Accept-Ranges", "bytes")
	}

	if req.Method == http.MethodHead {
		resp.Body.Close()
		return &streaming.Response{
			Status:        resp.StatusCode,
			Headers:       headers,
			ContentLength: resp.ContentLength,
			Body:          io.NopCloser(strings.NewReader("")),
			Filename:      filename,
		}, nil
	}

	log.Printf("[debrid-stream] proxying torrent=%s file=%s status=%d length=%d", torrentID, fileID, resp.StatusCode, resp.ContentLength)

	return &streaming.Response{
		Status:        resp.StatusCode,
		Headers:       headers,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
		Filename:      filename,
	}, nil
}
