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
	"novastream/models"
)

// ProviderCacheResult is the outcome of checking cache status on a single
// debrid provider as part of a multi-provider race.
type ProviderCacheResult struct {
	Provider  *config.DebridProviderSettings
	Client    Provider
	IsCached  bool
	TorrentID string
	Error     error
	Priority  int // Lower = higher priority (based on configuration array index)
}

// MultiProviderService checks availability across every configured debrid
// provider concurrently, implementing spec's fastest/preferred race modes.
type MultiProviderService struct {
	cfg *config.Manager
}

// NewMultiProviderService constructs a multi-provider cache-check service.
func NewMultiProviderService(cfg *config.Manager) *MultiProviderService {
	return &MultiProviderService{cfg: cfg}
}

type providerEntry struct {
	config   *config.DebridProviderSettings
	client   Provider
	priority int
}

// CheckCacheAcrossProviders checks all enabled providers for cache status on
// candidate, racing them per mode, and returns the winning provider's result.
func (s *MultiProviderService) CheckCacheAcrossProviders(
	ctx context.Context,
	candidate models.NZBResult,
	mode config.MultiProviderMode,
) (*ProviderCacheResult, error) {
	settings, err := s.cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var enabledProviders []providerEntry
	for i := range settings.Streaming.DebridProviders {
		p := &settings.Streaming.DebridProviders[i]
		if !p.Enabled || strings.TrimSpace(p.APIKey) == "" {
			continue
		}

		client, ok := GetProvider(strings.ToLower(p.Provider), p.APIKey)
		if !ok {
			log.Printf("[multi-provider] provider %q not registered, skipping", p.Provider)
			continue
		}

		if configurable, ok := client.(Configurable); ok && p.Config != nil {
			configurable.Configure(p.Config)
		}

		enabledProviders = append(enabledProviders, providerEntry{
			config:   p,
			client:   client,
			priority: i,
		})
	}

	if len(enabledProviders) == 0 {
		return nil, fmt.Errorf("no enabled debrid providers with API keys configured")
	}

	if len(enabledProviders) == 1 {
		log.Printf("[multi-provider] only one provider enabled (%s), using directly", enabledProviders[0].config.Name)
		return s.checkSingleProvider(ctx, candidate, enabledProviders[0])
	}

	log.Printf("[multi-provider] checking %d providers in %s mode", len(enabledProviders), mode)

	switch mode {
	case config.MultiProviderModePreferred:
		return s.checkPreferredMode(ctx, candidate, enabledProviders)
	case config.MultiProviderModeFastest:
		fallthrough
	default:
		return s.checkFastestMode(ctx, candidate, enabledProviders)
	}
}

func (s *MultiProviderService) checkSingleProvider(
	ctx context.Context,
	candidate models.NZBResult,
	pe providerEntry,
) (*ProviderCacheResult, error) {
	result := s.checkProviderCache(ctx, candidate, pe)
	if result.Error != nil {
		return nil, result.Error
	}
	if !result.IsCached {
		return nil, fmt.Errorf("torrent not cached on %s", pe.config.Name)
	}
	return result, nil
}

// checkFastestMode returns as soon as any provider reports cached, canceling
// the rest.
func (s *MultiProviderService) checkFastestMode(
	ctx context.Context,
	candidate models.NZBResult,
	providers []providerEntry,
) (*ProviderCacheResult, error) {
	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultChan := make(chan *ProviderCacheResult, len(providers))

	for _, p := range providers {
		go func(pe providerEntry) {
			result := s.checkProviderCache(checkCtx, candidate, pe)
			select {
			case resultChan <- result:
			case <-checkCtx.Done():
			}
		}(p)
	}

	var firstError error
	checkedCount := 0

	for checkedCount < len(providers) {
		select {
		case result := <-resultChan:
			checkedCount++

			if result.IsCached {
				log.Printf("[multi-provider] fastest mode: %s returned CACHED first", result.Provider.Name)
				cancel()
				return result, nil
			}

			if result.Error != nil {
				log.Printf("[multi-provider] %s check failed: %v", result.Provider.Name, result.Error)
				if firstError == nil {
					firstError = result.Error
				}
			} else {
				log.Printf("[multi-provider] %s: not cached", result.Provider.Name)
			}

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if firstError != nil {
		return nil, fmt.Errorf("torrent not cached on any provider: %w", firstError)
	}
	return nil, fmt.Errorf("torrent not cached on any enabled provider")
}

// checkPreferredMode waits for every provider and returns the highest
// priority (lowest index) cached result, tearing down the losers.
func (s *MultiProviderService) checkPreferredMode(
	ctx context.Context,
	candidate models.NZBResult,
	providers []providerEntry,
) (*ProviderCacheResult, error) {
	var wg sync.WaitGroup
	results := make([]*ProviderCacheResult, len(providers))

	for i, p := range providers {
		wg.Add(1)
		go func(idx int, pe providerEntry) {
			defer wg.Done()
			results[idx] = s.checkProviderCache(ctx, candidate, pe)
		}(i, p)
	}

	wg.Wait()

	var bestResult *ProviderCacheResult
	var firstError error

	for i, result := range results {
		if result == nil {
			continue
		}

		providerName := providers[i].config.Name
		switch {
		case result.IsCached:
			log.Printf("[multi-provider] %s: CACHED (priority %d)", providerName, result.Priority)
			if bestResult == nil || result.Priority < bestResult.Priority {
				if bestResult != nil && bestResult.TorrentID != "" {
					log.Printf("[multi-provider] cleaning up lower-priority cached torrent from %s", bestResult.Provider.Name)
					_ = bestResult.Client.DeleteTorrent(ctx, bestResult.TorrentID)
				}
				bestResult = result
			} else if result.TorrentID != "" {
				log.Printf("[multi-provider] cleaning up lower-priority cached torrent from %s", providerName)
				_ = result.Client.DeleteTorrent(ctx, result.TorrentID)
			}
		case result.Error != nil:
			log.Printf("[multi-provider] %s: error - %v", providerName, result.Error)
			if firstError == nil {
				firstError = result.Error
			}
		default:
			log.Printf("[multi-provider] %s: not cached", providerName)
		}
	}

	if bestResult != nil {
		log.Printf("[multi-provider] preferred mode: using %s (priority %d)", bestResult.Provider.Name, bestResult.Priority)
		return bestResult, nil
	}

	if firstError != nil {
		return nil, fmt.Errorf("torrent not cached on any provider: %w", firstError)
	}
	return nil, fmt.Errorf("torrent not cached on any enabled provider")
}

// checkProviderCache adds the candidate to a single provider, selects its
// media files, and reports whether it is already cached, cleaning up the
// remote job either way.
func (s *MultiProviderService) checkProviderCache(
	ctx context.Context,
	candidate models.NZBResult,
	pe providerEntry,
) *ProviderCacheResult {
	result := &ProviderCacheResult{
		Provider: pe.config,
		Client:   pe.client,
		Priority: pe.priority,
	}

	providerName := pe.config.Name
	torrentURL := strings.TrimSpace(candidate.Attributes["torrentURL"])

	var addResp *AddMagnetResult
	var err error

	switch {
	case strings.HasPrefix(strings.ToLower(candidate.Link), "magnet:"):
		log.Printf("[multi-provider] %s: adding magnet", providerName)
		addResp, err = pe.client.AddMagnet(ctx, candidate.Link)
	case torrentURL != "":
		log.Printf("[multi-provider] %s: downloading and uploading torrent file", providerName)
		var torrentData []byte
		var filename string
		torrentData, filename, err = s.downloadTorrentFile(ctx, torrentURL)
		if err != nil {
			result.Error = fmt.Errorf("download torrent file: %w", err)
			return result
		}
		addResp, err = pe.client.AddTorrentFile(ctx, torrentData, filename)
	default:
		result.Error = fmt.Errorf("no magnet or torrent URL")
		return result
	}

	if err != nil {
		result.Error = fmt.Errorf("add torrent: %w", err)
		return result
	}

	result.TorrentID = addResp.ID
	log.Printf("[multi-provider] %s: torrent added with ID %s", providerName, result.TorrentID)

	info, err := pe.client.GetTorrentInfo(ctx, result.TorrentID)
	if err != nil {
		_ = pe.client.DeleteTorrent(ctx, result.TorrentID)
		result.TorrentID = ""
		result.Error = fmt.Errorf("get torrent info: %w", err)
		return result
	}

	selection := selectMediaFiles(info.Files, buildSelectionHints(candidate, info.Filename))
	if selection == nil || len(selection.OrderedIDs) == 0 {
		_ = pe.client.DeleteTorrent(ctx, result.TorrentID)
		result.TorrentID = ""
		result.Error = fmt.Errorf("no media files found")
		return result
	}
	if selection.RejectionReason != "" {
		_ = pe.client.DeleteTorrent(ctx, result.TorrentID)
		result.TorrentID = ""
		result.Error = fmt.Errorf("%s", selection.RejectionReason)
		return result
	}

	fileSelection := strings.Join(selection.OrderedIDs, ",")
	if err := pe.client.SelectFiles(ctx, result.TorrentID, fileSelection); err != nil {
		_ = pe.client.DeleteTorrent(ctx, result.TorrentID)
		result.TorrentID = ""
		result.Error = fmt.Errorf("select files: %w", err)
		return result
	}

	info, err = pe.client.GetTorrentInfo(ctx, result.TorrentID)
	if err != nil {
		_ = pe.client.DeleteTorrent(ctx, result.TorrentID)
		result.TorrentID = ""
		result.Error = fmt.Errorf("get torrent info after selection: %w", err)
		return result
	}

	result.IsCached = strings.ToLower(info.Status) == "downloaded"
	log.Printf("[multi-provider] %s: status=%s cached=%t", providerName, info.Status, result.IsCached)

	if !result.IsCached {
		log.Printf("[multi-provider] %s: not cached, cleaning up", providerName)
		_ = pe.client.DeleteTorrent(ctx, result.TorrentID)
		result.TorrentID = ""
	}

	return result
}

func (s *MultiProviderService) downloadTorrentFile(ctx context.Context, torrentURL string) ([]byte, string, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, torrentURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; novastream/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	if len(data) < 10 || data[0] != 'd' {
		return nil, "", fmt.Errorf("invalid torrent file format")
	}

	filename := "download.torrent"
	if cd := resp.Header.Get("Content-Disposition"); cd != "" && strings.Contains(cd, "filename=") {
		parts := strings.Split(cd, "filename=")
		if len(parts) >= 2 {
			filename = strings.Trim(parts[1], `"' `)
		}
	}

	return data, filename, nil
}
