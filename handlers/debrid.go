package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"novastream/config"
	"novastream/models"
	"novastream/services/debrid"
	"novastream/services/streaming"
)

type multiProviderCacheChecker interface {
	CheckCacheAcrossProviders(ctx context.Context, candidate models.NZBResult, mode config.MultiProviderMode) (*debrid.ProviderCacheResult, error)
}

var _ multiProviderCacheChecker = (*debrid.MultiProviderService)(nil)

// DebridHandler exposes debrid cache-checking and byte-proxying over HTTP,
// independent of the playback-resolution flow in PlaybackHandler.
type DebridHandler struct {
	CacheChecker multiProviderCacheChecker
	Proxier      streaming.Provider
	Manager      *config.Manager
}

func NewDebridHandler(checker multiProviderCacheChecker, proxier streaming.Provider, cfg *config.Manager) *DebridHandler {
	return &DebridHandler{CacheChecker: checker, Proxier: proxier, Manager: cfg}
}

// CheckCached reports whether a candidate's infohash is instantly available
// on any configured debrid provider, racing providers per the configured
// multi-provider mode (fastest or preferred).
func (h *DebridHandler) CheckCached(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Result models.NZBResult `json:"result"`
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mode := config.MultiProviderModeFastest
	if h.Manager != nil {
		if settings, err := h.Manager.Load(); err == nil && settings.Streaming.MultiProviderMode != "" {
			mode = settings.Streaming.MultiProviderMode
		}
	}

	result, err := h.CacheChecker.CheckCacheAcrossProviders(r.Context(), request.Result, mode)
	if err != nil {
		log.Printf("[debrid-handler] cache check failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := struct {
		Cached    bool   `json:"cached"`
		Provider  string `json:"provider,omitempty"`
		TorrentID string `json:"torrentId,omitempty"`
	}{
		Cached: result.IsCached,
	}
	if result.Provider != nil {
		resp.Provider = result.Provider.Name
	}
	resp.TorrentID = result.TorrentID

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Proxy streams bytes from a debrid-backed path (/debrid/<provider>/<id>...),
// forwarding Range headers and the upstream's response headers verbatim.
func (h *DebridHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	req := streaming.Request{
		Path:        r.URL.Path,
		Method:      r.Method,
		RangeHeader: r.Header.Get("Range"),
	}

	resp, err := h.Proxier.Stream(r.Context(), req)
	if err != nil {
		if errors.Is(err, streaming.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("[debrid-handler] proxy failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Close()

	for key, values := range resp.Headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.Status)

	if resp.Body != nil && r.Method != http.MethodHead {
		if _, err := io.Copy(w, resp.Body); err != nil {
			log.Printf("[debrid-handler] proxy copy failed: %v", err)
		}
	}
}

// Options answers CORS preflight requests for the debrid proxy/cache routes.
func (h *DebridHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Range, Content-Type")
	w.WriteHeader(http.StatusNoContent)
}
