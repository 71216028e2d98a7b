package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"novastream/config"
	"novastream/internal/token"
)

// streamResolver runs one provider's resolution chain given its token
// payload and returns the final playable URL.
type streamResolver interface {
	Resolve(ctx context.Context, sidURL string) (string, error)
}

// ResolveHandler implements spec §6's Resolve(provider, token) -> url
// endpoint: it decodes the opaque token minted by a preview-mode scraper and
// dispatches to the matching provider chain. Usenet previews resolve through
// the existing /playback/resolve + /playback/queue/{queueID} path instead of
// a token, since that flow already carries the full candidate and its
// season/episode hints; this endpoint only serves providers whose preview
// descriptor is token-only (currently: the HTTP-stream hosters).
type ResolveHandler struct {
	cfg           *config.Manager
	httpStream    streamResolver
	tokenMaxBytes int
}

func NewResolveHandler(cfg *config.Manager, httpStream streamResolver) *ResolveHandler {
	maxBytes := token.DefaultMaxBytes
	if cfg != nil {
		if settings, err := cfg.Load(); err == nil && settings.Resolver.TokenMaxBytes > 0 {
			maxBytes = settings.Resolver.TokenMaxBytes
		}
	}
	return &ResolveHandler{cfg: cfg, httpStream: httpStream, tokenMaxBytes: maxBytes}
}

type httpStreamPayload struct {
	SIDURL string `json:"sidUrl"`
}

// Resolve handles GET /resolve/{provider}/{token}. The provider path segment
// is informational/defensive only; the token's own embedded provider field
// is authoritative for dispatch.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	encoded := r.PathValue("token")
	if encoded == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	t, err := token.Decode(encoded, h.tokenMaxBytes)
	if err != nil {
		log.Printf("[resolve] token decode failed: %v", err)
		http.Error(w, "invalid token", http.StatusBadRequest)
		return
	}

	switch t.Provider {
	case "httpstream":
		var payload httpStreamPayload
		if err := json.Unmarshal(t.Payload, &payload); err != nil || payload.SIDURL == "" {
			http.Error(w, "malformed httpstream token payload", http.StatusBadRequest)
			return
		}
		if h.httpStream == nil {
			http.Error(w, "httpstream resolver not configured", http.StatusServiceUnavailable)
			return
		}
		finalURL, err := h.httpStream.Resolve(r.Context(), payload.SIDURL)
		if err != nil {
			log.Printf("[resolve] httpstream chain failed: %v", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeResolvedURL(w, finalURL)

	default:
		http.Error(w, "unknown token provider", http.StatusBadRequest)
	}
}

func writeResolvedURL(w http.ResponseWriter, url string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		URL string `json:"url"`
	}{URL: url})
}
