package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"novastream/handlers"
)

// corsMiddleware handles CORS for API routes.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions answers OPTIONS preflight requests for routes that don't
// otherwise care about the method.
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts every API endpoint onto mux under /api, wrapped in CORS and
// PIN-auth middleware.
func Register(
	mux *http.ServeMux,
	settingsHandler *handlers.SettingsHandler,
	metadataHandler *handlers.MetadataHandler,
	aggregateHandler *handlers.AggregateHandler,
	playbackHandler *handlers.PlaybackHandler,
	usenetHandler *handlers.UsenetHandler,
	debridHandler *handlers.DebridHandler,
	resolveHandler *handlers.ResolveHandler,
	getPIN func() string,
) {
	api := http.NewServeMux()
	guard := pinMiddleware(getPIN)

	api.HandleFunc("GET /settings", settingsHandler.GetSettings)
	api.HandleFunc("PUT /settings", settingsHandler.PutSettings)
	api.HandleFunc("OPTIONS /settings", handleOptions)
	api.HandleFunc("POST /settings/cache/clear", settingsHandler.ClearMetadataCache)
	api.HandleFunc("OPTIONS /settings/cache/clear", handleOptions)

	api.HandleFunc("GET /metadata", metadataHandler.GetMeta)
	api.HandleFunc("OPTIONS /metadata", metadataHandler.Options)

	api.HandleFunc("GET /aggregate", aggregateHandler.Aggregate)
	api.HandleFunc("OPTIONS /aggregate", aggregateHandler.Options)

	api.HandleFunc("POST /playback/resolve", playbackHandler.Resolve)
	api.HandleFunc("OPTIONS /playback/resolve", handleOptions)
	api.HandleFunc("GET /playback/queue/{queueID}", playbackHandler.QueueStatus)
	api.HandleFunc("OPTIONS /playback/queue/{queueID}", handleOptions)

	api.HandleFunc("POST /usenet/health", usenetHandler.CheckHealth)
	api.HandleFunc("OPTIONS /usenet/health", handleOptions)

	if resolveHandler != nil {
		api.HandleFunc("GET /resolve/{provider}/{token}", resolveHandler.Resolve)
		api.HandleFunc("OPTIONS /resolve/{provider}/{token}", handleOptions)
	}

	api.HandleFunc("GET /debrid/proxy", debridHandler.Proxy)
	api.HandleFunc("HEAD /debrid/proxy", debridHandler.Proxy)
	api.HandleFunc("OPTIONS /debrid/proxy", debridHandler.Options)
	api.HandleFunc("POST /debrid/cached", debridHandler.CheckCached)
	api.HandleFunc("OPTIONS /debrid/cached", debridHandler.Options)

	api.Handle("/", guard(http.NotFoundHandler()))

	mux.Handle("/api/", corsMiddleware(guard(http.StripPrefix("/api", api))))
}

// pinMiddleware enforces a shared PIN on every API request. Accepts the PIN
// via X-PIN, an Authorization: Bearer/PIN header, or a pin/PIN query param;
// falls back to the legacy API-key header/param names for old clients.
func pinMiddleware(getPIN func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			expectedPIN := strings.TrimSpace(getPIN())
			if expectedPIN == "" {
				next.ServeHTTP(w, r)
				return
			}

			receivedPIN := strings.TrimSpace(r.Header.Get("X-PIN"))
			if receivedPIN == "" {
				authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
				if len(authHeader) > 0 {
					lower := strings.ToLower(authHeader)
					switch {
					case strings.HasPrefix(lower, "bearer "):
						receivedPIN = strings.TrimSpace(authHeader[7:])
					case strings.HasPrefix(lower, "pin "):
						receivedPIN = strings.TrimSpace(authHeader[4:])
					}
				}
			}

			if receivedPIN == "" {
				query := r.URL.Query()
				for _, pinParam := range []string{"pin", "PIN"} {
					candidate := strings.TrimSpace(query.Get(pinParam))
					if candidate != "" {
						receivedPIN = candidate
						break
					}
				}
			}

			// Legacy support: also check for old API key parameters.
			if receivedPIN == "" {
				receivedKey := strings.TrimSpace(r.Header.Get("X-API-Key"))
				if receivedKey == "" {
					authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
					if len(authHeader) > 0 {
						lower := strings.ToLower(authHeader)
						switch {
						case strings.HasPrefix(lower, "bearer "):
							receivedKey = strings.TrimSpace(authHeader[7:])
						case strings.HasPrefix(lower, "apikey "):
							receivedKey = strings.TrimSpace(authHeader[7:])
						}
					}
				}

				if receivedKey == "" {
					query := r.URL.Query()
					for _, keyParam := range []string{"apiKey", "apikey", "api_key", "key"} {
						candidate := strings.TrimSpace(query.Get(keyParam))
						if candidate != "" {
							receivedKey = candidate
							break
						}
					}
				}

				if receivedKey != "" {
					receivedPIN = receivedKey
				}
			}

			if receivedPIN == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "missing PIN"})
				return
			}

			if subtle.ConstantTimeCompare([]byte(receivedPIN), []byte(expectedPIN)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid PIN"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
