package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"novastream/models"
	"novastream/services/debrid"
)

type aggregateSearchService interface {
	Search(ctx context.Context, opts debrid.SearchOptions) ([]models.NZBResult, error)
}

type metaLookup interface {
	GetMeta(ctx context.Context, mediaType, imdbID string) (*models.Title, error)
}

// AggregateHandler exposes the Aggregation Engine's Aggregate(type, id,
// config) -> []Stream operation (spec §6) over HTTP: GET /aggregate?type=
// movie|series&id=<imdbId>[:season:episode].
type AggregateHandler struct {
	Search   aggregateSearchService
	Metadata metaLookup
}

func NewAggregateHandler(search aggregateSearchService, meta metaLookup) *AggregateHandler {
	return &AggregateHandler{Search: search, Metadata: meta}
}

func (h *AggregateHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *AggregateHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	mediaType := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type")))
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	imdbID, season, episode := parseAggregateID(id)

	max := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			max = parsed
		}
	}

	year := 0
	name := imdbID
	if h.Metadata != nil {
		if title, err := h.Metadata.GetMeta(r.Context(), mediaType, imdbID); err == nil && title != nil {
			year = title.Year
			if title.Name != "" {
				name = title.Name
			}
		}
	}

	opts := debrid.SearchOptions{
		Query:      composeAggregateQuery(name, mediaType, year, season, episode),
		MaxResults: max,
		IMDBID:     imdbID,
		MediaType:  mediaType,
		Year:       year,
		UserID:     strings.TrimSpace(r.URL.Query().Get("userId")),
		ClientID:   strings.TrimSpace(r.Header.Get("X-Client-ID")),
	}

	results, err := h.Search.Search(r.Context(), opts)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		status, body := classifyAggregateError(err)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// parseAggregateID splits spec §6's `<imdbId>` or `<imdbId>:<season>:<episode>` id shape.
func parseAggregateID(id string) (imdbID string, season, episode int) {
	parts := strings.Split(id, ":")
	imdbID = strings.TrimSpace(parts[0])
	if len(parts) == 3 {
		season, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
		episode, _ = strconv.Atoi(strings.TrimSpace(parts[2]))
	}
	return imdbID, season, episode
}

func composeAggregateQuery(name, mediaType string, year, season, episode int) string {
	parts := []string{name}
	if mediaType == "series" && season > 0 && episode > 0 {
		parts = append(parts, fmt.Sprintf("S%02dE%02d", season, episode))
	} else if year > 0 {
		parts = append(parts, fmt.Sprintf("%d", year))
	}
	return strings.Join(parts, " ")
}

// classifyAggregateError distinguishes timeouts (504) from other upstream
// failures (502), matching the teacher's error-classification convention.
func classifyAggregateError(err error) (int, map[string]any) {
	errMsg := err.Error()
	isTimeout := false

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		isTimeout = true
	}
	if !isTimeout {
		isTimeout = strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "context deadline exceeded")
	}

	if isTimeout {
		return http.StatusGatewayTimeout, map[string]any{"error": errMsg, "code": "GATEWAY_TIMEOUT"}
	}
	return http.StatusBadGateway, map[string]any{"error": errMsg, "code": "BAD_GATEWAY"}
}
