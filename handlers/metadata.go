package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"novastream/models"
	metadatapkg "novastream/services/metadata"
)

type metadataService interface {
	GetMeta(ctx context.Context, mediaType, imdbID string) (*models.Title, error)
}

var _ metadataService = (*metadatapkg.Service)(nil)

// MetadataHandler exposes the metadata service's single outbound lookup
// (spec §6: GetMeta(type, imdbId) -> {name, year, ...}) over HTTP.
type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(s metadataService) *MetadataHandler {
	return &MetadataHandler{Service: s}
}

// GetMeta handles GET /metadata?type=movie|series&imdbId=tt...
func (h *MetadataHandler) GetMeta(w http.ResponseWriter, r *http.Request) {
	mediaType := strings.TrimSpace(r.URL.Query().Get("type"))
	imdbID := strings.TrimSpace(r.URL.Query().Get("imdbId"))

	title, err := h.Service.GetMeta(r.Context(), mediaType, imdbID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(title)
}

func (h *MetadataHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
