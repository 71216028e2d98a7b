package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"novastream/models"
	usenetsvc "novastream/services/usenet"
)

type usenetHealthChecker interface {
	CheckHealth(ctx context.Context, candidate models.NZBResult) (*models.NZBHealthCheck, error)
}

var _ usenetHealthChecker = (*usenetsvc.Service)(nil)

// UsenetHandler exposes Usenet NZB health checking over HTTP, independent of
// the playback-resolution flow in PlaybackHandler.
type UsenetHandler struct {
	Service usenetHealthChecker
}

func NewUsenetHandler(s usenetHealthChecker) *UsenetHandler {
	return &UsenetHandler{Service: s}
}

// CheckHealth samples article availability for an NZB candidate across the
// configured Usenet providers without queuing a download.
func (h *UsenetHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Result models.NZBResult `json:"result"`
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	check, err := h.Service.CheckHealth(r.Context(), request.Result)
	if err != nil {
		log.Printf("[usenet-handler] health check failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(check)
}
