package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"novastream/models"
	playbacksvc "novastream/services/playback"
)

type playbackService interface {
	Resolve(ctx context.Context, candidate models.NZBResult) (*models.PlaybackResolution, error)
	QueueStatus(ctx context.Context, queueID int64) (*models.PlaybackResolution, error)
}

// PlaybackHandler resolves NZB candidates into playable streams via the local registry.
type PlaybackHandler struct {
	Service playbackService
}

var _ playbackService = (*playbacksvc.Service)(nil)

func NewPlaybackHandler(s playbackService) *PlaybackHandler {
	return &PlaybackHandler{Service: s}
}

// Resolve accepts an NZB indexer result and responds with a validated playback source.
func (h *PlaybackHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Result      models.NZBResult `json:"result"`
		StartOffset float64          `json:"startOffset,omitempty"` // Seek position in seconds for subtitle extraction
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	handlerStart := time.Now()
	log.Printf("[playback-handler] TIMING: Received resolve request: Title=%q, GUID=%q, ServiceType=%q, titleId=%q, titleName=%q, startOffset=%.2f",
		request.Result.Title, request.Result.GUID, request.Result.ServiceType,
		request.Result.Attributes["titleId"], request.Result.Attributes["titleName"], request.StartOffset)

	resolution, err := h.Service.Resolve(r.Context(), request.Result)
	if err != nil {
		log.Printf("[playback-handler] TIMING: resolve failed after %v: %v", time.Since(handlerStart), err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	log.Printf("[playback-handler] TIMING: resolve complete (took: %v)", time.Since(handlerStart))

	log.Printf("[playback-handler] TIMING: handler complete (TOTAL: %v)", time.Since(handlerStart))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resolution)
}

// QueueStatus reports the current resolution status for a previously queued playback request.
func (h *PlaybackHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	queueIDStr := r.PathValue("queueID")
	queueID, err := strconv.ParseInt(queueIDStr, 10, 64)
	if err != nil || queueID <= 0 {
		http.Error(w, "invalid queue id", http.StatusBadRequest)
		return
	}

	status, err := h.Service.QueueStatus(r.Context(), queueID)
	if err != nil {
		switch {
		case errors.Is(err, playbacksvc.ErrQueueItemNotFound):
			http.Error(w, "queue item not found", http.StatusNotFound)
		case errors.Is(err, playbacksvc.ErrQueueItemFailed):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
