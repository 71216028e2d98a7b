package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"novastream/models"
)

type fakeMetadataService struct {
	resp *models.Title
	err  error

	lastMediaType string
	lastIMDBID    string
}

func (f *fakeMetadataService) GetMeta(_ context.Context, mediaType, imdbID string) (*models.Title, error) {
	f.lastMediaType = mediaType
	f.lastIMDBID = imdbID
	return f.resp, f.err
}

func TestMetadataHandlerGetMeta(t *testing.T) {
	fake := &fakeMetadataService{resp: &models.Title{Name: "The Matrix", Year: 1999}}
	h := NewMetadataHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/metadata?type=movie&imdbId=tt0133093", nil)
	rec := httptest.NewRecorder()

	h.GetMeta(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if fake.lastMediaType != "movie" || fake.lastIMDBID != "tt0133093" {
		t.Fatalf("unexpected args passed to service: %q %q", fake.lastMediaType, fake.lastIMDBID)
	}

	var got models.Title
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Name != "The Matrix" || got.Year != 1999 {
		t.Fatalf("unexpected title: %+v", got)
	}
}

func TestMetadataHandlerGetMetaError(t *testing.T) {
	fake := &fakeMetadataService{err: errors.New("tmdb not configured")}
	h := NewMetadataHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/metadata?type=movie&imdbId=tt0133093", nil)
	rec := httptest.NewRecorder()

	h.GetMeta(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
