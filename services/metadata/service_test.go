package metadata

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"novastream/internal/cache"
)

func TestGetMetaMovieResolvesViaTMDB(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}

	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			calls[req.URL.Path]++
			switch req.URL.Path {
			case "/3/find/tt0133093":
				body := bytes.NewBufferString(`{"movie_results":[{"id":603}],"tv_results":[]}`)
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(body), Header: make(http.Header)}, nil
			case "/3/movie/603":
				body := bytes.NewBufferString(`{"title":"The Matrix","overview":"A hacker","release_date":"1999-03-31","poster_path":"/poster.jpg"}`)
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(body), Header: make(http.Header)}, nil
			default:
				t.Fatalf("unexpected request: %s", req.URL.String())
				return nil, nil
			}
		}),
	}

	svc := &Service{
		tmdb:  newTMDBClient("key", "en-US", httpc),
		tvdb:  newTVDBClient("", "en", nil),
		cache: cache.New(nil),
	}

	title, err := svc.GetMeta(context.Background(), "movie", "tt0133093")
	if err != nil {
		t.Fatalf("GetMeta returned error: %v", err)
	}
	if title.Name != "The Matrix" || title.Year != 1999 {
		t.Fatalf("unexpected title: %+v", title)
	}
	if title.Poster == nil || title.Poster.URL == "" {
		t.Fatalf("expected poster url")
	}

	// Second call should be served from the meta cache, not TMDB again.
	if _, err := svc.GetMeta(context.Background(), "movie", "tt0133093"); err != nil {
		t.Fatalf("cached GetMeta returned error: %v", err)
	}
	if calls["/3/find/tt0133093"] != 1 {
		t.Fatalf("expected tmdb find to be called once, got %d", calls["/3/find/tt0133093"])
	}
}

func TestGetMetaSeriesResolvesViaTVDB(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path == "/v4/login" {
				body := bytes.NewBufferString(`{"data":{"token":"abc"}}`)
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(body), Header: make(http.Header)}, nil
			}
			if req.URL.Path == "/v4/search" {
				body := bytes.NewBufferString(`{"data":[{"name":"Breaking Bad","overview":"A teacher","year":"2008","tvdb_id":"81189"}]}`)
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(body), Header: make(http.Header)}, nil
			}
			t.Fatalf("unexpected request: %s", req.URL.String())
			return nil, nil
		}),
	}

	tvdb := newTVDBClient("key", "en", httpc)
	tvdb.minInterval = 0

	svc := &Service{
		tmdb:  newTMDBClient("", "en-US", nil),
		tvdb:  tvdb,
		cache: cache.New(nil),
	}

	title, err := svc.GetMeta(context.Background(), "series", "tt0903747")
	if err != nil {
		t.Fatalf("GetMeta returned error: %v", err)
	}
	if title.Name != "Breaking Bad" || title.TVDBID != 81189 {
		t.Fatalf("unexpected title: %+v", title)
	}
}

func TestGetMetaRequiresIMDBID(t *testing.T) {
	svc := &Service{tmdb: newTMDBClient("", "en", nil), tvdb: newTVDBClient("", "en", nil), cache: cache.New(nil)}
	if _, err := svc.GetMeta(context.Background(), "movie", ""); err == nil {
		t.Fatalf("expected error for empty imdb id")
	}
}
