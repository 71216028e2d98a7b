package metadata

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestTVDBClientSetsAcceptLanguageHeader(t *testing.T) {
	var (
		mu        sync.Mutex
		captured  string
		loginDone bool
	)

	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			if req.URL.Path == "/v4/login" {
				loginDone = true
				body := bytes.NewBufferString(`{"data":{"token":"abc"}}`)
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(body), Header: make(http.Header)}, nil
			}
			captured = req.Header.Get("Accept-Language")
			if req.Header.Get("Authorization") == "" {
				t.Fatalf("expected bearer token on authorized request")
			}
			body := bytes.NewBufferString(`{"ok":true}`)
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(body), Header: make(http.Header)}, nil
		}),
	}

	client := newTVDBClient("apikey", "en", httpc)
	client.minInterval = 0

	var dest map[string]any
	if err := client.doGET("https://api4.thetvdb.com/v4/test", nil, &dest); err != nil {
		t.Fatalf("doGET failed: %v", err)
	}
	if !loginDone {
		t.Fatalf("expected login request to occur")
	}
	if captured != "en" {
		t.Fatalf("expected Accept-Language header 'en', got %q", captured)
	}
}

func TestTVDBClientSeriesByIMDBID(t *testing.T) {
	var mu sync.Mutex
	var capturedQuery string

	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			if req.URL.Path == "/v4/login" {
				body := bytes.NewBufferString(`{"data":{"token":"abc"}}`)
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(body), Header: make(http.Header)}, nil
			}
			if req.URL.Path == "/v4/search" {
				capturedQuery = req.URL.RawQuery
				body := bytes.NewBufferString(`{"data":[{"name":"Test Series","overview":"A show","year":"2019","tvdb_id":"12345","image_url":"posters/123.jpg"}]}`)
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(body), Header: make(http.Header)}, nil
			}
			t.Fatalf("unexpected request: %s", req.URL.String())
			return nil, nil
		}),
	}

	client := newTVDBClient("apikey", "en", httpc)
	client.minInterval = 0

	title, err := client.seriesByIMDBID("tt1234567")
	if err != nil {
		t.Fatalf("seriesByIMDBID returned error: %v", err)
	}
	if title.Name != "Test Series" || title.Year != 2019 || title.TVDBID != 12345 {
		t.Fatalf("unexpected title: %+v", title)
	}
	if title.Poster == nil || title.Poster.URL != "https://artworks.thetvdb.com/posters/123.jpg" {
		t.Fatalf("unexpected poster: %+v", title.Poster)
	}
	if capturedQuery == "" {
		t.Fatalf("expected search query params to be sent")
	}
}

func TestTVDBClientSeriesByIMDBIDNotConfigured(t *testing.T) {
	client := newTVDBClient("", "en", nil)
	if _, err := client.seriesByIMDBID("tt1234567"); err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
}
