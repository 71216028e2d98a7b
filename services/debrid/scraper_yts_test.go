package debrid

import (
	"context"
	"strings"
	"testing"
)

func TestBuildYTSMagnetIncludesAnnounceTrackers(t *testing.T) {
	magnet := buildYTSMagnet("ABCDEF0123456789ABCDEF0123456789ABCDEF01", "Example Movie")
	if !strings.HasPrefix(magnet, "magnet:?xt=urn:btih:ABCDEF0123456789ABCDEF0123456789ABCDEF01") {
		t.Fatalf("expected magnet to start with uppercased hash, got %q", magnet)
	}
	if !strings.Contains(magnet, "dn=Example+Movie") {
		t.Fatalf("expected display name query param, got %q", magnet)
	}
	for _, tracker := range ytsAnnounceTrackers {
		if !strings.Contains(magnet, "tr=") {
			t.Fatalf("expected at least one tracker param in %q", magnet)
		}
		_ = tracker
	}
}

func TestBuildYTSMagnetEmptyHash(t *testing.T) {
	if got := buildYTSMagnet("", "title"); got != "" {
		t.Fatalf("expected empty magnet for empty hash, got %q", got)
	}
}

func TestYTSScraperNameFallsBackWhenUnset(t *testing.T) {
	s := NewYTSScraper("", "", nil)
	if s.Name() != "yts" {
		t.Fatalf("expected default name 'yts', got %q", s.Name())
	}
}

func TestYTSScraperNameUsesConfigured(t *testing.T) {
	s := NewYTSScraper("My YTS Mirror", "https://example.com", nil)
	if s.Name() != "My YTS Mirror" {
		t.Fatalf("expected configured name, got %q", s.Name())
	}
}

func TestYTSScraperSkipsSeriesRequests(t *testing.T) {
	s := NewYTSScraper("yts", "", nil)
	results, err := s.Search(context.Background(), SearchRequest{
		IMDBID: "tt1234567",
		Parsed: ParsedQuery{MediaType: MediaTypeSeries},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results for series request, got %v", results)
	}
}
