package metadata

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"novastream/internal/cache"
	"novastream/models"
)

// MDBListConfig configures the optional MDBList ratings supplement.
type MDBListConfig struct {
	APIKey         string
	Enabled        bool
	EnabledRatings []string
}

// Service is the thin outbound metadata lookup spec §6 names: GetMeta(type,
// imdbId) -> {name, year, ...}. Display metadata is resolved by whichever
// backing catalog is configured for the media type (TMDB for movies, TVDB
// for series), with an optional MDBList ratings supplement layered on top.
// Everything the teacher's metadata package did beyond that single call
// (trending, discovery, credits, collections, trailers, list sync) has no
// counterpart here.
type Service struct {
	mu       sync.RWMutex
	tmdb     *tmdbClient
	tvdb     *tvdbClient
	mdblist  *mdblistClient
	language string
	cache    *cache.Cache
	ttl      time.Duration
}

func NewService(tvdbAPIKey, tmdbAPIKey, language, cacheDir string, ttlHours int, mdblistCfg MDBListConfig) *Service {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &Service{
		tmdb:     newTMDBClient(tmdbAPIKey, language, nil),
		tvdb:     newTVDBClient(tvdbAPIKey, language, nil),
		mdblist:  newMDBListClient(mdblistCfg.APIKey, mdblistCfg.EnabledRatings, mdblistCfg.Enabled, ttlHours),
		language: language,
		cache:    cache.New(nil),
		ttl:      time.Duration(ttlHours) * time.Hour,
	}
}

// UpdateAPIKeys rebuilds the TVDB/TMDB clients in place so a settings save
// takes effect without restarting the process.
func (s *Service) UpdateAPIKeys(tvdbAPIKey, tmdbAPIKey, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = language
	s.tmdb = newTMDBClient(tmdbAPIKey, language, nil)
	s.tvdb = newTVDBClient(tvdbAPIKey, language, nil)
}

// UpdateMDBListSettings rebuilds the MDBList ratings client in place.
func (s *Service) UpdateMDBListSettings(cfg MDBListConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mdblist != nil {
		s.mdblist.UpdateSettings(cfg.APIKey, cfg.EnabledRatings, cfg.Enabled)
		return
	}
	s.mdblist = newMDBListClient(cfg.APIKey, cfg.EnabledRatings, cfg.Enabled, int(s.ttl.Hours()))
}

// ClearCache drops every cached metadata lookup, forcing the next GetMeta
// call for any title back out to TMDB/TVDB/MDBList.
func (s *Service) ClearCache() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = cache.New(nil)
	return nil
}

func (s *Service) clients() (*tmdbClient, *tvdbClient, *mdblistClient) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tmdb, s.tvdb, s.mdblist
}

// GetMeta resolves the single outbound metadata call spec §6 names: a movie
// or series IMDb ID to display name, release year, overview, and poster.
func (s *Service) GetMeta(ctx context.Context, mediaType, imdbID string) (*models.Title, error) {
	imdbID = strings.TrimSpace(strings.ToLower(imdbID))
	if imdbID == "" {
		return nil, fmt.Errorf("imdb id required")
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	key := cache.MetaKey(mediaType, imdbID)
	if cached, hit := s.cache.GetMeta(key); hit {
		if title, ok := cached.(*models.Title); ok {
			return title, nil
		}
	}

	tmdb, tvdb, _ := s.clients()

	var title *models.Title
	var err error
	if mediaType == "series" {
		title, err = s.seriesMeta(ctx, tmdb, tvdb, imdbID)
	} else {
		title, err = s.movieMeta(ctx, tmdb, imdbID)
	}
	if err != nil {
		return nil, err
	}

	s.attachRatings(ctx, title, imdbID, mediaType)
	s.cache.PutMeta(key, title, s.ttl)
	return title, nil
}

func (s *Service) movieMeta(ctx context.Context, tmdb *tmdbClient, imdbID string) (*models.Title, error) {
	if !tmdb.isConfigured() {
		return nil, fmt.Errorf("tmdb not configured")
	}
	tmdbID, err := tmdb.findByIMDBID(ctx, imdbID, "movie")
	if err != nil {
		return nil, fmt.Errorf("resolve tmdb id: %w", err)
	}
	title, err := tmdb.movieDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	title.IMDBID = imdbID
	return title, nil
}

// seriesMeta resolves series metadata from TVDB first (its remote-id search
// is a direct IMDb lookup), falling back to TMDB's /find endpoint when TVDB
// is unconfigured or comes up empty.
func (s *Service) seriesMeta(ctx context.Context, tmdb *tmdbClient, tvdb *tvdbClient, imdbID string) (*models.Title, error) {
	if tvdb.isConfigured() {
		title, err := tvdb.seriesByIMDBID(imdbID)
		if err == nil {
			return title, nil
		}
		log.Printf("[metadata] tvdb lookup failed for %s, falling back to tmdb: %v", imdbID, err)
	}

	if !tmdb.isConfigured() {
		return nil, fmt.Errorf("no metadata provider configured for series")
	}
	tmdbID, err := tmdb.findByIMDBID(ctx, imdbID, "tv")
	if err != nil {
		return nil, fmt.Errorf("resolve tmdb id: %w", err)
	}
	title, err := tmdb.tvDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	title.IMDBID = imdbID
	return title, nil
}

func (s *Service) attachRatings(ctx context.Context, title *models.Title, imdbID, mediaType string) {
	_, _, mdblist := s.clients()
	if mdblist == nil || !mdblist.IsEnabled() {
		return
	}
	listType := "movie"
	if mediaType == "series" {
		listType = "show"
	}
	ratings, err := mdblist.GetRatings(ctx, imdbID, listType)
	if err != nil {
		log.Printf("[metadata] mdblist ratings lookup failed for %s: %v", imdbID, err)
		return
	}
	title.Ratings = ratings
}
