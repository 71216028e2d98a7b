package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"novastream/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w780"
)

// tmdbClient resolves the one GetMeta(movie|series, imdbId) call spec §6
// names down to TMDB's find-by-external-id + details endpoints. Everything
// the teacher's catalog (trending, discover, credits, collections, trailers,
// similar-titles) used this client for has no SPEC_FULL.md component, so
// this is the trimmed subset that survives.
type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs a rate-limited GET with a 3-attempt exponential backoff on
// transient failures and TMDB's own 429/5xx responses.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, v any) error {
	var lastErr error
	backoff := 300 * time.Millisecond

	for attempt := 0; attempt < 3; attempt++ {
		c.throttleMu.Lock()
		since := time.Since(c.lastRequest)
		if since < c.minInterval {
			time.Sleep(c.minInterval - since)
		}
		c.lastRequest = time.Now()
		c.throttleMu.Unlock()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("[tmdb] http error (attempt %d/3): %v", attempt+1, err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("tmdb request failed: %s", resp.Status)
			log.Printf("[tmdb] rate limited or server error (attempt %d/3): status %d", attempt+1, resp.StatusCode)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return fmt.Errorf("tmdb request failed: %s", resp.Status)
		}

		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		return err
	}

	return lastErr
}

// findByIMDBID resolves an IMDb ID to TMDB's internal ID for mediaType
// ("movie" or "tv") via TMDB's /find endpoint.
func (c *tmdbClient) findByIMDBID(ctx context.Context, imdbID, mediaType string) (int64, error) {
	if !c.isConfigured() {
		return 0, errors.New("tmdb api key not configured")
	}
	if !strings.HasPrefix(imdbID, "tt") {
		imdbID = "tt" + imdbID
	}

	endpoint := fmt.Sprintf("%s/find/%s?api_key=%s&external_source=imdb_id", tmdbBaseURL, imdbID, c.apiKey)

	var resp struct {
		MovieResults []struct {
			ID int64 `json:"id"`
		} `json:"movie_results"`
		TVResults []struct {
			ID int64 `json:"id"`
		} `json:"tv_results"`
	}
	if err := c.doGET(ctx, endpoint, &resp); err != nil {
		return 0, err
	}

	if mediaType == "tv" {
		if len(resp.TVResults) == 0 {
			return 0, fmt.Errorf("no tv result for imdb id %s", imdbID)
		}
		return resp.TVResults[0].ID, nil
	}
	if len(resp.MovieResults) == 0 {
		return 0, fmt.Errorf("no movie result for imdb id %s", imdbID)
	}
	return resp.MovieResults[0].ID, nil
}

type tmdbDetailsResponse struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	Runtime      int    `json:"runtime"`
	Status       string `json:"status"`
}

// movieDetails fetches a movie's display metadata by TMDB ID.
func (c *tmdbClient) movieDetails(ctx context.Context, tmdbID int64) (*models.Title, error) {
	endpoint := fmt.Sprintf("%s/movie/%d?api_key=%s&language=%s", tmdbBaseURL, tmdbID, c.apiKey, c.language)
	var resp tmdbDetailsResponse
	if err := c.doGET(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("tmdb movie details: %w", err)
	}
	return tmdbResponseToTitle(resp, tmdbID, "movie"), nil
}

// tvDetails fetches a series' display metadata by TMDB ID.
func (c *tmdbClient) tvDetails(ctx context.Context, tmdbID int64) (*models.Title, error) {
	endpoint := fmt.Sprintf("%s/tv/%d?api_key=%s&language=%s", tmdbBaseURL, tmdbID, c.apiKey, c.language)
	var resp tmdbDetailsResponse
	if err := c.doGET(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("tmdb tv details: %w", err)
	}
	return tmdbResponseToTitle(resp, tmdbID, "series"), nil
}

func tmdbResponseToTitle(resp tmdbDetailsResponse, tmdbID int64, mediaType string) *models.Title {
	name := resp.Title
	date := resp.ReleaseDate
	if mediaType == "series" {
		name = resp.Name
		date = resp.FirstAirDate
	}

	year := 0
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			year = y
		}
	}

	title := &models.Title{
		Name:           name,
		Overview:       resp.Overview,
		Year:           year,
		MediaType:      mediaType,
		TMDBID:         tmdbID,
		Popularity:     resp.Popularity,
		Status:         resp.Status,
		RuntimeMinutes: resp.Runtime,
	}
	if resp.PosterPath != "" {
		title.Poster = &models.Image{URL: tmdbImageBaseURL + "/" + tmdbPosterSize + resp.PosterPath}
	}
	return title
}
