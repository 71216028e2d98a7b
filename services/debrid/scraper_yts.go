package debrid

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"novastream/internal/fetch"
	"novastream/models"
)

const ytsDefaultBaseURL = "https://yts.mx"

var ytsAnnounceTrackers = []string{
	"udp://open.demonii.com:1337/announce",
	"udp://tracker.openbittorrent.com:80",
	"udp://tracker.coppersurfer.tk:6969",
	"udp://glotorrents.pw:6969/announce",
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://torrent.gresille.org:80/announce",
	"udp://p4p.arenabg.com:1337",
	"udp://tracker.leechers-paradise.org:6969",
}

// YTSScraper queries a YTS-compatible public tracker API
// (GET /api/v2/list_movies.json?query_term=<imdbID>) for movie releases.
// Series are not covered by this provider and Search returns nil for them.
type YTSScraper struct {
	name    string
	baseURL string
	client  *fetch.Client
}

// NewYTSScraper constructs a scraper for a YTS-compatible JSON API.
// client may be nil, in which case a default no-proxy fetch.Client is built.
func NewYTSScraper(name, baseURL string, client *fetch.Client) *YTSScraper {
	if client == nil {
		client, _ = fetch.New(fetch.PurposeScrapers, fetch.ProxyMatrix{}, 15*time.Second, fetch.DefaultRetryPolicy())
	}
	if baseURL == "" {
		baseURL = ytsDefaultBaseURL
	}
	return &YTSScraper{
		name:    strings.TrimSpace(name),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (y *YTSScraper) Name() string {
	if y.name != "" {
		return y.name
	}
	return "yts"
}

func (y *YTSScraper) Search(ctx context.Context, req SearchRequest) ([]ScrapeResult, error) {
	if req.Parsed.MediaType == MediaTypeSeries {
		return nil, nil
	}

	imdbID := strings.TrimSpace(req.IMDBID)
	if imdbID == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/api/v2/list_movies.json?query_term=%s", y.baseURL, url.QueryEscape(imdbID))
	resp, err := y.client.GetWithHeaders(ctx, endpoint, browserHeaders(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s GET %s: %w", y.Name(), endpoint, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", y.Name(), resp.StatusCode())
	}

	buf := resp.Body()

	torrents := gjson.GetBytes(buf, "data.movies.0.torrents").Array()
	if len(torrents) == 0 {
		return nil, nil
	}
	title := gjson.GetBytes(buf, "data.movies.0.title_long").String()
	if title == "" {
		title = gjson.GetBytes(buf, "data.movies.0.title").String()
	}

	var results []ScrapeResult
	for _, torrent := range torrents {
		infoHash := strings.ToLower(torrent.Get("hash").String())
		if infoHash == "" {
			continue
		}
		quality := torrent.Get("quality").String()
		ripType := torrent.Get("type").String()
		releaseTitle := title
		if quality != "" {
			releaseTitle = fmt.Sprintf("%s %s", title, quality)
		}
		if ripType != "" {
			releaseTitle = fmt.Sprintf("%s (%s)", releaseTitle, ripType)
		}

		results = append(results, ScrapeResult{
			Title:      releaseTitle,
			Indexer:    y.Name(),
			Magnet:     buildYTSMagnet(infoHash, title),
			InfoHash:   infoHash,
			SizeBytes:  torrent.Get("size_bytes").Int(),
			Seeders:    int(torrent.Get("seeds").Int()),
			Provider:   y.Name(),
			Resolution: quality,
			MetaName:   title,
			MetaID:     imdbID,
			Source:     y.Name(),
			Attributes: map[string]string{
				"scraper":  "yts",
				"infoHash": infoHash,
				"seeders":  torrent.Get("seeds").Raw,
				"tracker":  y.Name(),
			},
			ServiceType: models.ServiceTypeDebrid,
		})

		if req.MaxResults > 0 && len(results) >= req.MaxResults {
			break
		}
	}

	return results, nil
}

func buildYTSMagnet(infoHash, title string) string {
	if infoHash == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.WriteString("magnet:?xt=urn:btih:")
	builder.WriteString(strings.ToUpper(infoHash))
	builder.WriteString("&dn=")
	builder.WriteString(url.QueryEscape(title))
	for _, tracker := range ytsAnnounceTrackers {
		builder.WriteString("&tr=")
		builder.WriteString(url.QueryEscape(tracker))
	}
	return builder.String()
}
