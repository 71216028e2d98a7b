package models

import "time"

// ContentServiceType identifies which backend a result must be resolved
// through before it can be streamed.
type ContentServiceType string

const (
	ServiceTypeUsenet     ContentServiceType = "usenet"
	ServiceTypeDebrid     ContentServiceType = "debrid"
	ServiceTypeHTTPStream ContentServiceType = "httpstream"
)

// NZBResult is the normalized candidate produced by every scraper adapter,
// regardless of whether it came from a torrent tracker, a Torznab indexer,
// a stream-addon, or a Usenet indexer. It is the aggregator's tagged-union
// shape: the Attributes bag carries kind-specific fields (infoHash,
// torrentURL, fileIndex, resolution, seeders, languages, tracker, provider,
// preresolved stream URLs) so that new scraper families don't need a schema
// change here.
type NZBResult struct {
	Title       string             `json:"title"`
	Indexer     string             `json:"indexer"`
	GUID        string             `json:"guid"`
	Link        string             `json:"link"`
	DownloadURL string             `json:"downloadUrl"`
	SizeBytes   int64              `json:"sizeBytes"`
	PublishDate time.Time          `json:"publishDate,omitempty"`
	Categories  []string           `json:"categories,omitempty"`
	Attributes  map[string]string  `json:"attributes,omitempty"`
	ServiceType ContentServiceType `json:"serviceType"`
}

// PreviewStream is the outbound shape for HTTP-stream scraper results: a
// resolver URL the client can click to trigger resolution, carrying an
// opaque token instead of the real upstream URL. BehaviorHints mirrors the
// Stremio addon convention of a free-form hint bag (e.g. notWebReady).
type PreviewStream struct {
	Name            string            `json:"name"`
	Title           string            `json:"title"`
	URL             string            `json:"url"`
	Resolution      string            `json:"resolution,omitempty"`
	Size            string            `json:"size,omitempty"`
	Provider        string            `json:"provider,omitempty"`
	Languages       []string          `json:"languages,omitempty"`
	BehaviorHints   map[string]string `json:"behaviorHints,omitempty"`
	NeedsResolution bool              `json:"needsResolution"`
}

// ResolvedStream is the final, range-request-validated descriptor handed
// back by the Resolver Engine.
type ResolvedStream struct {
	URL       string    `json:"url"`
	Seekable  bool      `json:"seekable"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// ScraperCacheRecord is the per-scraper result cache's stored value: the
// post-filtering, post-dedup candidate list for one
// (scraperName, normalizedQuery, languageSet) key, plus when it was written.
type ScraperCacheRecord struct {
	Results   []NZBResult `json:"results"`
	CreatedAt time.Time   `json:"createdAt"`
}

// HashAvailabilityRecord is the per-(debridService, infoHash) availability
// cache's stored value.
type HashAvailabilityRecord struct {
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlaybackResolution is the result of resolving a candidate to a
// streamable location, whether that is a debrid-backed WebDAV-style path
// or a direct download URL.
type PlaybackResolution struct {
	QueueID       int64  `json:"queueId,omitempty"`
	WebDAVPath    string `json:"webdavPath"`
	HealthStatus  string `json:"healthStatus"`
	FileSize      int64  `json:"fileSize,omitempty"`
	SourceNZBPath string `json:"sourceNzbPath,omitempty"`
}

// SubtitleSessionInfo describes a single pre-extracted subtitle track as
// reported to the frontend: which stream it came from and where its WebVTT
// output can be fetched once extraction finishes.
type SubtitleSessionInfo struct {
	SessionID string `json:"sessionId"`
	Index     int    `json:"index"`
	Language  string `json:"language,omitempty"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Ready     bool   `json:"ready"`
	Error     string `json:"error,omitempty"`
}

// NZBHealthCheck reports whether enough of an NZB's segments are present on
// the configured Usenet backend to expect a clean download.
type NZBHealthCheck struct {
	Status          string   `json:"status"`
	Healthy         bool     `json:"healthy"`
	CheckedSegments int      `json:"checkedSegments"`
	TotalSegments   int      `json:"totalSegments"`
	MissingSegments []string `json:"missingSegments,omitempty"`
	Sampled         bool     `json:"sampled,omitempty"`
	FileName        string   `json:"fileName,omitempty"`
}
