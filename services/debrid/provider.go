package debrid

import (
	"context"
	"sync"
)

// Provider is the common contract every debrid backend (AllDebrid, Real-Debrid,
// Torbox, ...) implements: add a release, inspect its files, pick which ones to
// fetch, unrestrict a direct link, and tear the job down again. The resolver
// and health-check paths only ever talk to this interface, never to a
// concrete client.
type Provider interface {
	Name() string
	AddMagnet(ctx context.Context, magnetURL string) (*AddMagnetResult, error)
	AddTorrentFile(ctx context.Context, torrentData []byte, filename string) (*AddMagnetResult, error)
	GetTorrentInfo(ctx context.Context, torrentID string) (*TorrentInfo, error)
	SelectFiles(ctx context.Context, torrentID string, fileIDs string) error
	DeleteTorrent(ctx context.Context, torrentID string) error
	UnrestrictLink(ctx context.Context, link string) (*UnrestrictResult, error)
	CheckInstantAvailability(ctx context.Context, infoHash string) (bool, error)
}

// Configurable is implemented by providers that accept backend-specific
// key/value settings beyond a bare API key (e.g. Torbox's autoClearQueue).
type Configurable interface {
	Configure(settings map[string]string)
}

// AddMagnetResult is returned after a magnet or .torrent file is added.
type AddMagnetResult struct {
	ID  string
	URI string
}

// File describes a single file inside an added torrent/magnet.
type File struct {
	ID       int
	Path     string
	Bytes    int64
	Selected int
}

// TorrentInfo is the provider's view of an added torrent's current state.
type TorrentInfo struct {
	ID       string
	Filename string
	Hash     string
	Bytes    int64
	Status   string
	Files    []File
	Links    []string
}

// UnrestrictResult is a direct, playable link produced from a provider's
// restricted/hoster link.
type UnrestrictResult struct {
	ID          string
	Filename    string
	Filesize    int64
	DownloadURL string
}

type providerFactory func(apiKey string) Provider

var (
	providerRegistryMu sync.RWMutex
	providerRegistry   = map[string]providerFactory{}
)

// RegisterProvider makes a provider backend available to GetProvider under
// name. Backends register themselves from an init() func, mirroring the
// teacher's scraper registration style.
func RegisterProvider(name string, factory providerFactory) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[name] = factory
}

// GetProvider builds a Provider instance for the given backend name.
func GetProvider(name, apiKey string) (Provider, bool) {
	providerRegistryMu.RLock()
	factory, ok := providerRegistry[name]
	providerRegistryMu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(apiKey), true
}
