// Package streaming defines the narrow contract video and HLS handlers use
// to pull bytes for a resolved playback path, independent of whether the
// underlying source is a local file or a remote debrid/usenet origin.
package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// ErrNotFound is returned by a Provider that does not recognize the
// requested path, so a composite provider can fall through to the next one.
var ErrNotFound = errors.New("streaming: path not handled by this provider")

// Request describes a single range-aware read against a resolved path.
type Request struct {
	Path        string
	Method      string
	RangeHeader string
}

// Response carries a provider's answer to a Request. Body may be nil for a
// HEAD request; callers must always call Close, even when Body is nil.
type Response struct {
	Status        int
	Headers       http.Header
	Body          io.ReadCloser
	ContentLength int64
	Filename      string
}

// Close releases the response body, if any.
func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Provider serves range-aware reads for whatever paths it recognizes. It
// returns ErrNotFound for paths outside its domain so callers can try
// another provider.
type Provider interface {
	Stream(ctx context.Context, req Request) (*Response, error)
}

// DirectURLProvider is implemented by providers that can hand back a
// directly fetchable URL instead of proxying bytes themselves (used for
// ffprobe seeking without a round trip through our own process).
type DirectURLProvider interface {
	GetDirectURL(ctx context.Context, path string) (string, error)
}

// CompositeProvider tries each wrapped provider in order, falling through to
// the next on ErrNotFound. The core has two origins in practice — files the
// Usenet Download Controller resolved onto local disk, and paths backed by a
// debrid provider's remote unrestrict — and neither needs to know about the
// other.
type CompositeProvider struct {
	providers []Provider
}

// NewCompositeProvider builds a CompositeProvider trying each in the given order.
func NewCompositeProvider(providers ...Provider) *CompositeProvider {
	return &CompositeProvider{providers: providers}
}

func (c *CompositeProvider) Stream(ctx context.Context, req Request) (*Response, error) {
	for _, p := range c.providers {
		if p == nil {
			continue
		}
		resp, err := p.Stream(ctx, req)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

// GetDirectURL tries each wrapped provider that supports DirectURLProvider.
func (c *CompositeProvider) GetDirectURL(ctx context.Context, path string) (string, error) {
	for _, p := range c.providers {
		direct, ok := p.(DirectURLProvider)
		if !ok {
			continue
		}
		url, err := direct.GetDirectURL(ctx, path)
		if err == nil && url != "" {
			return url, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
	}
	return "", ErrNotFound
}
