package fetch

import (
	"errors"
	"testing"
)

func TestProxyMatrixResolveWildcard(t *testing.T) {
	m := ProxyMatrix{ProxyURL: "socks5://proxy:1080", Services: map[string]bool{"*": true}}
	p := m.Resolve(PurposeScrapers)
	if p.Mode != "socks5" {
		t.Fatalf("expected socks5 mode under wildcard enable, got %q", p.Mode)
	}
}

func TestProxyMatrixResolvePerPurposeOverride(t *testing.T) {
	m := ProxyMatrix{
		ProxyURL: "socks5://proxy:1080",
		Services: map[string]bool{"*": true, string(PurposeHTTPStreams): false},
	}
	if p := m.Resolve(PurposeHTTPStreams); p.Mode != "" {
		t.Fatalf("expected per-purpose override to disable proxy, got mode %q", p.Mode)
	}
	if p := m.Resolve(PurposeScrapers); p.Mode == "" {
		t.Fatalf("expected wildcard to still enable proxy for scrapers")
	}
}

func TestProxyMatrixResolveLegacyVsSocks5(t *testing.T) {
	legacy := ProxyMatrix{ProxyURL: "https://wrap.example/fetch", Services: map[string]bool{"*": true}}
	if p := legacy.Resolve(PurposeScrapers); p.Mode != "legacy" {
		t.Fatalf("expected legacy mode for non-socks5 URL, got %q", p.Mode)
	}
}

func TestWrapLegacyURLAppendsQuery(t *testing.T) {
	got := WrapLegacyURL("https://wrap.example/fetch", "https://target.example/a?b=c")
	want := "https://wrap.example/fetch?url=https%3A%2F%2Ftarget.example%2Fa%3Fb%3Dc"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWrapLegacyURLPreservesExistingQuery(t *testing.T) {
	got := WrapLegacyURL("https://wrap.example/fetch?mode=x", "https://target.example/a")
	if got[len("https://wrap.example/fetch?mode=x"):len("https://wrap.example/fetch?mode=x")+1] != "&" {
		t.Fatalf("expected '&' separator when proxy URL already has a query, got %q", got)
	}
}

func TestIsTransientClassifiesConnectionErrors(t *testing.T) {
	c := &Client{retryPolicy: RetryPolicy{IdempotentOn5xx: true}}
	if !c.isTransient(nil, errors.New("read: connection reset by peer")) {
		t.Fatalf("expected connection reset to be classified transient")
	}
	if !c.isTransient(nil, errors.New("dial tcp: lookup foo: no such host")) {
		t.Fatalf("expected DNS failure to be classified transient")
	}
	if c.isTransient(nil, errors.New("bad request")) {
		t.Fatalf("did not expect an unrelated error to be classified transient")
	}
}
