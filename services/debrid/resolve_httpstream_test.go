package debrid

import "testing"

func TestNormalizeDirectURLRewritesPixeldrain(t *testing.T) {
	got := normalizeDirectURL("https://pixeldrain.com/u/abc123")
	want := "https://pixeldrain.com/api/file/abc123"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizeDirectURLLeavesOtherHostsAlone(t *testing.T) {
	u := "https://cdn.example.com/video.mp4"
	if got := normalizeDirectURL(u); got != u {
		t.Fatalf("expected unrelated url unchanged, got %q", got)
	}
}

func TestPostProcessCDNExtractsURLParam(t *testing.T) {
	r := &HTTPStreamResolver{}
	got := r.postProcessCDN("https://video-leech.pro/dl?url=https%3A%2F%2Fcdn.example.com%2Fa.mp4")
	if got != "https://cdn.example.com/a.mp4" {
		t.Fatalf("unexpected extracted url: %q", got)
	}
}

func TestPostProcessCDNPassesThroughUnknownHost(t *testing.T) {
	r := &HTTPStreamResolver{}
	u := "https://cdn.example.com/a.mp4"
	if got := r.postProcessCDN(u); got != u {
		t.Fatalf("expected passthrough for non-intermediate host, got %q", got)
	}
}

func TestHostSkipsValidation(t *testing.T) {
	r := NewHTTPStreamResolver(false, false, []string{"skip-me.example.com"})
	if !r.hostSkipsValidation("https://skip-me.example.com/video.mp4") {
		t.Fatalf("expected configured host to skip validation")
	}
	if r.hostSkipsValidation("https://other.example.com/video.mp4") {
		t.Fatalf("did not expect unrelated host to skip validation")
	}
}

func TestResolveRelativeAbsolutePassthrough(t *testing.T) {
	got := resolveRelative("https://example.com/a/b", "https://other.com/c")
	if got != "https://other.com/c" {
		t.Fatalf("expected absolute href untouched, got %q", got)
	}
}

func TestResolveRelativeRootPath(t *testing.T) {
	got := resolveRelative("https://example.com/a/b", "/c/d")
	if got != "https://example.com/c/d" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveRelativeSiblingPath(t *testing.T) {
	got := resolveRelative("https://example.com/a/b", "c")
	if got != "https://example.com/a/b/c" {
		t.Fatalf("got %q", got)
	}
}
