package filter

import (
	"testing"

	"novastream/models"
)

func TestIsJunkTitle(t *testing.T) {
	cases := []struct {
		title string
		junk  bool
	}{
		{"Foo.2019.HDCAM.x264", true},
		{"Foo.2019.1080p.WEB", false},
		{"Foo.2019.TELESYNC.x264", true},
		{"Foo.2019.WEBRip.x264", false}, // "TS"/"CAM" must not match as substrings
		{"", false},
	}
	for _, c := range cases {
		if got := IsJunkTitle(c.title); got != c.junk {
			t.Errorf("IsJunkTitle(%q) = %v, want %v", c.title, got, c.junk)
		}
	}
}

func TestFilterJunkDropsOnlyJunk(t *testing.T) {
	results := []models.NZBResult{
		{Title: "Foo.2019.HDCAM.x264"},
		{Title: "Foo.2019.1080p.WEB"},
	}
	out := FilterJunk(results)
	if len(out) != 1 || out[0].Title != "Foo.2019.1080p.WEB" {
		t.Fatalf("expected only the non-junk title to survive, got %+v", out)
	}
}
