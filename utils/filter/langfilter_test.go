package filter

import (
	"testing"

	"novastream/models"
)

func titles(results []models.NZBResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Title
	}
	return out
}

func TestLanguageFilterNoneSelectedPassesAll(t *testing.T) {
	results := []models.NZBResult{{Title: "Foo.FRENCH.1080p"}, {Title: "Foo.1080p"}}
	out := LanguageFilter(results, nil)
	if len(out) != 2 {
		t.Fatalf("expected no filtering with empty selection, got %v", titles(out))
	}
}

func TestLanguageFilterEnglishOnly(t *testing.T) {
	results := []models.NZBResult{
		{Title: "Foo.FRENCH.1080p"},
		{Title: "Foo.1080p"},
		{Title: "Foo.MULTI.VOSTFR"},
	}
	out := LanguageFilter(results, []string{"en"})
	got := titles(out)
	if len(got) != 1 || got[0] != "Foo.1080p" {
		t.Fatalf("expected only {Foo.1080p}, got %v", got)
	}
}

func TestLanguageFilterNonEnglishSelection(t *testing.T) {
	results := []models.NZBResult{
		{Title: "Foo.FRENCH.1080p"},
		{Title: "Foo.1080p"},
		{Title: "Foo.GERMAN.1080p"},
	}
	out := LanguageFilter(results, []string{"fr"})
	got := titles(out)
	if len(got) != 1 || got[0] != "Foo.FRENCH.1080p" {
		t.Fatalf("expected only the French release, got %v", got)
	}
}

func TestLanguageFilterMonotonicity(t *testing.T) {
	// codes1 subset of codes2, both include en: langFilter(L,codes1) subset langFilter(L,codes2)
	results := []models.NZBResult{
		{Title: "Foo.1080p"},
		{Title: "Foo.FRENCH.1080p"},
		{Title: "Foo.GERMAN.1080p"},
	}
	codes1 := []string{"en"}
	codes2 := []string{"en", "fr"}

	out1 := LanguageFilter(results, codes1)
	out2 := LanguageFilter(results, codes2)

	for _, r := range out1 {
		found := false
		for _, r2 := range out2 {
			if r2.Title == r.Title {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("monotonicity violated: %q in codes1 result but not codes2 result", r.Title)
		}
	}
}
