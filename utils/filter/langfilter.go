package filter

import (
	"novastream/models"
	"novastream/utils/language"
)

// LanguageFilter implements spec §4.2's language-filter rule given the
// user's selected codes:
//   - zero codes selected -> pass everything
//   - exactly {"en"} -> drop any title carrying a non-English token
//   - otherwise -> keep a title if it carries at least one token for any
//     non-English selected code; English-only titles are dropped unless
//     "en" is itself in the selection
func LanguageFilter(results []models.NZBResult, selected []string) []models.NZBResult {
	if len(selected) == 0 {
		return results
	}

	selectedSet := make(map[string]struct{}, len(selected))
	for _, c := range selected {
		selectedSet[c] = struct{}{}
	}
	_, wantsEnglish := selectedSet["en"]
	englishOnlySelection := wantsEnglish && len(selectedSet) == 1

	out := make([]models.NZBResult, 0, len(results))
	for _, r := range results {
		detected := language.Detect(r.Title)

		if englishOnlySelection {
			if hasNonEnglish(detected) {
				continue
			}
			out = append(out, r)
			continue
		}

		if hasAnySelectedNonEnglish(detected, selectedSet) {
			out = append(out, r)
			continue
		}
		if isEnglishOnly(detected) && wantsEnglish {
			out = append(out, r)
		}
	}
	return out
}

func hasNonEnglish(codes []string) bool {
	for _, c := range codes {
		if c != "en" {
			return true
		}
	}
	return false
}

func isEnglishOnly(codes []string) bool {
	if len(codes) == 0 {
		// No detected language token at all: treat as English by default,
		// matching most trackers' implicit convention.
		return true
	}
	for _, c := range codes {
		if c != "en" {
			return false
		}
	}
	return true
}

func hasAnySelectedNonEnglish(detected []string, selected map[string]struct{}) bool {
	for _, c := range detected {
		if c == "en" {
			continue
		}
		if _, ok := selected[c]; ok {
			return true
		}
	}
	return false
}
