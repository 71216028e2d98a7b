package language

import "strings"

// titleTokens maps a language code to the whole-word tokens that, when
// present in a release title, mark it as carrying that language — per
// spec §4.2's title-based language detection (distinct from
// HasPreferredLanguage, which matches an indexer's own structured
// language attribute rather than scanning the free-text title).
var titleTokens = map[string][]string{
	"en": {"english", "eng"},
	"ru": {"russian", "rus"},
	"fr": {"french", "fre", "vf", "vff", "vfq", "vostfr"},
	"es": {"spanish", "esp", "latino", "castellano"},
	"de": {"german", "ger", "deutsch"},
	"it": {"italian", "ita"},
	"pt": {"portuguese", "por", "pt-br", "dublado"},
	"pl": {"polish", "pol", "lektor", "pldub"},
}

// titleDelimiters are the punctuation characters spec §4.2 says to fold to
// whitespace before tokenizing a release title.
const titleDelimiters = "[](). _-"

// tokenizeTitle lowercases title and splits it on the delimiter set, so
// "Foo.2019.MULTI.VOSTFR" tokenizes to ["foo" "2019" "multi" "vostfr"].
func tokenizeTitle(title string) []string {
	lowered := strings.ToLower(title)
	folded := strings.Map(func(r rune) rune {
		if strings.ContainsRune(titleDelimiters, r) {
			return ' '
		}
		return r
	}, lowered)
	return strings.Fields(folded)
}

// Detect returns the set of language codes whose tokens appear in title,
// per spec §4.2. Order is insertion order over titleTokens' declared codes
// for determinism, not significance.
func Detect(title string) []string {
	if title == "" {
		return nil
	}
	tokens := make(map[string]struct{}, 8)
	for _, tok := range tokenizeTitle(title) {
		tokens[tok] = struct{}{}
	}

	var codes []string
	for _, code := range []string{"en", "ru", "fr", "es", "de", "it", "pt", "pl"} {
		for _, want := range titleTokens[code] {
			if _, ok := tokens[want]; ok {
				codes = append(codes, code)
				break
			}
		}
	}
	return codes
}
