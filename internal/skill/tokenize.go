package skill

import (
	"strings"
	"unicode"
)

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// tokenize splits text into matchable tokens. Latin words split on
// whitespace after punctuation is stripped; each run of CJK characters
// contributes its unigrams and bigrams so substring intent still
// matches without word boundaries.
func tokenize(text string) []string {
	var cleaned strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || isCJK(r):
			cleaned.WriteRune(r)
		default:
			cleaned.WriteRune(' ')
		}
	}

	var tokens []string
	for _, word := range strings.Fields(cleaned.String()) {
		runes := []rune(word)
		cjkOnly := true
		for _, r := range runes {
			if !isCJK(r) {
				cjkOnly = false
				break
			}
		}
		if !cjkOnly {
			tokens = append(tokens, word)
			continue
		}
		for i := range runes {
			tokens = append(tokens, string(runes[i]))
			if i < len(runes)-1 {
				tokens = append(tokens, string(runes[i:i+2]))
			}
		}
	}
	return tokens
}

func tokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range texts {
		for _, tok := range tokenize(t) {
			set[tok] = struct{}{}
		}
	}
	return set
}
