package words

import "strings"

// Rule is a keyword filter: Look is an allow-list (at least one keyword
// must appear), Block a deny-list (any match rejects). Either list may
// be nil, which imposes no constraint. Block takes precedence over Look.
type Rule struct {
	Look  []string
	Block []string
}

// Tokenize splits text into lower-cased whitespace-delimited words.
// Line breaks count as whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Allows reports whether text passes the rule. Matching is whole-word
// and case-insensitive against whitespace-split tokens.
func (r *Rule) Allows(text string) bool {
	if r == nil || (len(r.Look) == 0 && len(r.Block) == 0) {
		return true
	}
	tokens := Tokenize(text)
	if len(r.Block) > 0 && matchesAny(tokens, r.Block) {
		return false
	}
	if len(r.Look) > 0 && !matchesAny(tokens, r.Look) {
		return false
	}
	return true
}

func matchesAny(tokens, keywords []string) bool {
	for _, kw := range keywords {
		lk := strings.ToLower(kw)
		for _, tok := range tokens {
			if tok == lk {
				return true
			}
		}
	}
	return false
}
