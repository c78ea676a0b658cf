package matcher

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Words that show up in almost every bank description and never identify a tenant.
var stopwords = map[string]bool{
	"ach": true, "apt": true, "bank": true, "credit": true, "deposit": true,
	"from": true, "for": true, "inc": true, "llc": true, "memo": true,
	"online": true, "payment": true, "pmt": true, "ref": true, "rent": true,
	"the": true, "transfer": true, "unit": true, "venmo": true, "xfer": true,
	"zelle": true, "and": true, "mobile": true, "check": true,
}

// tokenize lowercases s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// containsSeq reports whether seq appears as consecutive tokens in tokens.
func containsSeq(tokens, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j := range seq {
			if tokens[i+j] != seq[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// nameScore scores how well name identifies the author of a description.
//
//	full name                   1.0
//	initial + surname           0.9   ("S JOHNSON", "SJOHNSON")
//	given name + surname initial 0.85 ("SARAH J")
//	single name token           0.7
//	otherwise                   best Levenshtein token similarity * 0.8
func nameScore(name string, desc []string) float64 {
	parts := tokenize(name)
	if len(parts) == 0 || len(desc) == 0 {
		return 0
	}

	if containsSeq(desc, parts) {
		return 1.0
	}

	if len(parts) >= 2 {
		given, surname := parts[0], parts[len(parts)-1]
		initial := firstRune(given)
		if containsSeq(desc, []string{initial, surname}) || containsSeq(desc, []string{initial + surname}) {
			return 0.9
		}
		if containsSeq(desc, []string{given, firstRune(surname)}) {
			return 0.85
		}
	}

	for _, p := range parts {
		if len(p) >= 3 && !stopwords[p] && containsSeq(desc, []string{p}) {
			return 0.7
		}
	}

	best := 0.0
	for _, p := range parts {
		if len(p) < 3 {
			continue
		}
		for _, d := range desc {
			if len(d) < 3 || stopwords[d] || !hasLetter(d) {
				continue
			}
			if sim := tokenSimilarity(p, d); sim > best {
				best = sim
			}
		}
	}
	return best * 0.8
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// tokenSimilarity is 1 - edit distance / combined length. With the default
// options a substitution costs 2, so the distance never exceeds the
// combined length and the result stays in [0,1].
func tokenSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return 1 - float64(dist)/float64(total)
}

// prefixMatch reports whether two tokens share a prefix covering the shorter one.
func prefixMatch(a, b string) bool {
	if min(len(a), len(b)) < 3 {
		return a == b
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

// overlap is the share of group tokens that prefix-match some description token.
func overlap(group, desc []string) float64 {
	if len(group) == 0 {
		return 0
	}
	hits := 0
	for _, g := range group {
		for _, d := range desc {
			if prefixMatch(g, d) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(group))
}

// identityGroups returns the token groups the fallback compares against:
// the name, the email local part and the property description.
func identityGroups(t Tenant) [][]string {
	var groups [][]string
	if name := tokenize(t.Name); len(name) > 0 {
		groups = append(groups, name)
	}
	if local, _, ok := strings.Cut(t.Email, "@"); ok && local != "" {
		groups = append(groups, tokenize(local))
	}
	var prop []string
	for _, tok := range tokenize(t.Property) {
		if !stopwords[tok] && len(tok) >= 2 {
			prop = append(prop, tok)
		}
	}
	if len(prop) > 0 {
		groups = append(groups, prop)
	}
	return groups
}
