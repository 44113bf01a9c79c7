package brands

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Occurrence is a whole-word match of a brand name inside a text
type Occurrence struct {
	Brand string
	Start int
	End   int
}

// FindOccurrences returns the whole-word, case-insensitive occurrences of every brand
// in text, sorted by position. Longer names claim their span first so a brand is
// never matched inside another brand's name. Names of three characters or fewer
// only match when capitalised in text.
func FindOccurrences(text string, names []string) []Occurrence {
	ordered := uniqueByLength(names)
	claimed := make([]bool, len(text))
	var found []Occurrence

	for _, name := range ordered {
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(strings.TrimSpace(name)))
		if err != nil {
			continue
		}
		short := utf8.RuneCountInString(strings.TrimSpace(name)) <= 3
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if !IsWordBoundary(text, start, end) {
				continue
			}
			if short && !startsUpper(text[start:end]) {
				continue
			}
			if overlaps(claimed, start, end) {
				continue
			}
			for i := start; i < end; i++ {
				claimed[i] = true
			}
			found = append(found, Occurrence{Brand: name, Start: start, End: end})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return len(found[i].Brand) > len(found[j].Brand)
	})
	return found
}

// IsWordBoundary reports whether text[start:end] is not glued to letters or digits
func IsWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

// RankBrands orders the brands of one result by where they first appear in the
// response text. Brands absent from the text follow in their given order.
// The returned map is keyed by Key(brand) and holds 1-based ranks.
func RankBrands(text string, names []string) map[string]int {
	ranks := make(map[string]int, len(names))
	if len(names) == 0 {
		return ranks
	}

	rank := 1
	for _, occ := range FindOccurrences(text, names) {
		k := Key(occ.Brand)
		if _, ok := ranks[k]; ok {
			continue
		}
		ranks[k] = rank
		rank++
	}
	for _, name := range names {
		k := Key(name)
		if _, ok := ranks[k]; ok {
			continue
		}
		ranks[k] = rank
		rank++
	}
	return ranks
}

func uniqueByLength(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		k := Key(n)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(strings.TrimSpace(out[i])) > len(strings.TrimSpace(out[j]))
	})
	return out
}

func overlaps(claimed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
