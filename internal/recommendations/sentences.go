package recommendations

import (
	"strings"
	"unicode"
)

var abbreviations = map[string]bool{
	"e.g": true, "i.e": true, "vs": true, "etc": true, "approx": true,
	"mr": true, "mrs": true, "dr": true, "inc": true, "ltd": true, "co": true,
}

// SplitSentences breaks prose into sentences. A terminator only ends a sentence
// when followed by whitespace and a capital, digit, quote or markup, so decimals
// such as "58.3%" and common abbreviations stay intact.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		// swallow runs like "?!" or "..."
		end := i + 1
		for end < len(text) && strings.IndexByte(".!?\"')", text[end]) >= 0 {
			end++
		}
		if end < len(text) && !unicode.IsSpace(rune(text[end])) {
			continue
		}
		if ch == '.' && isAbbreviation(text[start:i]) {
			continue
		}
		next := end
		for next < len(text) && unicode.IsSpace(rune(text[next])) {
			next++
		}
		if next < len(text) && !opensSentence(text[next]) {
			continue
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = next
		i = next - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isAbbreviation(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	word := strings.ToLower(strings.TrimLeft(fields[len(fields)-1], "(\"'"))
	return abbreviations[word]
}

func opensSentence(b byte) bool {
	r := rune(b)
	return unicode.IsUpper(r) || unicode.IsDigit(r) || b == '"' || b == '\'' || b == '*' || b == '(' || b == '[' || b >= 0x80
}
