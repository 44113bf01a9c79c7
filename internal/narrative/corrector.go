package narrative

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/azure/brand-visibility-engine/internal/brands"
	"github.com/azure/brand-visibility-engine/internal/models"
)

const number = `(\d+(?:\.\d+)?)`

var (
	sovForwardRe = regexp.MustCompile(`(?i)` + number + `%(\s+share\s+of\s+voice)`)
	sovInverseRe = regexp.MustCompile(`(?i)\b(share\s+of\s+voice\s+(?:of|at|is)\s+)` + number + `%`)

	visibilityForwardRe = regexp.MustCompile(`(?i)` + number + `%(\s+(?:visibility(?:\s+score)?|of\s+(?:all\s+)?(?:the\s+)?AI\s+responses|mention\s+rates?))\b`)
	visibilityInverseRe = regexp.MustCompile(`(?i)\b(visibility(?:\s+score)?\s+(?:of|at)\s+)` + number + `%`)

	inPercentOfRe = regexp.MustCompile(`(?i)\b(in\s+)` + number + `%(\s+of)\b`)

	uniqueBrandsRe  = regexp.MustCompile(`(?i)\b(\d+)(\s+unique\s+brands)\b`)
	brandsVerbRe    = regexp.MustCompile(`(?i)\b(\d+)(\s+(?:distinct\s+|different\s+)?brands\s+(?:were\s+|are\s+|have\s+been\s+)?(?:mentioned|identified|detected|found|tracked|cited|appeared|surfaced))\b`)
	totalBrandsRe   = regexp.MustCompile(`(?i)(total\s+brands:\s*)(\d+)`)
	identifiedTail  = regexp.MustCompile(`(?i)^\s+(?:were|was|have\s+been|had\s+been|are)\s+(?:identified|mentioned|detected|found|tracked|observed|cited)`)
	mentionRateRe   = regexp.MustCompile(`(?i)\bmention rate(s?)\b`)
	sentenceBreakRe = regexp.MustCompile(`[.!?]\s|\n`)
)

// globalCues mark a brand count as describing the whole result set
var globalCues = []string{"overall", "in total", "total", "across all", "across every", "altogether", "combined", "in all"}

// Corrector rewrites narrative numbers to the canonical values of one set of rows
type Corrector struct {
	rows  []models.BrandBreakdownRow
	opts  Options
	names []string
	byKey map[string]models.BrandBreakdownRow

	fractionRe      *regexp.Regexp
	parentheticalRe *regexp.Regexp
	strayRe         *regexp.Regexp
}

// NewCorrector prepares a corrector. Rows must be ordered with the top-ranked brand first.
func NewCorrector(rows []models.BrandBreakdownRow, opts Options) *Corrector {
	c := &Corrector{
		rows:  rows,
		byKey: make(map[string]models.BrandBreakdownRow, len(rows)),
	}

	for _, row := range rows {
		k := brands.Key(row.Brand)
		if k == "" {
			continue
		}
		if _, dup := c.byKey[k]; dup {
			continue
		}
		c.byKey[k] = row
		c.names = append(c.names, row.Brand)
	}

	// A provider that is itself a tracked brand cannot guard its own figures.
	for _, p := range opts.Providers {
		if _, isBrand := c.byKey[brands.Key(p)]; !isBrand {
			c.opts.Providers = append(c.opts.Providers, p)
		}
	}
	c.opts.RenameMentionRate = opts.RenameMentionRate

	if len(c.names) > 0 {
		alt := brandAlternation(c.names)
		c.fractionRe = regexp.MustCompile(`(?i)(` + alt + `)(\s*:\s*)(\d+)\s*/\s*(\d+)\s*\(` + number + `%\)`)
		c.parentheticalRe = regexp.MustCompile(`(?i)(` + alt + `)(\s*)\(` + number + `%\)`)
		c.strayRe = regexp.MustCompile(`(?i)(` + alt + `)(\s*)\(\s*` + number + `%([^)]*)\)`)
	}
	return c
}

// Correct is shorthand for NewCorrector(rows, opts).Correct(text)
func Correct(text string, rows []models.BrandBreakdownRow, opts Options) string {
	return NewCorrector(rows, opts).Correct(text)
}

// Correct runs every numeric pass in order. Each pass sees the previous pass's output.
func (c *Corrector) Correct(text string) string {
	if text == "" || len(c.names) == 0 {
		return text
	}
	text = c.CorrectFractions(text)
	text = c.CorrectParentheticals(text)
	text = c.CorrectShareOfVoice(text)
	text = c.CorrectVisibility(text)
	text = c.CorrectInPercentOf(text)
	text = c.CorrectBrandCounts(text)
	if c.opts.RenameMentionRate {
		text = RenameMentionRate(text)
	}
	return text
}

// CorrectFractions rewrites "Brand: m/n (p%)" to the brand's canonical counts
func (c *Corrector) CorrectFractions(text string) string {
	if c.fractionRe == nil {
		return text
	}
	return replaceSubmatches(c.fractionRe, text, func(m []int) (string, bool) {
		row, ok := c.brandAt(text, m[2], m[3])
		if !ok {
			return "", false
		}
		mentioned, total, pct := text[m[6]:m[7]], text[m[8]:m[9]], text[m[10]:m[11]]
		if mentioned == strconv.Itoa(row.Mentioned) && total == strconv.Itoa(row.Total) && matches(pct, row.VisibilityScore) {
			return "", false
		}
		return text[m[2]:m[3]] + text[m[4]:m[5]] + strconv.Itoa(row.Mentioned) + "/" + strconv.Itoa(row.Total) +
			" (" + FormatPercent(row.VisibilityScore) + "%)", true
	})
}

// CorrectParentheticals rewrites "Brand (p%)" to the brand's visibility score
func (c *Corrector) CorrectParentheticals(text string) string {
	if c.parentheticalRe == nil {
		return text
	}
	return replaceSubmatches(c.parentheticalRe, text, func(m []int) (string, bool) {
		row, ok := c.brandAt(text, m[2], m[3])
		if !ok || matches(text[m[6]:m[7]], row.VisibilityScore) {
			return "", false
		}
		return text[m[2]:m[3]] + text[m[4]:m[5]] + "(" + FormatPercent(row.VisibilityScore) + "%)", true
	})
}

// CorrectShareOfVoice rewrites "p% share of voice" and "share of voice of/at/is p%"
func (c *Corrector) CorrectShareOfVoice(text string) string {
	sov := func(row models.BrandBreakdownRow) float64 { return row.ShareOfVoice }
	text = c.replaceNearest(sovForwardRe, text, 2, sov)
	return c.replaceNearest(sovInverseRe, text, 4, sov)
}

// CorrectVisibility rewrites visibility, "of AI responses" and mention-rate figures
func (c *Corrector) CorrectVisibility(text string) string {
	vis := func(row models.BrandBreakdownRow) float64 { return row.VisibilityScore }
	text = c.replaceNearest(visibilityForwardRe, text, 2, vis)
	return c.replaceNearest(visibilityInverseRe, text, 4, vis)
}

// CorrectInPercentOf rewrites "in p% of" to the nearest brand's visibility score
func (c *Corrector) CorrectInPercentOf(text string) string {
	vis := func(row models.BrandBreakdownRow) float64 { return row.VisibilityScore }
	return c.replaceNearest(inPercentOfRe, text, 4, vis)
}

// replaceNearest rewrites the number whose submatch starts at m[numIdx] using the
// row resolved from the text before the match. Matches preceded by a provider name
// are left untouched.
func (c *Corrector) replaceNearest(re *regexp.Regexp, text string, numIdx int, value func(models.BrandBreakdownRow) float64) string {
	return replaceSubmatches(re, text, func(m []int) (string, bool) {
		if c.providerGuarded(text, m[0]) {
			return "", false
		}
		row := c.resolveRow(text, m[0])
		canonical := value(row)
		if matches(text[m[numIdx]:m[numIdx+1]], canonical) {
			return "", false
		}
		return text[m[0]:m[numIdx]] + FormatPercent(canonical) + text[m[numIdx+1]:m[1]], true
	})
}

// CorrectBrandCounts rewrites overall brand counts to the number of canonical brands
func (c *Corrector) CorrectBrandCounts(text string) string {
	count := strconv.Itoa(len(c.names))

	text = replaceSubmatches(uniqueBrandsRe, text, func(m []int) (string, bool) {
		if text[m[2]:m[3]] == count {
			return "", false
		}
		prefix := sentencePrefix(text, m[0])
		if len(brands.FindOccurrences(prefix, c.opts.Providers)) > 0 {
			return "", false
		}
		if !hasGlobalCue(prefix) && !identifiedTail.MatchString(text[m[1]:]) {
			return "", false
		}
		return count + text[m[4]:m[5]], true
	})

	text = replaceSubmatches(brandsVerbRe, text, func(m []int) (string, bool) {
		if text[m[2]:m[3]] == count {
			return "", false
		}
		if len(brands.FindOccurrences(sentencePrefix(text, m[0]), c.opts.Providers)) > 0 {
			return "", false
		}
		return count + text[m[4]:m[5]], true
	})

	return replaceSubmatches(totalBrandsRe, text, func(m []int) (string, bool) {
		if text[m[4]:m[5]] == count {
			return "", false
		}
		return text[m[2]:m[3]] + count, true
	})
}

// RenameMentionRate rewrites "mention rate(s)" as "visibility score(s)"
func RenameMentionRate(text string) string {
	return mentionRateRe.ReplaceAllStringFunc(text, func(match string) string {
		replacement := "visibility score"
		if strings.HasSuffix(strings.ToLower(match), "s") {
			replacement += "s"
		}
		if match[0] == 'M' {
			replacement = "V" + replacement[1:]
		}
		return replacement
	})
}

// FormatPercent renders a canonical percentage with one decimal place
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// matches reports whether a number written in text already equals canonical at
// the precision it was written with.
func matches(written string, canonical float64) bool {
	v, err := strconv.ParseFloat(written, 64)
	if err != nil {
		return false
	}
	decimals := 0
	if i := strings.IndexByte(written, '.'); i >= 0 {
		decimals = len(written) - i - 1
	}
	scale := math.Pow(10, float64(decimals))
	return math.Abs(v-math.Round(canonical*scale)/scale) < 1e-9
}

// brandAt maps a matched brand span back to its row, applying the word-boundary
// and short-name capitalisation rules.
func (c *Corrector) brandAt(text string, start, end int) (models.BrandBreakdownRow, bool) {
	if !brands.IsWordBoundary(text, start, end) {
		return models.BrandBreakdownRow{}, false
	}
	matched := text[start:end]
	if first, _ := utf8.DecodeRuneInString(matched); utf8.RuneCountInString(matched) <= 3 && !unicode.IsUpper(first) {
		return models.BrandBreakdownRow{}, false
	}
	row, ok := c.byKey[brands.Key(matched)]
	return row, ok
}

// sentencePrefix returns the part of the current sentence before pos, bounded by the guard window
func sentencePrefix(text string, pos int) string {
	window := windowBefore(text, pos, ProviderGuardWindow)
	locs := sentenceBreakRe.FindAllStringIndex(window, -1)
	if len(locs) == 0 {
		return window
	}
	return window[locs[len(locs)-1][1]:]
}

func hasGlobalCue(prefix string) bool {
	lower := strings.ToLower(prefix)
	for _, cue := range globalCues {
		if i := strings.Index(lower, cue); i >= 0 && brands.IsWordBoundary(lower, i, i+len(cue)) {
			return true
		}
	}
	return false
}

// replaceSubmatches rebuilds text, letting fn supply a replacement for each match.
// fn returns false to keep the match as written.
func replaceSubmatches(re *regexp.Regexp, text string, fn func(m []int) (string, bool)) string {
	all := re.FindAllStringSubmatchIndex(text, -1)
	if len(all) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range all {
		replacement, ok := fn(m)
		if !ok {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(replacement)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// brandAlternation builds a regexp alternation with longer names first so the
// leftmost match always prefers the longest brand.
func brandAlternation(names []string) string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, n := range sorted {
		quoted[i] = regexp.QuoteMeta(strings.TrimSpace(n))
	}
	return strings.Join(quoted, "|")
}
