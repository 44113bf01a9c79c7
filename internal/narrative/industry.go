package narrative

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/azure/brand-visibility-engine/internal/brands"
	"github.com/azure/brand-visibility-engine/internal/models"
)

const (
	visibilityDefinition   = "the percentage of AI responses that mention the brand"
	shareOfVoiceDefinition = "its portion of all brand mentions across those responses"
)

var (
	paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n+`)
	bareVisibilityRe = regexp.MustCompile(`(?i)\bvisibility score\b`)
	suggestsRe       = regexp.MustCompile(`(?i)\bsuggests\b`)
	headingLineRe    = regexp.MustCompile(`^\s*(?:#{1,6}\s+.*|\*\*[^*]+\*\*:?|__[^_]+__:?|[^.!?]{1,60}:)\s*$`)
)

var suggestsAlternates = []string{"indicates", "points to", "reflects"}

// tierPhrase holds the singular and plural wording for one visibility band
type tierPhrase struct {
	min      float64
	singular string
	plural   string
}

var tierPhrases = []tierPhrase{
	{99.9, "leads with perfect visibility", "lead with perfect visibility"},
	{75, "follows with strong visibility", "follow with strong visibility"},
	{50, "maintains moderate visibility", "maintain moderate visibility"},
	{25, "shows limited visibility", "show limited visibility"},
	{0, "has minimal visibility", "have minimal visibility"},
}

// CorrectIndustrySummary is shorthand for NewCorrector(rows, opts).CorrectIndustrySummary(text)
func CorrectIndustrySummary(text string, rows []models.BrandBreakdownRow, opts Options) string {
	return NewCorrector(rows, opts).CorrectIndustrySummary(text)
}

// CorrectIndustrySummary corrects a category-report summary and then layers on the
// market-leader sentence, a rebuilt competitive-landscape paragraph, first-mention
// annotations, a visibility-score definition and varied wording. The additions are
// guarded against repeats but the function as a whole is not idempotent.
func (c *Corrector) CorrectIndustrySummary(text string) string {
	if strings.TrimSpace(text) == "" || len(c.names) == 0 {
		return text
	}

	paragraphs := paragraphBreakRe.Split(c.Correct(text), -1)

	landscape := -1
	for i, p := range paragraphs {
		if strings.Contains(strings.ToLower(p), "competitive landscape") {
			landscape = i
			break
		}
	}

	if landscape >= 0 {
		// A heading-only paragraph hands its body role to the next paragraph.
		if isHeadingOnly(paragraphs[landscape]) && landscape+1 < len(paragraphs) {
			landscape++
			paragraphs[landscape] = c.LandscapeParagraph()
		} else {
			paragraphs[landscape] = c.rebuildLandscape(paragraphs[landscape])
		}
		for i := range paragraphs {
			if i != landscape {
				paragraphs[i] = c.StripStrayPercentages(paragraphs[i])
			}
		}
	}

	c.annotateFirstMentions(paragraphs, landscape)

	out := strings.Join(paragraphs, "\n\n")
	out = c.InjectMarketLeader(out)
	out = DefineVisibilityScore(out)
	return VarySuggests(out)
}

// LandscapeParagraph describes every brand by identical-visibility tier
func (c *Corrector) LandscapeParagraph() string {
	type tier struct {
		score float64
		names []string
	}
	var tiers []tier
	index := make(map[string]int)

	rows := append([]models.BrandBreakdownRow(nil), c.uniqueRows()...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].VisibilityScore > rows[j].VisibilityScore })

	for _, row := range rows {
		label := FormatPercent(row.VisibilityScore)
		i, ok := index[label]
		if !ok {
			i = len(tiers)
			index[label] = i
			tiers = append(tiers, tier{score: row.VisibilityScore})
		}
		tiers[i].names = append(tiers[i].names, row.Brand)
	}

	sentences := make([]string, 0, len(tiers))
	for _, t := range tiers {
		phrase := phraseFor(t.score)
		verb := phrase.singular
		if len(t.names) > 1 {
			verb = phrase.plural
		}
		sentences = append(sentences, fmt.Sprintf("%s %s (%s%%).", joinNames(t.names), verb, FormatPercent(t.score)))
	}
	return strings.Join(sentences, " ")
}

// StripStrayPercentages drops "Brand (p% ...)" parentheticals that disagree with the
// brand's canonical visibility, or share of voice when the parenthetical says so.
func (c *Corrector) StripStrayPercentages(text string) string {
	if c.strayRe == nil {
		return text
	}
	return replaceSubmatches(c.strayRe, text, func(m []int) (string, bool) {
		row, ok := c.brandAt(text, m[2], m[3])
		if !ok {
			return "", false
		}
		canonical := row.VisibilityScore
		if strings.Contains(strings.ToLower(text[m[8]:m[9]]), "share of voice") {
			canonical = row.ShareOfVoice
		}
		if matches(text[m[6]:m[7]], canonical) {
			return "", false
		}
		return text[m[2]:m[3]], true
	})
}

// InjectMarketLeader prepends the market-leader sentence to the first body paragraph
// unless the text already names a market leader.
func (c *Corrector) InjectMarketLeader(text string) string {
	if len(c.names) == 0 || strings.Contains(strings.ToLower(text), "market leader") {
		return text
	}
	sentence := c.marketLeaderSentence()

	paragraphs := paragraphBreakRe.Split(text, -1)
	for i, p := range paragraphs {
		if strings.TrimSpace(p) == "" || isHeadingOnly(p) {
			continue
		}
		paragraphs[i] = sentence + " " + strings.TrimLeft(p, " \t")
		return strings.Join(paragraphs, "\n\n")
	}
	return sentence + "\n\n" + text
}

func (c *Corrector) marketLeaderSentence() string {
	rows := c.uniqueRows()
	top := rows[0].VisibilityScore
	var leaders []models.BrandBreakdownRow
	for _, row := range rows {
		if FormatPercent(row.VisibilityScore) == FormatPercent(top) {
			leaders = append(leaders, row)
		}
	}

	if len(leaders) == 1 {
		return fmt.Sprintf("%s is the market leader with a %s%% visibility score (%s) and a %s%% share of voice (%s).",
			leaders[0].Brand, FormatPercent(top), visibilityDefinition,
			FormatPercent(leaders[0].ShareOfVoice), shareOfVoiceDefinition)
	}

	names := make([]string, len(leaders))
	shares := make([]string, len(leaders))
	for i, row := range leaders {
		names[i] = row.Brand
		shares[i] = FormatPercent(row.ShareOfVoice) + "%"
	}
	return fmt.Sprintf("%s are the market leaders, each with a %s%% visibility score (%s), holding share of voice (%s) of %s respectively.",
		joinNames(names), FormatPercent(top), visibilityDefinition, shareOfVoiceDefinition, joinNames(shares))
}

// DefineVisibilityScore adds an inline definition after the first bare "visibility score"
func DefineVisibilityScore(text string) string {
	if strings.Contains(text, visibilityDefinition) {
		return text
	}
	for _, loc := range bareVisibilityRe.FindAllStringIndex(text, -1) {
		rest := strings.TrimLeft(text[loc[1]:], " \t")
		if strings.HasPrefix(rest, "(") {
			continue
		}
		return text[:loc[1]] + " (" + visibilityDefinition + ")" + text[loc[1]:]
	}
	return text
}

// VarySuggests keeps the first "suggests" and rotates alternates through the rest
func VarySuggests(text string) string {
	n := 0
	return suggestsRe.ReplaceAllStringFunc(text, func(match string) string {
		n++
		if n == 1 {
			return match
		}
		alt := suggestsAlternates[(n-2)%len(suggestsAlternates)]
		if match[0] == 'S' {
			alt = strings.ToUpper(alt[:1]) + alt[1:]
		}
		return alt
	})
}

// annotateFirstMentions appends "(p%)" to the first mention of each brand outside
// the landscape paragraph, unless that mention is already followed by a parenthetical.
func (c *Corrector) annotateFirstMentions(paragraphs []string, skip int) {
	done := make(map[string]bool)
	for i, p := range paragraphs {
		if i == skip || len(done) == len(c.names) {
			continue
		}
		type insertion struct {
			at   int
			text string
		}
		var inserts []insertion
		for _, occ := range brands.FindOccurrences(p, c.names) {
			k := brands.Key(occ.Brand)
			if done[k] {
				continue
			}
			done[k] = true
			if strings.HasPrefix(strings.TrimLeft(p[occ.End:], " \t"), "(") {
				continue
			}
			row := c.byKey[k]
			inserts = append(inserts, insertion{at: occ.End, text: " (" + FormatPercent(row.VisibilityScore) + "%)"})
		}
		for j := len(inserts) - 1; j >= 0; j-- {
			p = p[:inserts[j].at] + inserts[j].text + p[inserts[j].at:]
		}
		paragraphs[i] = p
	}
}

func (c *Corrector) rebuildLandscape(paragraph string) string {
	lines := strings.SplitN(strings.TrimSpace(paragraph), "\n", 2)
	if headingLineRe.MatchString(lines[0]) {
		return lines[0] + "\n" + c.LandscapeParagraph()
	}
	return c.LandscapeParagraph()
}

func (c *Corrector) uniqueRows() []models.BrandBreakdownRow {
	rows := make([]models.BrandBreakdownRow, 0, len(c.names))
	for _, n := range c.names {
		rows = append(rows, c.byKey[brands.Key(n)])
	}
	return rows
}

func isHeadingOnly(paragraph string) bool {
	trimmed := strings.TrimSpace(paragraph)
	return trimmed != "" && !strings.Contains(trimmed, "\n") && headingLineRe.MatchString(trimmed)
}

func phraseFor(score float64) tierPhrase {
	for _, p := range tierPhrases {
		if score >= p.min {
			return p
		}
	}
	return tierPhrases[len(tierPhrases)-1]
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
