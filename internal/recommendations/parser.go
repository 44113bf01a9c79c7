package recommendations

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/azure/brand-visibility-engine/internal/narrative"
)

var (
	blankLineRe     = regexp.MustCompile(`\n[ \t]*\n+`)
	numberedStartRe = regexp.MustCompile(`^ {0,3}\d{1,2}[.)]\s+`)
	boldBulletRe    = regexp.MustCompile(`^ {0,3}[-*•]\s+(?:\*\*|__)`)
	bulletLineRe    = regexp.MustCompile(`^\s*(?:[-*•+]|[a-z][.)]|\d{1,2}[.)])\s+(.+)$`)
	markerRe        = regexp.MustCompile(`^\s*(?:[-*•+]|\d{1,2}[.)])\s+`)
	boldTitleRe     = regexp.MustCompile(`^(?:\*\*(.+?)\*\*|__(.+?)__)\s*[:.\-–—]?\s*(.*)$`)
	headingTitleRe  = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	phraseTitleRe   = regexp.MustCompile(`^([^:]{3,80}?)\s*(?::|\s[-–—]\s)\s*(.+)$`)
	barHeadingRe    = regexp.MustCompile(`^(?:#{1,6}\s+.+|(?:\*\*|__)?[^.!?]{1,50}:(?:\*\*|__)?)$`)
	markupRe        = regexp.MustCompile(`\*\*|__|\x60`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// Parser turns free-form recommendation prose into scored cards
type Parser struct {
	cfg       ClassifierConfig
	category  bool
	corrector *narrative.Corrector
}

// NewParser creates a parser. Category reports get their card text corrected against
// rows once parsing is done; brand reports pass nil rows.
func NewParser(cfg ClassifierConfig, isCategory bool, rows []models.BrandBreakdownRow, opts narrative.Options) *Parser {
	p := &Parser{cfg: cfg, category: isCategory}
	if isCategory && len(rows) > 0 {
		p.corrector = narrative.NewCorrector(rows, opts)
	}
	return p
}

// ParseText splits prose into paragraphs and builds one card per paragraph
func (p *Parser) ParseText(text string) []models.Recommendation {
	return p.build(SplitParagraphs(text))
}

// ParseItems builds one card per pre-split item
func (p *Parser) ParseItems(items []string) []models.Recommendation {
	var paragraphs []string
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			paragraphs = append(paragraphs, strings.TrimSpace(item))
		}
	}
	return p.build(paragraphs)
}

func (p *Parser) build(paragraphs []string) []models.Recommendation {
	limit := MaxBrandItems
	if p.category {
		limit = MaxCategoryItems
	}

	var out []models.Recommendation
	for _, para := range paragraphs {
		if len(out) == limit {
			break
		}
		rec, ok := p.card(para)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (p *Parser) card(paragraph string) (models.Recommendation, bool) {
	title, description, tactics := Extract(paragraph)
	if title == "" {
		return models.Recommendation{}, false
	}

	if p.corrector != nil {
		// corrected after extraction so sentence splitting sees the original figures
		title = p.corrector.Correct(title)
		description = p.corrector.Correct(description)
		for i := range tactics {
			tactics[i] = p.corrector.Correct(tactics[i])
		}
	}

	corpus := strings.ToLower(title + " " + description + " " + strings.Join(tactics, " "))
	impact := p.classifyImpact(corpus)
	effort := p.classifyEffort(corpus)

	return models.Recommendation{
		Title:       title,
		Description: description,
		Impact:      impact,
		Effort:      effort,
		Tactics:     tactics,
		Score:       impact.Level.Weight() * (4 - effort.Level.Weight()),
	}, true
}

func (p *Parser) classifyImpact(corpus string) models.Classification {
	if kw, ok := firstKeyword(corpus, p.cfg.HighImpact); ok {
		return models.Classification{Level: models.LevelHigh, Reason: fmt.Sprintf("Mentions %q, which signals a substantial visibility upside", kw)}
	}
	if kw, ok := firstKeyword(corpus, p.cfg.LowImpact); ok {
		return models.Classification{Level: models.LevelLow, Reason: fmt.Sprintf("Mentions %q, which scopes it as an incremental gain", kw)}
	}
	return models.Classification{Level: models.LevelMedium, Reason: "No strong impact signals; expected to deliver moderate gains"}
}

func (p *Parser) classifyEffort(corpus string) models.Classification {
	if kw, ok := firstKeyword(corpus, p.cfg.HighEffort); ok {
		return models.Classification{Level: models.LevelHigh, Reason: fmt.Sprintf("Involves %q, which needs sustained coordination", kw)}
	}
	if kw, ok := firstKeyword(corpus, p.cfg.LowEffort); ok {
		return models.Classification{Level: models.LevelLow, Reason: fmt.Sprintf("Involves %q, which fits existing resources", kw)}
	}
	return models.Classification{Level: models.LevelMedium, Reason: "No strong effort signals; assumed to need a moderate investment"}
}

// firstKeyword reports the first table entry found at a word start in corpus.
// Suffixes are allowed so "partnership" also matches "partnerships".
func firstKeyword(corpus string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(corpus[from:], kw)
			if i < 0 {
				break
			}
			at := from + i
			if at == 0 || !isWordByte(corpus[at-1]) {
				return kw, true
			}
			from = at + 1
		}
	}
	return "", false
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

// SplitParagraphs breaks text on blank lines and before each top-level numbered
// item or bold-titled bullet. Headings standing alone are dropped.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	flush := func(lines []string) {
		para := strings.TrimSpace(strings.Join(lines, "\n"))
		if para == "" || (!strings.Contains(para, "\n") && barHeadingRe.MatchString(para)) {
			return
		}
		out = append(out, para)
	}

	for _, block := range blankLineRe.Split(text, -1) {
		var current []string
		for _, line := range strings.Split(block, "\n") {
			if (numberedStartRe.MatchString(line) || boldBulletRe.MatchString(line)) && len(current) > 0 {
				flush(current)
				current = nil
			}
			current = append(current, line)
		}
		flush(current)
	}
	return out
}

// Extract pulls the title, description and tactics out of one paragraph
func Extract(paragraph string) (title, description string, tactics []string) {
	lines := strings.Split(strings.TrimSpace(paragraph), "\n")
	first := strings.TrimSpace(markerRe.ReplaceAllString(lines[0], ""))
	numbered := numberedStartRe.MatchString(lines[0])

	var body []string
	for _, line := range lines[1:] {
		if m := bulletLineRe.FindStringSubmatch(line); m != nil {
			if t := clean(m[1]); t != "" && len(tactics) < MaxTactics {
				tactics = append(tactics, t)
			}
			continue
		}
		if t := strings.TrimSpace(line); t != "" {
			body = append(body, t)
		}
	}

	rest := ""
	switch {
	case boldTitleRe.MatchString(first):
		m := boldTitleRe.FindStringSubmatch(first)
		title = m[1] + m[2]
		rest = m[3]
	case headingTitleRe.MatchString(first):
		title = headingTitleRe.FindStringSubmatch(first)[1]
	case numbered && phraseTitleRe.MatchString(first):
		m := phraseTitleRe.FindStringSubmatch(first)
		title, rest = m[1], m[2]
	default:
		sentences := SplitSentences(clean(first + " " + strings.Join(body, " ")))
		if len(sentences) == 0 {
			return "", "", nil
		}
		title = sentences[0]
		if len(sentences) > 1 {
			description = strings.Join(sentences[1:], " ")
		} else {
			description = title
		}
		body = nil
	}

	title = strings.TrimRight(clean(title), " :.")
	if body != nil || rest != "" {
		description = clean(strings.TrimSpace(rest + " " + strings.Join(body, " ")))
	}

	if len(tactics) == 0 {
		tactics = sentenceTactics(description)
	}
	if description == "" {
		description = strings.Join(tactics, " ")
	}
	return title, description, tactics
}

// sentenceTactics falls back to short standalone sentences when no bullets exist
func sentenceTactics(description string) []string {
	sentences := SplitSentences(description)
	if len(sentences) < 2 {
		return nil
	}
	var out []string
	for _, s := range sentences {
		if len(s) < 15 || len(s) > 140 {
			continue
		}
		out = append(out, s)
		if len(out) == MaxTactics {
			break
		}
	}
	return out
}

func clean(s string) string {
	s = markupRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}
