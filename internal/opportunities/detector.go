package opportunities

import (
	"fmt"
	"math"
	"sort"

	"github.com/azure/brand-visibility-engine/internal/brands"
	"github.com/azure/brand-visibility-engine/internal/models"
)

// Thresholds holds the eligibility gates and score tuning for every detector
type Thresholds struct {
	MaxWins int

	PromptMinResponses     int
	PromptMinCompetitorVis float64
	PromptMaxBrandVis      float64
	PromptVolumeSaturation float64
	PromptConfidenceAt     float64

	ProviderMinResponses     int
	ProviderMinGap           float64
	ProviderVolumeSaturation float64
	ProviderConfidenceAt     float64

	SourceMinResponses     int
	SourceMinCompetitors   int
	SourceAuthoritySat     float64
	SourceBreadthAt        float64
	SourceConfidenceAt     float64
	SourceHighCompetitors  int
	SourceVisibilityGapFix float64
}

// DefaultThresholds returns the stock gates
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxWins: 5,

		PromptMinResponses:     5,
		PromptMinCompetitorVis: 40,
		PromptMaxBrandVis:      25,
		PromptVolumeSaturation: 50,
		PromptConfidenceAt:     10,

		ProviderMinResponses:     3,
		ProviderMinGap:           15,
		ProviderVolumeSaturation: 30,
		ProviderConfidenceAt:     8,

		SourceMinResponses:     3,
		SourceMinCompetitors:   2,
		SourceAuthoritySat:     20,
		SourceBreadthAt:        5,
		SourceConfidenceAt:     10,
		SourceHighCompetitors:  4,
		SourceVisibilityGapFix: 0.5,
	}
}

// Detector finds quick wins for the searched brand of a brand report
type Detector struct {
	resolver *brands.Resolver
	limits   Thresholds
}

// NewDetector creates a detector over the resolver's run
func NewDetector(resolver *brands.Resolver, limits Thresholds) *Detector {
	return &Detector{resolver: resolver, limits: limits}
}

// QuickWins pools every detector, sorts by score and keeps the top MaxWins.
// Category reports have no single brand to compare and yield nothing.
func (d *Detector) QuickWins(results []models.Result) []models.QuickWin {
	if d.resolver.Options().IsCategory {
		return nil
	}

	var wins []models.QuickWin
	wins = append(wins, d.PromptGaps(results)...)
	wins = append(wins, d.ProviderGaps(results)...)
	wins = append(wins, d.SourceGaps(results)...)

	sort.SliceStable(wins, func(i, j int) bool { return wins[i].Score > wins[j].Score })
	if len(wins) > d.limits.MaxWins {
		wins = wins[:d.limits.MaxWins]
	}
	return wins
}

// PromptGaps flags prompts where competitors are visible and the brand is not
func (d *Detector) PromptGaps(results []models.Result) []models.QuickWin {
	brand := d.resolver.Options().SearchedBrand
	var wins []models.QuickWin

	for _, g := range d.groupBy(results, func(r models.Result) string { return r.Prompt }) {
		n := len(g.results)
		if n < d.limits.PromptMinResponses {
			continue
		}
		s := d.gapStats(g.results)
		if s.competitorAvg < d.limits.PromptMinCompetitorVis || s.brandVis >= d.limits.PromptMaxBrandVis {
			continue
		}

		severity := models.SeverityHigh
		if s.brandVis < 10 && s.competitorAvg > 60 {
			severity = models.SeverityCritical
		}

		wins = append(wins, models.QuickWin{
			Type:     models.QuickWinPromptGap,
			Severity: severity,
			Title:    fmt.Sprintf("Close the gap on %q", g.key),
			Description: fmt.Sprintf("Competitors average %.1f%% visibility on this prompt while %s appears in %.1f%% of %d responses.",
				s.competitorAvg, brand, s.brandVis, n),
			Action:               fmt.Sprintf("Publish content that answers %q directly and positions %s against %s.", g.key, brand, joinTop(s.competitors, 3)),
			Target:               g.key,
			BrandVisibility:      s.brandVis,
			CompetitorVisibility: s.competitorAvg,
			Responses:            n,
			Competitors:          s.competitors,
			Score: gapScore(s.brandVis, s.competitorAvg, n,
				d.limits.PromptVolumeSaturation, d.limits.PromptConfidenceAt),
		})
	}
	return wins
}

// ProviderGaps flags providers where competitors out-rank the brand by a clear margin
func (d *Detector) ProviderGaps(results []models.Result) []models.QuickWin {
	brand := d.resolver.Options().SearchedBrand
	var wins []models.QuickWin

	for _, g := range d.groupBy(results, func(r models.Result) string { return string(r.Provider) }) {
		n := len(g.results)
		if n < d.limits.ProviderMinResponses {
			continue
		}
		s := d.gapStats(g.results)
		if s.competitorAvg-s.brandVis < d.limits.ProviderMinGap {
			continue
		}

		severity := models.SeverityMedium
		if s.brandVis < 15 {
			severity = models.SeverityHigh
		}

		wins = append(wins, models.QuickWin{
			Type:     models.QuickWinProviderGap,
			Severity: severity,
			Title:    fmt.Sprintf("Improve presence on %s", g.key),
			Description: fmt.Sprintf("%s mentions %s in %.1f%% of %d responses, against a %.1f%% competitor average.",
				g.key, brand, s.brandVis, n, s.competitorAvg),
			Action:               fmt.Sprintf("Strengthen the sources %s relies on so %s is cited alongside %s.", g.key, brand, joinTop(s.competitors, 3)),
			Target:               g.key,
			BrandVisibility:      s.brandVis,
			CompetitorVisibility: s.competitorAvg,
			Responses:            n,
			Competitors:          s.competitors,
			Score: gapScore(s.brandVis, s.competitorAvg, n,
				d.limits.ProviderVolumeSaturation, d.limits.ProviderConfidenceAt),
		})
	}
	return wins
}

type group struct {
	key     string
	results []models.Result
}

// groupBy buckets non-error results by key in first-seen order
func (d *Detector) groupBy(results []models.Result, key func(models.Result) string) []group {
	var groups []group
	index := make(map[string]int)
	for _, res := range results {
		if res.Failed() {
			continue
		}
		k := key(res)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].results = append(groups[i].results, res)
	}
	return groups
}

type gapSummary struct {
	brandVis      float64
	competitorAvg float64
	competitors   []string
}

// gapStats compares the brand's visibility with the mean visibility of every
// competitor present in the group
func (d *Detector) gapStats(results []models.Result) gapSummary {
	counts := newCounter()
	brandHits := 0

	for _, res := range results {
		for _, b := range d.resolver.ResultBrands(res) {
			if d.resolver.IsSearchedBrand(b) {
				brandHits++
				continue
			}
			counts.add(b)
		}
	}

	s := gapSummary{
		brandVis:    brands.Percentage(brandHits, len(results)),
		competitors: counts.ranked(),
	}
	if len(s.competitors) > 0 {
		sum := 0.0
		for _, c := range s.competitors {
			sum += brands.Percentage(counts.n[brands.Key(c)], len(results))
		}
		s.competitorAvg = sum / float64(len(s.competitors))
	}
	return s
}

// gapScore is visibility gap + competitor strength + log volume + confidence, each in [0,1]
func gapScore(brandVis, competitorVis float64, n int, volumeSaturation, confidenceAt float64) float64 {
	return clamp01((competitorVis-brandVis)/100) +
		clamp01(competitorVis/100) +
		logTerm(n, volumeSaturation) +
		clamp01(float64(n)/confidenceAt)
}

// logTerm is ln(n)/ln(saturation) capped at 1
func logTerm(n int, saturation float64) float64 {
	if n <= 1 || saturation <= 1 {
		return 0
	}
	return clamp01(math.Log(float64(n)) / math.Log(saturation))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// counter counts brands by key and remembers the first spelling seen
type counter struct {
	n     map[string]int
	names map[string]string
	order []string
}

func newCounter() *counter {
	return &counter{n: make(map[string]int), names: make(map[string]string)}
}

func (c *counter) add(name string) {
	k := brands.Key(name)
	if _, ok := c.names[k]; !ok {
		c.names[k] = name
		c.order = append(c.order, k)
	}
	c.n[k]++
}

// ranked returns names by count descending, then alphabetically
func (c *counter) ranked() []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		if c.n[keys[i]] != c.n[keys[j]] {
			return c.n[keys[i]] > c.n[keys[j]]
		}
		return keys[i] < keys[j]
	})
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = c.names[k]
	}
	return out
}

func joinTop(names []string, n int) string {
	if len(names) > n {
		names = names[:n]
	}
	switch len(names) {
	case 0:
		return "competitors"
	case 1:
		return names[0]
	}
	out := names[0]
	for _, name := range names[1 : len(names)-1] {
		out += ", " + name
	}
	return out + " and " + names[len(names)-1]
}
