package sentiment

import (
	"math"

	"github.com/azure/brand-visibility-engine/internal/brands"
	"github.com/azure/brand-visibility-engine/internal/models"
)

// Analyzer reduces raw sentiment judgments for one run
type Analyzer struct {
	resolver *brands.Resolver
}

// NewAnalyzer creates an analyzer sharing the run's brand resolver
func NewAnalyzer(resolver *brands.Resolver) *Analyzer {
	return &Analyzer{resolver: resolver}
}

// NearestLabel maps an ordinal average back to the closest label. On an exact
// midpoint the lower label wins because it is visited first.
func NearestLabel(avg float64) models.Sentiment {
	best := models.RankedSentiments[0]
	bestDist := math.Inf(1)
	for _, s := range models.RankedSentiments {
		d := math.Abs(float64(s.Score()) - avg)
		if d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best
}

// Effective returns the sentiment a result counts with. Category reports average
// every qualifying competitor sentiment; brand reports use brand_sentiment as-is.
func (a *Analyzer) Effective(res models.Result) (models.Sentiment, bool) {
	if !a.resolver.Options().IsCategory {
		if res.BrandSentiment == nil || *res.BrandSentiment == "" {
			return "", false
		}
		return *res.BrandSentiment, true
	}

	sum, n := 0, 0
	for name, s := range res.CompetitorSentiments {
		if !a.resolver.Qualifies(name) || !s.Scored() {
			continue
		}
		sum += s.Score()
		n++
	}
	if n == 0 {
		return "", false
	}
	return NearestLabel(float64(sum) / float64(n)), true
}

// HasEffective reports whether a result carries a usable sentiment signal
func (a *Analyzer) HasEffective(res models.Result) bool {
	_, ok := a.Effective(res)
	return ok
}

type tally struct {
	total        int
	distribution map[models.Sentiment]int
	scoreSum     int
	scoreN       int
}

func newTally() *tally {
	return &tally{distribution: make(map[models.Sentiment]int)}
}

func (t *tally) add(s models.Sentiment) {
	t.total++
	t.distribution[s]++
	if s.Scored() {
		t.scoreSum += s.Score()
		t.scoreN++
	}
}

func (t *tally) average() float64 {
	if t.scoreN == 0 {
		return 0
	}
	return float64(t.scoreSum) / float64(t.scoreN)
}

func (t *tally) label() models.Sentiment {
	if t.scoreN == 0 {
		return ""
	}
	return NearestLabel(t.average())
}

// Insights summarises effective sentiment across non-error results
func (a *Analyzer) Insights(results []models.Result) models.SentimentInsights {
	t := newTally()
	for _, res := range results {
		if res.Failed() {
			continue
		}
		if s, ok := a.Effective(res); ok {
			t.add(s)
		}
	}

	positive := t.distribution[models.SentimentStrongEndorsement] + t.distribution[models.SentimentPositiveEndorsement]
	negative := t.distribution[models.SentimentNegativeComparison]

	return models.SentimentInsights{
		Total:         t.total,
		Distribution:  t.distribution,
		PositiveShare: brands.Percentage(positive, t.total),
		NegativeShare: brands.Percentage(negative, t.total),
		AverageScore:  t.average(),
		Dominant:      dominant(t.distribution),
	}
}

// dominant picks the most frequent label, preferring the more favourable one on ties
func dominant(dist map[models.Sentiment]int) models.Sentiment {
	var best models.Sentiment
	bestCount := 0
	for i := len(models.RankedSentiments) - 1; i >= 0; i-- {
		s := models.RankedSentiments[i]
		if dist[s] > bestCount {
			best, bestCount = s, dist[s]
		}
	}
	if dist[models.SentimentNotMentioned] > bestCount {
		best = models.SentimentNotMentioned
	}
	return best
}

// ByProvider reduces effective sentiment per provider, in first-seen order
func (a *Analyzer) ByProvider(results []models.Result) []models.ProviderSentimentRow {
	var order []models.Provider
	tallies := make(map[models.Provider]*tally)

	for _, res := range results {
		if res.Failed() {
			continue
		}
		s, ok := a.Effective(res)
		if !ok {
			continue
		}
		t, exists := tallies[res.Provider]
		if !exists {
			t = newTally()
			tallies[res.Provider] = t
			order = append(order, res.Provider)
		}
		t.add(s)
	}

	rows := make([]models.ProviderSentimentRow, 0, len(order))
	for _, p := range order {
		t := tallies[p]
		rows = append(rows, models.ProviderSentimentRow{
			Provider:     p,
			Total:        t.total,
			Distribution: t.distribution,
			AverageScore: t.average(),
			Label:        t.label(),
		})
	}
	return rows
}

// ByBrand reduces per-brand sentiment over the results the brand counts toward
func (a *Analyzer) ByBrand(results []models.Result) []models.BrandSentimentRow {
	var order []string
	names := make(map[string]string)
	tallies := make(map[string]*tally)

	for _, res := range results {
		if res.Failed() {
			continue
		}
		for _, name := range a.resolver.ResultBrands(res) {
			s, ok := a.resolver.BrandSentiment(res, name)
			if !ok {
				continue
			}
			k := brands.Key(name)
			t, exists := tallies[k]
			if !exists {
				t = newTally()
				tallies[k] = t
				names[k] = name
				order = append(order, k)
			}
			t.add(s)
		}
	}

	rows := make([]models.BrandSentimentRow, 0, len(order))
	for _, k := range order {
		t := tallies[k]
		rows = append(rows, models.BrandSentimentRow{
			Brand:           names[k],
			IsSearchedBrand: a.resolver.IsSearchedBrand(names[k]),
			Total:           t.total,
			Distribution:    t.distribution,
			AverageScore:    t.average(),
			Label:           t.label(),
		})
	}
	return rows
}

// Pivot builds the provider x brand matrix. Category reports get an extra column,
// named after the category, holding each provider's effective sentiment.
func (a *Analyzer) Pivot(results []models.Result) models.SentimentPivot {
	opts := a.resolver.Options()
	var providers []models.Provider
	var columns []string
	seenProvider := make(map[models.Provider]bool)
	seenColumn := make(map[string]bool)
	cells := make(map[models.Provider]map[string]*tally)

	addCell := func(p models.Provider, column string, s models.Sentiment) {
		if !seenProvider[p] {
			seenProvider[p] = true
			providers = append(providers, p)
			cells[p] = make(map[string]*tally)
		}
		if !seenColumn[column] {
			seenColumn[column] = true
			columns = append(columns, column)
		}
		t, ok := cells[p][column]
		if !ok {
			t = newTally()
			cells[p][column] = t
		}
		t.add(s)
	}

	for _, res := range results {
		if res.Failed() {
			continue
		}
		if opts.IsCategory {
			if s, ok := a.Effective(res); ok {
				addCell(res.Provider, opts.SearchedBrand, s)
			}
		}
		for _, name := range a.resolver.ResultBrands(res) {
			if s, ok := a.resolver.BrandSentiment(res, name); ok {
				addCell(res.Provider, name, s)
			}
		}
	}

	pivot := models.SentimentPivot{
		Providers: providers,
		Columns:   columns,
		Cells:     make(map[models.Provider]map[string]models.PivotCell, len(cells)),
	}
	for p, row := range cells {
		pivot.Cells[p] = make(map[string]models.PivotCell, len(row))
		for column, t := range row {
			pivot.Cells[p][column] = models.PivotCell{
				Count:        t.total,
				AverageScore: t.average(),
				Label:        t.label(),
			}
		}
	}
	return pivot
}

// Summary computes every sentiment output of a report
func (a *Analyzer) Summary(results []models.Result) models.SentimentSummary {
	return models.SentimentSummary{
		Insights:   a.Insights(results),
		ByProvider: a.ByProvider(results),
		ByBrand:    a.ByBrand(results),
		Pivot:      a.Pivot(results),
	}
}
