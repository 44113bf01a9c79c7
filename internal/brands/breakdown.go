package brands

import (
	"sort"

	"github.com/azure/brand-visibility-engine/internal/models"
)

type brandAccumulator struct {
	name         string
	mentioned    int
	firsts       int
	rankSum      int
	sentimentSum int
	sentimentN   int
	perPrompt    map[string]int
}

// Breakdown recomputes the canonical per-brand rows from scratch. Rows are sorted
// by visibility, so rows[0] is the top-ranked brand.
func (r *Resolver) Breakdown(results []models.Result) []models.BrandBreakdownRow {
	var order []string
	acc := make(map[string]*brandAccumulator)
	get := func(name string) *brandAccumulator {
		k := Key(name)
		a, ok := acc[k]
		if !ok {
			a = &brandAccumulator{name: name, perPrompt: make(map[string]int)}
			acc[k] = a
			order = append(order, k)
		}
		return a
	}

	// The searched brand always gets a row in brand reports, even at 0%.
	if !r.opts.IsCategory && r.searched != "" && !r.excluded[r.searched] {
		get(r.opts.SearchedBrand)
	}

	var prompts []string
	promptTotals := make(map[string]int)
	eligible := 0
	slots := 0

	for _, res := range results {
		if res.Failed() {
			continue
		}
		eligible++
		if _, ok := promptTotals[res.Prompt]; !ok {
			prompts = append(prompts, res.Prompt)
		}
		promptTotals[res.Prompt]++

		names := r.ResultBrands(res)
		slots += len(names)
		ranks := RankBrands(res.Text(), names)

		for _, name := range names {
			a := get(name)
			a.mentioned++
			a.perPrompt[res.Prompt]++
			rank := ranks[Key(name)]
			a.rankSum += rank
			if rank == 1 {
				a.firsts++
			}
			if s, ok := r.brandSentiment(res, name); ok {
				a.sentimentSum += s.Score()
				a.sentimentN++
			}
		}
	}

	rows := make([]models.BrandBreakdownRow, 0, len(order))
	for _, k := range order {
		a := acc[k]
		row := models.BrandBreakdownRow{
			Brand:             a.name,
			IsSearchedBrand:   r.IsSearchedBrand(a.name),
			Total:             eligible,
			Mentioned:         a.mentioned,
			VisibilityScore:   Percentage(a.mentioned, eligible),
			ShareOfVoice:      Percentage(a.mentioned, slots),
			FirstPositionRate: Percentage(a.firsts, a.mentioned),
		}
		if a.mentioned > 0 {
			row.AvgRank = float64(a.rankSum) / float64(a.mentioned)
		}
		if a.sentimentN > 0 {
			row.AvgSentimentScore = float64(a.sentimentSum) / float64(a.sentimentN)
		}
		for _, p := range prompts {
			row.PromptsWithStats = append(row.PromptsWithStats, models.PromptStats{
				Prompt:    p,
				Total:     promptTotals[p],
				Mentioned: a.perPrompt[p],
				Rate:      Percentage(a.perPrompt[p], promptTotals[p]),
			})
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].VisibilityScore != rows[j].VisibilityScore {
			return rows[i].VisibilityScore > rows[j].VisibilityScore
		}
		if rows[i].IsSearchedBrand != rows[j].IsSearchedBrand {
			return rows[i].IsSearchedBrand
		}
		return rows[i].AvgRank < rows[j].AvgRank
	})

	return rows
}

// BrandSentiment returns the sentiment a result expressed about a specific brand.
// The searched brand of a brand report reads brand_sentiment; every other brand
// reads competitor_sentiments.
func (r *Resolver) BrandSentiment(res models.Result, name string) (models.Sentiment, bool) {
	return r.brandSentiment(res, name)
}

func (r *Resolver) brandSentiment(res models.Result, name string) (models.Sentiment, bool) {
	if r.IsSearchedBrand(name) {
		if res.BrandSentiment != nil && res.BrandSentiment.Scored() {
			return *res.BrandSentiment, true
		}
		return "", false
	}
	if s, ok := res.CompetitorSentiments[name]; ok && s.Scored() {
		return s, true
	}
	k := Key(name)
	for b, s := range res.CompetitorSentiments {
		if Key(b) == k && s.Scored() {
			return s, true
		}
	}
	return "", false
}
