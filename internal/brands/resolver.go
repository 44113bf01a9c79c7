package brands

import (
	"strings"

	"github.com/azure/brand-visibility-engine/internal/models"
)

// CategoryNameFunc reports whether name is the category label of a category report
type CategoryNameFunc func(name, searchedBrand string) bool

// Options controls how brands are resolved for one run
type Options struct {
	SearchedBrand  string
	IsCategory     bool
	ExcludedBrands []string
	IsCategoryName CategoryNameFunc
}

// OptionsForRun builds Options from a run plus extra exclusions
func OptionsForRun(run models.RunStatusResponse, excluded []string) Options {
	return Options{
		SearchedBrand:  run.Brand,
		IsCategory:     run.IsCategory(),
		ExcludedBrands: excluded,
		IsCategoryName: DefaultIsCategoryName,
	}
}

// DefaultIsCategoryName matches the label itself and its singular/plural twin,
// ignoring case and surrounding whitespace.
func DefaultIsCategoryName(name, searchedBrand string) bool {
	n := Key(name)
	c := Key(searchedBrand)
	if n == "" || c == "" {
		return false
	}
	if n == c {
		return true
	}
	return strings.TrimSuffix(n, "s") == strings.TrimSuffix(c, "s")
}

// Key normalises a brand name for identity comparisons
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolver is the single source of per-result brand membership. Every ratio in
// the engine is derived from ResultBrands so numerators and denominators agree.
type Resolver struct {
	opts     Options
	searched string
	excluded map[string]bool
}

// NewResolver creates a resolver for one run
func NewResolver(opts Options) *Resolver {
	if opts.IsCategoryName == nil {
		opts.IsCategoryName = DefaultIsCategoryName
	}

	excluded := make(map[string]bool, len(opts.ExcludedBrands))
	for _, b := range opts.ExcludedBrands {
		if k := Key(b); k != "" {
			excluded[k] = true
		}
	}

	return &Resolver{
		opts:     opts,
		searched: Key(opts.SearchedBrand),
		excluded: excluded,
	}
}

// Options returns the options the resolver was built with
func (r *Resolver) Options() Options {
	return r.opts
}

// IsExcluded reports whether name is in the exclusion set
func (r *Resolver) IsExcluded(name string) bool {
	return r.excluded[Key(name)]
}

// IsSearchedBrand reports whether name is the searched brand of a brand report
func (r *Resolver) IsSearchedBrand(name string) bool {
	return !r.opts.IsCategory && r.searched != "" && Key(name) == r.searched
}

// Qualifies reports whether an array or sentiment-map entry may be counted as a brand.
// The searched brand of a brand report is counted through brand_mentioned only.
func (r *Resolver) Qualifies(name string) bool {
	k := Key(name)
	if k == "" || r.excluded[k] {
		return false
	}
	if r.opts.IsCategory {
		return !r.opts.IsCategoryName(name, r.opts.SearchedBrand)
	}
	return k != r.searched
}

// ResultBrands returns the definitive, de-duplicated list of brands a result counts toward
func (r *Resolver) ResultBrands(result models.Result) []string {
	var out []string
	seen := make(map[string]bool)

	if !r.opts.IsCategory && result.BrandMentioned && r.searched != "" && !r.excluded[r.searched] {
		out = append(out, strings.TrimSpace(r.opts.SearchedBrand))
		seen[r.searched] = true
	}

	for _, name := range result.BrandArray() {
		if !r.Qualifies(name) {
			continue
		}
		k := Key(name)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, strings.TrimSpace(name))
	}

	return out
}

// Mentions reports whether brand is among the result's counted brands
func (r *Resolver) Mentions(result models.Result, brand string) bool {
	k := Key(brand)
	for _, b := range r.ResultBrands(result) {
		if Key(b) == k {
			return true
		}
	}
	return false
}

// EligibleCount returns the number of non-error results
func (r *Resolver) EligibleCount(results []models.Result) int {
	n := 0
	for _, res := range results {
		if !res.Failed() {
			n++
		}
	}
	return n
}

// TotalMentionSlots is the share-of-voice denominator
func (r *Resolver) TotalMentionSlots(results []models.Result) int {
	slots := 0
	for _, res := range results {
		if res.Failed() {
			continue
		}
		slots += len(r.ResultBrands(res))
	}
	return slots
}

// MentionCount counts non-error results in which brand is present
func (r *Resolver) MentionCount(results []models.Result, brand string) int {
	count := 0
	for _, res := range results {
		if res.Failed() {
			continue
		}
		if r.Mentions(res, brand) {
			count++
		}
	}
	return count
}

// ShareOfVoice returns mentionCount/totalMentionSlots*100, or 0 without slots
func (r *Resolver) ShareOfVoice(results []models.Result, brand string) float64 {
	return Percentage(r.MentionCount(results, brand), r.TotalMentionSlots(results))
}

// Visibility returns the percentage of eligible results mentioning brand
func (r *Resolver) Visibility(results []models.Result, brand string) float64 {
	return Percentage(r.MentionCount(results, brand), r.EligibleCount(results))
}

// Brands lists every brand counted anywhere in the results, in first-seen order
func (r *Resolver) Brands(results []models.Result) []string {
	var out []string
	seen := make(map[string]bool)
	for _, res := range results {
		if res.Failed() {
			continue
		}
		for _, b := range r.ResultBrands(res) {
			k := Key(b)
			if !seen[k] {
				seen[k] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// Percentage returns n/d*100 and 0 when d is 0
func Percentage(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
