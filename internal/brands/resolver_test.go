package brands

import (
	"testing"

	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestResolver_ResultBrands(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		result   models.Result
		expected []string
	}{
		{
			name:     "searched brand counted via flag",
			opts:     Options{SearchedBrand: "Nike"},
			result:   models.Result{BrandMentioned: true, CompetitorsMentioned: []string{"Adidas"}},
			expected: []string{"Nike", "Adidas"},
		},
		{
			name:     "searched brand in array is not double counted",
			opts:     Options{SearchedBrand: "Nike"},
			result:   models.Result{BrandMentioned: true, AllBrandsMentioned: []string{"nike", "Adidas"}},
			expected: []string{"Nike", "Adidas"},
		},
		{
			name:     "searched brand in array without flag is ignored",
			opts:     Options{SearchedBrand: "Nike"},
			result:   models.Result{BrandMentioned: false, AllBrandsMentioned: []string{"Nike", "Puma"}},
			expected: []string{"Puma"},
		},
		{
			name:     "all_brands_mentioned wins over competitors_mentioned",
			opts:     Options{SearchedBrand: "Nike"},
			result:   models.Result{CompetitorsMentioned: []string{"Reebok"}, AllBrandsMentioned: []string{"Puma"}},
			expected: []string{"Puma"},
		},
		{
			name:     "excluded brands dropped",
			opts:     Options{SearchedBrand: "Nike", ExcludedBrands: []string{"Nike", "Puma"}},
			result:   models.Result{BrandMentioned: true, AllBrandsMentioned: []string{"Puma", "Asics"}},
			expected: []string{"Asics"},
		},
		{
			name:     "category flag is never a brand signal",
			opts:     Options{SearchedBrand: "running shoes", IsCategory: true},
			result:   models.Result{BrandMentioned: true, AllBrandsMentioned: []string{"Running Shoes", "Hoka", "Hoka"}},
			expected: []string{"Hoka"},
		},
		{
			name:     "duplicates collapse",
			opts:     Options{SearchedBrand: "Nike"},
			result:   models.Result{AllBrandsMentioned: []string{"Adidas", "adidas ", "Adidas"}},
			expected: []string{"Adidas"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.opts)
			assert.Equal(t, tt.expected, r.ResultBrands(tt.result))
		})
	}
}

func TestResolver_EndToEndScenario(t *testing.T) {
	results := []models.Result{
		{Provider: models.ProviderOpenAI, BrandMentioned: true},
		{Provider: models.ProviderOpenAI, BrandMentioned: false, CompetitorsMentioned: []string{"Adidas"}},
	}
	r := NewResolver(Options{SearchedBrand: "Nike"})

	assert.Equal(t, 50.0, r.Visibility(results, "Nike"))
	assert.Equal(t, 2, r.TotalMentionSlots(results))
	assert.Equal(t, 50.0, r.ShareOfVoice(results, "Nike"))
	assert.Equal(t, 50.0, r.ShareOfVoice(results, "Adidas"))

	rows := r.Breakdown(results)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, r.ShareOfVoice(results, row.Brand), row.ShareOfVoice)
		assert.Equal(t, r.Visibility(results, row.Brand), row.VisibilityScore)
	}
}

func TestResolver_SlotsEqualSumOfMentions(t *testing.T) {
	results := []models.Result{
		{BrandMentioned: true, AllBrandsMentioned: []string{"Nike", "Adidas", "Puma"}},
		{BrandMentioned: false, CompetitorsMentioned: []string{"Adidas", "Asics"}},
		{BrandMentioned: true},
		{Error: strPtr("timeout"), BrandMentioned: true, AllBrandsMentioned: []string{"Hoka"}},
		{AllBrandsMentioned: []string{"Puma", "puma", "Noise"}},
	}
	r := NewResolver(Options{SearchedBrand: "Nike", ExcludedBrands: []string{"Noise"}})

	total := 0
	sov := 0.0
	for _, b := range r.Brands(results) {
		total += r.MentionCount(results, b)
		s := r.ShareOfVoice(results, b)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
		sov += s
	}
	assert.Equal(t, r.TotalMentionSlots(results), total)
	assert.InDelta(t, 100.0, sov, 1e-9)
	assert.NotContains(t, r.Brands(results), "Hoka")
}

func TestResolver_ZeroDenominators(t *testing.T) {
	r := NewResolver(Options{SearchedBrand: "Nike"})
	failed := []models.Result{{Error: strPtr("boom"), BrandMentioned: true}}

	assert.Equal(t, 0.0, r.Visibility(nil, "Nike"))
	assert.Equal(t, 0.0, r.ShareOfVoice(failed, "Nike"))

	rows := r.Breakdown(failed)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Total)
	assert.Equal(t, 0.0, rows[0].VisibilityScore)
	assert.Equal(t, 0.0, rows[0].AvgRank)
}

func TestDefaultIsCategoryName(t *testing.T) {
	assert.True(t, DefaultIsCategoryName("Running Shoes", "running shoes"))
	assert.True(t, DefaultIsCategoryName("running shoe", "running shoes"))
	assert.False(t, DefaultIsCategoryName("Hoka", "running shoes"))
	assert.False(t, DefaultIsCategoryName("", "running shoes"))
}
