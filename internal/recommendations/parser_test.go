package recommendations

import (
	"fmt"
	"strings"
	"testing"

	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/azure/brand-visibility-engine/internal/narrative"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProse = "## Recommendations\n\n" +
	"1. **Publish comparison pages**: Create pages that compare Nike with Adidas.\n" +
	"   - Add a pricing table\n" +
	"   - Update product FAQs\n" +
	"2. Improve review coverage - Encourage customers to leave reviews.\n\n" +
	"Launch a comprehensive partnership program with running clubs. It will take time."

func TestSplitParagraphs(t *testing.T) {
	paragraphs := SplitParagraphs(sampleProse)

	require.Len(t, paragraphs, 3)
	assert.True(t, strings.HasPrefix(paragraphs[0], "1. **Publish"))
	assert.Contains(t, paragraphs[0], "Update product FAQs")
	assert.True(t, strings.HasPrefix(paragraphs[1], "2. Improve"))
	assert.True(t, strings.HasPrefix(paragraphs[2], "Launch"))
}

func TestParser_ParseText(t *testing.T) {
	p := NewParser(DefaultClassifierConfig(), false, nil, narrative.DefaultOptions())
	recs := p.ParseText(sampleProse)
	require.Len(t, recs, 3)

	bold := recs[0]
	assert.Equal(t, "Publish comparison pages", bold.Title)
	assert.Equal(t, "Create pages that compare Nike with Adidas.", bold.Description)
	assert.Equal(t, []string{"Add a pricing table", "Update product FAQs"}, bold.Tactics)
	assert.Equal(t, models.LevelMedium, bold.Impact.Level)
	assert.Equal(t, models.LevelLow, bold.Effort.Level)
	assert.Contains(t, bold.Effort.Reason, `"update"`)
	assert.Equal(t, 6, bold.Score)

	phrase := recs[1]
	assert.Equal(t, "Improve review coverage", phrase.Title)
	assert.Equal(t, "Encourage customers to leave reviews.", phrase.Description)
	assert.Empty(t, phrase.Tactics)
	assert.Equal(t, 4, phrase.Score)

	sentence := recs[2]
	assert.Equal(t, "Launch a comprehensive partnership program with running clubs", sentence.Title)
	assert.Equal(t, "It will take time.", sentence.Description)
	assert.Equal(t, models.LevelHigh, sentence.Effort.Level)
	assert.Equal(t, 2, sentence.Score)
}

func TestParser_Caps(t *testing.T) {
	var items []string
	for i := 0; i < 10; i++ {
		items = append(items, fmt.Sprintf("**Action %d**: Do the thing number %d.", i, i))
	}

	brand := NewParser(DefaultClassifierConfig(), false, nil, narrative.DefaultOptions())
	assert.Len(t, brand.ParseItems(items), MaxBrandItems)

	category := NewParser(DefaultClassifierConfig(), true, nil, narrative.DefaultOptions())
	assert.Len(t, category.ParseItems(items), MaxCategoryItems)
}

func TestParser_CategoryCorrection(t *testing.T) {
	rows := []models.BrandBreakdownRow{{Brand: "Nike", Mentioned: 7, Total: 10, VisibilityScore: 70, ShareOfVoice: 50}}
	item := "**Own comparison queries**: Nike (40%) trails in comparisons.\n- Nike (40%) needs FAQ pages"

	category := NewParser(DefaultClassifierConfig(), true, rows, narrative.DefaultOptions())
	recs := category.ParseItems([]string{item})
	require.Len(t, recs, 1)
	assert.Equal(t, "Nike (70.0%) trails in comparisons.", recs[0].Description)
	assert.Equal(t, []string{"Nike (70.0%) needs FAQ pages"}, recs[0].Tactics)

	brand := NewParser(DefaultClassifierConfig(), false, rows, narrative.DefaultOptions())
	recs = brand.ParseItems([]string{item})
	require.Len(t, recs, 1)
	assert.Equal(t, "Nike (40%) trails in comparisons.", recs[0].Description)
}

func TestExtract_HeadingTitle(t *testing.T) {
	title, description, tactics := Extract("### Strengthen reviews\nAsk customers for reviews on retail sites.")
	assert.Equal(t, "Strengthen reviews", title)
	assert.Equal(t, "Ask customers for reviews on retail sites.", description)
	assert.Empty(t, tactics)
}

func TestExtract_SentenceTactics(t *testing.T) {
	_, _, tactics := Extract("Refresh product pages. Add structured data to listings. Publish sizing guides monthly.")
	assert.Equal(t, []string{"Add structured data to listings.", "Publish sizing guides monthly."}, tactics)
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"decimal kept", "Nike holds 58.3% visibility. Improve content.", []string{"Nike holds 58.3% visibility.", "Improve content."}},
		{"abbreviations kept", "Compare vs. Adidas e.g. on price. Then act!", []string{"Compare vs. Adidas e.g. on price.", "Then act!"}},
		{"lowercase continuation", "Version 2. is out", []string{"Version 2. is out"}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitSentences(tt.input))
		})
	}
}

func TestFirstKeyword(t *testing.T) {
	kw, ok := firstKeyword("build partnerships with clubs", []string{"partnership"})
	assert.True(t, ok)
	assert.Equal(t, "partnership", kw)

	_, ok = firstKeyword("rebuild the site", []string{"build"})
	assert.False(t, ok)
}
