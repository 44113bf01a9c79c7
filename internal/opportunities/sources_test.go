package opportunities

import (
	"math"
	"testing"

	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSources(r models.Result, urls ...string) models.Result {
	for _, u := range urls {
		r.Sources = append(r.Sources, models.Source{URL: u})
	}
	return r
}

func TestDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"www stripped to registrable domain", "https://www.runnersworld.com/gear", "runnersworld.com", false},
		{"multi-part suffix", "https://reviews.example.co.uk/a?b=c", "example.co.uk", false},
		{"missing scheme", "nike.com/shoes", "nike.com", false},
		{"ip address", "http://10.0.0.1/x", "10.0.0.1", false},
		{"malformed", "://bad url", "", true},
		{"bare suffix", "https://localhost", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Domain(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCitedDomains_FallsBackToResponseText(t *testing.T) {
	text := "See https://blog.runnersworld.com/c and https://www.runnersworld.com/d for more."
	r := models.Result{ResponseText: &text}
	assert.Equal(t, []string{"runnersworld.com"}, CitedDomains(r))

	r = withSources(r, "https://nike.com/x")
	assert.Equal(t, []string{"nike.com"}, CitedDomains(r), "sources win over text")
}

func TestDetector_SourceGaps(t *testing.T) {
	text := "Read https://blog.runnersworld.com/c for more"
	fromText := result(models.ProviderOpenAI, "p", false, "Adidas", "Asics")
	fromText.ResponseText = &text

	results := []models.Result{
		withSources(result(models.ProviderOpenAI, "p", false, "Adidas"), "https://www.runnersworld.com/a"),
		withSources(result(models.ProviderOpenAI, "p", false, "Puma"), "https://runnersworld.com/b"),
		fromText,
		withSources(result(models.ProviderOpenAI, "p", false, "Adidas"), "://bad url"),
		withSources(result(models.ProviderOpenAI, "p", true, "Adidas"), "https://nike.com/x"),
		withSources(result(models.ProviderGemini, "p", true, "Adidas"), "https://reviews.example.co.uk/1"),
		withSources(result(models.ProviderGemini, "p", false, "Puma"), "https://reviews.example.co.uk/2"),
		withSources(result(models.ProviderGemini, "p", false, "Asics"), "https://example.co.uk/3"),
	}

	wins := nikeDetector().SourceGaps(results)
	require.Len(t, wins, 1, "example.co.uk cites the brand once and is not a gap")

	win := wins[0]
	assert.Equal(t, models.QuickWinSourceGap, win.Type)
	assert.Equal(t, "runnersworld.com", win.Target)
	assert.Equal(t, models.SeverityMedium, win.Severity)
	assert.Equal(t, 3, win.Responses)
	assert.Equal(t, []string{"Adidas", "Asics", "Puma"}, win.Competitors)
	assert.InDelta(t, 100.0, win.CompetitorVisibility, 0.001)

	expected := 0.5 + math.Log(3)/math.Log(20) + 0.6 + 0.3
	assert.InDelta(t, expected, win.Score, 1e-9)
}
