package models

// Sentiment is the categorical judgment a provider gave about a brand
type Sentiment string

const (
	SentimentStrongEndorsement   Sentiment = "strong_endorsement"
	SentimentPositiveEndorsement Sentiment = "positive_endorsement"
	SentimentNeutralMention      Sentiment = "neutral_mention"
	SentimentConditional         Sentiment = "conditional"
	SentimentNegativeComparison  Sentiment = "negative_comparison"
	SentimentNotMentioned        Sentiment = "not_mentioned"
)

// RankedSentiments lists the scored labels in ascending ordinal order.
// Nearest-label rounding walks this slice, so on an exact midpoint the lower label wins.
var RankedSentiments = []Sentiment{
	SentimentNegativeComparison,
	SentimentConditional,
	SentimentNeutralMention,
	SentimentPositiveEndorsement,
	SentimentStrongEndorsement,
}

// Score returns the ordinal value used for averaging. Unknown and not_mentioned are 0.
func (s Sentiment) Score() int {
	switch s {
	case SentimentStrongEndorsement:
		return 5
	case SentimentPositiveEndorsement:
		return 4
	case SentimentNeutralMention:
		return 3
	case SentimentConditional:
		return 2
	case SentimentNegativeComparison:
		return 1
	default:
		return 0
	}
}

// Scored reports whether the label carries a usable ordinal value
func (s Sentiment) Scored() bool {
	return s.Score() > 0
}

// SentimentInsights summarises the effective sentiment of every counted result
type SentimentInsights struct {
	Total         int               `json:"total"`
	Distribution  map[Sentiment]int `json:"distribution"`
	PositiveShare float64           `json:"positive_share"`
	NegativeShare float64           `json:"negative_share"`
	AverageScore  float64           `json:"average_score"`
	Dominant      Sentiment         `json:"dominant,omitempty"`
}

// ProviderSentimentRow is the sentiment reduction for one provider
type ProviderSentimentRow struct {
	Provider     Provider          `json:"provider"`
	Total        int               `json:"total"`
	Distribution map[Sentiment]int `json:"distribution"`
	AverageScore float64           `json:"average_score"`
	Label        Sentiment         `json:"label,omitempty"`
}

// BrandSentimentRow is the sentiment reduction for one brand
type BrandSentimentRow struct {
	Brand           string            `json:"brand"`
	IsSearchedBrand bool              `json:"is_searched_brand"`
	Total           int               `json:"total"`
	Distribution    map[Sentiment]int `json:"distribution"`
	AverageScore    float64           `json:"average_score"`
	Label           Sentiment         `json:"label,omitempty"`
}

// PivotCell is one provider x brand intersection
type PivotCell struct {
	Count        int       `json:"count"`
	AverageScore float64   `json:"average_score"`
	Label        Sentiment `json:"label,omitempty"`
}

// SentimentPivot is the provider x brand (or provider x category) matrix
type SentimentPivot struct {
	Providers []Provider                        `json:"providers"`
	Columns   []string                          `json:"columns"`
	Cells     map[Provider]map[string]PivotCell `json:"cells"`
}

// SentimentSummary bundles all sentiment outputs of a report
type SentimentSummary struct {
	Insights   SentimentInsights      `json:"insights"`
	ByProvider []ProviderSentimentRow `json:"by_provider"`
	ByBrand    []BrandSentimentRow    `json:"by_brand"`
	Pivot      SentimentPivot         `json:"pivot"`
}
