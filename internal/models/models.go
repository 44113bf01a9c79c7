package models

import "time"

// Provider identifies the language-model platform a prompt was sent to
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderAnthropic   Provider = "anthropic"
	ProviderGemini      Provider = "gemini"
	ProviderPerplexity  Provider = "perplexity"
	ProviderAIOverviews Provider = "ai_overviews"
	ProviderGrok        Provider = "grok"
	ProviderLlama       Provider = "llama"
)

// SearchType distinguishes single-brand reports from category reports
type SearchType string

const (
	SearchTypeBrand    SearchType = "brand"
	SearchTypeCategory SearchType = "category"
)

// Source is a citation attached to a result
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Result is the outcome of one prompt sent to one provider
type Result struct {
	ID                   string               `json:"id"`
	Provider             Provider             `json:"provider"`
	Prompt               string               `json:"prompt"`
	ResponseText         *string              `json:"response_text"`
	Error                *string              `json:"error,omitempty"`
	BrandMentioned       bool                 `json:"brand_mentioned"`
	CompetitorsMentioned []string             `json:"competitors_mentioned"`
	AllBrandsMentioned   []string             `json:"all_brands_mentioned"`
	BrandSentiment       *Sentiment           `json:"brand_sentiment"`
	CompetitorSentiments map[string]Sentiment `json:"competitor_sentiments"`
	Sources              []Source             `json:"sources"`
}

// Failed reports whether the result carries an error marker
func (r Result) Failed() bool {
	return r.Error != nil
}

// Text returns the response text, or "" when the provider returned nothing
func (r Result) Text() string {
	if r.ResponseText == nil {
		return ""
	}
	return *r.ResponseText
}

// BrandArray returns all_brands_mentioned when populated, otherwise competitors_mentioned.
// The two fields are never merged.
func (r Result) BrandArray() []string {
	if len(r.AllBrandsMentioned) > 0 {
		return r.AllBrandsMentioned
	}
	return r.CompetitorsMentioned
}

// RunStatusResponse is one full analysis run
type RunStatusResponse struct {
	Brand      string     `json:"brand"`
	SearchType SearchType `json:"search_type"`
	Results    []Result   `json:"results"`
}

// IsCategory reports whether the run describes a category rather than a single brand
func (r RunStatusResponse) IsCategory() bool {
	return r.SearchType == SearchTypeCategory
}

// PromptStats is the per-prompt mention breakdown for one brand
type PromptStats struct {
	Prompt    string  `json:"prompt"`
	Total     int     `json:"total"`
	Mentioned int     `json:"mentioned"`
	Rate      float64 `json:"rate"`
}

// BrandBreakdownRow is the canonical per-brand aggregate
type BrandBreakdownRow struct {
	Brand             string        `json:"brand"`
	IsSearchedBrand   bool          `json:"isSearchedBrand"`
	Total             int           `json:"total"`
	Mentioned         int           `json:"mentioned"`
	VisibilityScore   float64       `json:"visibilityScore"`
	ShareOfVoice      float64       `json:"shareOfVoice"`
	FirstPositionRate float64       `json:"firstPositionRate"`
	AvgRank           float64       `json:"avgRank"`
	AvgSentimentScore float64       `json:"avgSentimentScore"`
	PromptsWithStats  []PromptStats `json:"promptsWithStats"`
}

// AnalysisRequest is the unit of work handed to the engine
type AnalysisRequest struct {
	Run            RunStatusResponse `json:"run"`
	ExcludedBrands []string          `json:"excluded_brands,omitempty"`
	// Summary is model-written analysis prose to be corrected against the canonical rows
	Summary string `json:"summary,omitempty"`
	// Recommendations is model-written recommendation prose; RecommendationItems is the
	// pre-structured alternative and wins when both are present.
	Recommendations     string   `json:"recommendations,omitempty"`
	RecommendationItems []string `json:"recommendation_items,omitempty"`
}

// Report is the full computed output of one analysis
type Report struct {
	ID                string              `json:"id"`
	GeneratedAt       time.Time           `json:"generated_at"`
	Brand             string              `json:"brand"`
	SearchType        SearchType          `json:"search_type"`
	TotalResults      int                 `json:"total_results"`
	ErroredResults    int                 `json:"errored_results"`
	TotalMentionSlots int                 `json:"total_mention_slots"`
	Breakdown         []BrandBreakdownRow `json:"breakdown"`
	Sentiment         SentimentSummary    `json:"sentiment"`
	QuickWins         []QuickWin          `json:"quick_wins"`
	Recommendations   []Recommendation    `json:"recommendations"`
	CorrectedSummary  string              `json:"corrected_summary,omitempty"`
}

// Alert represents an urgent notification
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Brand     string    `json:"brand"`
	QuickWin  *QuickWin `json:"quick_win,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
