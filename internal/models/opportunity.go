package models

// QuickWinType names the detector that produced an opportunity
type QuickWinType string

const (
	QuickWinPromptGap   QuickWinType = "prompt_gap"
	QuickWinProviderGap QuickWinType = "provider_gap"
	QuickWinSourceGap   QuickWinType = "source_gap"
)

// Severity ranks how urgent an opportunity is
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// QuickWin is one ranked improvement opportunity
type QuickWin struct {
	Type        QuickWinType `json:"type"`
	Severity    Severity     `json:"severity"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Action      string       `json:"action"`
	// Target is the prompt, provider or domain the opportunity is about
	Target               string   `json:"target"`
	BrandVisibility      float64  `json:"brand_visibility"`
	CompetitorVisibility float64  `json:"competitor_visibility"`
	Responses            int      `json:"responses"`
	Competitors          []string `json:"competitors,omitempty"`
	Score                float64  `json:"score"`
}
