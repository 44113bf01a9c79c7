package recommendations

// ClassifierConfig holds the keyword tables used to grade impact and effort.
// High tables are consulted before low tables; no hit means medium.
type ClassifierConfig struct {
	HighImpact []string
	LowImpact  []string
	HighEffort []string
	LowEffort  []string
}

// DefaultClassifierConfig returns the stock keyword tables
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		HighImpact: []string{
			"significantly", "competitor", "dramatically", "substantial", "major",
			"critical", "double", "outperform", "dominate", "visibility gap",
		},
		LowImpact: []string{
			"minor", "slightly", "small", "marginal", "incremental", "nice-to-have",
		},
		HighEffort: []string{
			"partnership", "outreach", "campaign", "launch", "develop", "build",
			"research", "comprehensive", "overhaul", "program",
		},
		LowEffort: []string{
			"update", "optimize", "optimise", "add", "adjust", "refine", "tweak",
			"include", "ensure", "revise", "claim",
		},
	}
}

// Item caps per report type
const (
	MaxBrandItems    = 6
	MaxCategoryItems = 8
	MaxTactics       = 4
)
