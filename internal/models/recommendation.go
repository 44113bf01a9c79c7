package models

// Level is a high/medium/low classification
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Weight maps a level to 3/2/1
func (l Level) Weight() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// Classification is a level together with the reason it was chosen
type Classification struct {
	Level  Level  `json:"level"`
	Reason string `json:"reason"`
}

// Recommendation is a structured card parsed from narrative text
type Recommendation struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Impact      Classification `json:"impact"`
	Effort      Classification `json:"effort"`
	Tactics     []string       `json:"tactics"`
	// Score favours high impact and low effort (1..9)
	Score int `json:"score"`
}
