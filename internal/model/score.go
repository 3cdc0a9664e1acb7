package model

// Tier grades a single explanatory line or a whole breakdown.
type Tier string

const (
	TierSuccess Tier = "success"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

// Line is one explanatory entry appended by exactly one scoring rule.
type Line struct {
	Tier Tier   `json:"tier"`
	Text string `json:"text"`
}

// Category groups the rules for one surface. Earned never exceeds Max.
type Category struct {
	Name   string `json:"name"`
	Earned int    `json:"score"`
	Max    int    `json:"maxScore"`
	Lines  []Line `json:"details"`
}

// ScoreBreakdown is derived deterministically from RawFacts.
type ScoreBreakdown struct {
	TotalScore    int        `json:"totalScore"`
	Categories    []Category `json:"categories"`
	StatusTier    Tier       `json:"statusTier"`
	StatusMessage string     `json:"statusMessage"`
}

// Category returns the category called name, if present.
func (b ScoreBreakdown) Category(name string) (Category, bool) {
	for _, c := range b.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
