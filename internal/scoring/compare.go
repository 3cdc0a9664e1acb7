package scoring

import (
	"strings"

	"github.com/raysh454/bizaudit/internal/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Delta describes how a breakdown moved relative to an earlier one.
type Delta struct {
	PreviousScore int        `json:"previousScore"`
	CurrentScore  int        `json:"currentScore"`
	Delta         int        `json:"delta"`
	PreviousTier  model.Tier `json:"previousTier"`
	CurrentTier   model.Tier `json:"currentTier"`
	Added         []string   `json:"added"`
	Removed       []string   `json:"removed"`
}

// Changed reports whether anything differs.
func (d Delta) Changed() bool {
	return d.Delta != 0 || len(d.Added) > 0 || len(d.Removed) > 0
}

// Compare diffs the explanatory lines of prev and next line by line.
// Lines are rendered as "<category>: <text>".
func Compare(prev, next model.ScoreBreakdown) Delta {
	d := Delta{
		PreviousScore: prev.TotalScore,
		CurrentScore:  next.TotalScore,
		Delta:         next.TotalScore - prev.TotalScore,
		PreviousTier:  prev.StatusTier,
		CurrentTier:   next.StatusTier,
		Added:         []string{},
		Removed:       []string{},
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(render(prev), render(next))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, df := range diffs {
		switch df.Type {
		case diffmatchpatch.DiffInsert:
			d.Added = append(d.Added, splitLines(df.Text)...)
		case diffmatchpatch.DiffDelete:
			d.Removed = append(d.Removed, splitLines(df.Text)...)
		}
	}
	return d
}

func render(b model.ScoreBreakdown) string {
	var sb strings.Builder
	for _, c := range b.Categories {
		for _, l := range c.Lines {
			sb.WriteString(c.Name)
			sb.WriteString(": ")
			sb.WriteString(l.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
