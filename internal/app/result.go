package app

import (
	"time"

	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/scoring"
)

// AuditResult is what RunAudit hands back to callers.
type AuditResult struct {
	AuditID     string    `json:"auditId"`
	Cached      bool      `json:"cached"`
	SubjectName string    `json:"businessName"`
	Area        string    `json:"area,omitempty"`
	ResourceRef string    `json:"placeUrl,omitempty"`
	CapturedAt  time.Time `json:"scrapedAt"`

	model.ScoreBreakdown

	Facts            model.RawFacts `json:"facts"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`

	// Changes is set when a stale result for the same key was on record.
	Changes *scoring.Delta `json:"changes,omitempty"`
}
