package model

import "time"

// CacheEntry is a stored audit outcome. CapturedAt decides freshness.
type CacheEntry struct {
	Key        string         `json:"key"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Facts      RawFacts       `json:"facts"`
	CapturedAt time.Time      `json:"capturedAt"`
}
