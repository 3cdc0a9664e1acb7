package server

import (
	"time"

	"github.com/raysh454/bizaudit/internal/app"
	"github.com/raysh454/bizaudit/internal/scheduler"
)

// AuditRequest is the body of POST /api/audit. Either placeUrl or both
// businessName and area are required.
type AuditRequest struct {
	BusinessName string `json:"businessName" example:"Blue Door Cafe"`
	Area         string `json:"area" example:"Park Street, Kolkata"`
	PlaceURL     string `json:"placeUrl,omitempty" example:"https://www.google.com/maps/place/Blue+Door+Cafe"`
}

// AuditResponse wraps a successful audit.
type AuditResponse struct {
	Success bool `json:"success" example:"true"`
	*app.AuditResult
}

// ErrorResponse is the uniform error payload. RetryAfter is in seconds and
// only set for retryable failures.
type ErrorResponse struct {
	Success    bool   `json:"success" example:"false"`
	Error      string `json:"error" example:"QUEUE_FULL"`
	Message    string `json:"message" example:"High load, please retry in 120 seconds"`
	RetryAfter int    `json:"retryAfter,omitempty" example:"120"`
}

// QueueStatusResponse reports the scheduler snapshot.
type QueueStatusResponse struct {
	Success bool            `json:"success" example:"true"`
	Queue   scheduler.Stats `json:"queue"`
}

// QueueControlResponse is returned by the pause, resume and clear controls.
type QueueControlResponse struct {
	Success bool `json:"success" example:"true"`
	Paused  bool `json:"paused"`
	Dropped int  `json:"dropped,omitempty" example:"3"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status string    `json:"status" example:"ok"`
	Time   time.Time `json:"time"`
}
