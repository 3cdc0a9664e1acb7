// Package extractor fetches RawFacts for an audit request.
//
// Implementations must honour ctx cancellation, own and release every
// resource they acquire within a call, and fail with one of
// auditerr.CodeSubjectNotFound, auditerr.CodeExtractionTimeout or
// auditerr.CodeExtractionFailed.
package extractor

import (
	"context"

	"github.com/raysh454/bizaudit/internal/model"
)

// Extractor produces the facts for a single request.
type Extractor interface {
	Extract(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error)
}

// Func adapts a plain function to Extractor.
type Func func(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error)

func (f Func) Extract(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error) {
	return f(ctx, req)
}
