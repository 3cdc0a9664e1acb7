package extractor

import (
	"context"
	"fmt"

	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/utils"
	"github.com/raysh454/bizaudit/internal/webclient"
)

// CompositeExtractor runs the primary extractor and then, when a checker is
// configured, fills SecondaryListing from the directory. A failed check
// leaves the field absent and never fails the extraction.
type CompositeExtractor struct {
	primary Extractor
	checker *DirectoryChecker
	logger  logging.Logger
}

// NewCompositeExtractor wraps primary. checker may be nil.
func NewCompositeExtractor(primary Extractor, checker *DirectoryChecker, logger logging.Logger) (*CompositeExtractor, error) {
	if primary == nil {
		return nil, fmt.Errorf("composite extractor: nil primary")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CompositeExtractor{primary: primary, checker: checker, logger: logger.With(logging.Component("composite_extractor"))}, nil
}

func (c *CompositeExtractor) Extract(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error) {
	facts, err := c.primary.Extract(ctx, req)
	if err != nil {
		return nil, err
	}
	if c.checker == nil || facts == nil {
		return facts, nil
	}

	query := directoryQuery(req, facts)
	if query == "" {
		return facts, nil
	}
	found, err := c.checker.Check(ctx, query)
	if err != nil {
		c.logger.Warn("directory lookup failed", logging.F("query", query), logging.Err(err))
		return facts, nil
	}

	out := *facts
	out.SecondaryListing = model.Some(found)
	return &out, nil
}

// directoryQuery prefers the caller's identity and falls back to the
// extracted name for reference-only requests.
func directoryQuery(req model.AuditRequest, facts *model.RawFacts) string {
	if req.HasIdentity() {
		return searchText(req)
	}
	return utils.CollapseSpace(utils.FirstNonEmpty(req.SubjectName, facts.Name.OrElse("")) + " " + req.Area)
}

// New builds the reference extractor stack over a webclient.
func New(cfg Config, client webclient.WebClient, logger logging.Logger) (Extractor, error) {
	primary, err := NewListingExtractor(cfg, client, logger)
	if err != nil {
		return nil, err
	}
	var checker *DirectoryChecker
	if cfg.Directory.Enabled {
		checker, err = NewDirectoryChecker(cfg.Directory, client, logger)
		if err != nil {
			return nil, err
		}
	}
	c, err := NewCompositeExtractor(primary, checker, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}
