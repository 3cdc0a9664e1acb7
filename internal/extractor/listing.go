package extractor

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/utils"
	"github.com/raysh454/bizaudit/internal/webclient"
)

// ListingExtractor fetches the primary listing page and parses its facts.
// A search that lands on a results list follows the first result once.
type ListingExtractor struct {
	cfg    Config
	client webclient.WebClient
	parser *ListingParser
	logger logging.Logger
	now    func() time.Time
}

// NewListingExtractor builds an extractor fetching through client.
func NewListingExtractor(cfg Config, client webclient.WebClient, logger logging.Logger) (*ListingExtractor, error) {
	if client == nil {
		return nil, fmt.Errorf("listing extractor: nil webclient")
	}
	if !strings.Contains(cfg.SearchURLTemplate, "{query}") {
		return nil, fmt.Errorf("listing extractor: search_url_template %q has no {query} placeholder", cfg.SearchURLTemplate)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ListingExtractor{
		cfg:    cfg,
		client: client,
		parser: NewListingParser(cfg),
		logger: logger.With(logging.Component("listing_extractor")),
		now:    time.Now,
	}, nil
}

// TargetURL returns the URL fetched first for req.
func (e *ListingExtractor) TargetURL(req model.AuditRequest) (string, error) {
	// A direct reference bypasses the search even when a name is given.
	if req.HasRef() {
		return utils.CanonicalizeRef(req.ResourceRef)
	}
	return fillTemplate(e.cfg.SearchURLTemplate, searchText(req)), nil
}

func (e *ListingExtractor) Extract(ctx context.Context, req model.AuditRequest) (*model.RawFacts, error) {
	if e.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.AttemptTimeout)
		defer cancel()
	}

	target, err := e.TargetURL(req)
	if err != nil {
		return nil, auditerr.Wrap(err, auditerr.CodeExtractionFailed, "build listing url")
	}

	doc, final, err := e.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	if !e.parser.IsListing(doc) {
		if e.parser.IsNoResults(doc) {
			return nil, auditerr.New(auditerr.CodeSubjectNotFound, "no listing found for %s", req.Label())
		}
		next := e.parser.FirstResult(doc, final)
		if next == "" {
			return nil, auditerr.New(auditerr.CodeSubjectNotFound, "no listing found for %s", req.Label())
		}
		e.logger.Debug("following first search result", logging.F("url", next))
		doc, final, err = e.fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		if !e.parser.IsListing(doc) {
			return nil, auditerr.New(auditerr.CodeSubjectNotFound, "no listing found for %s", req.Label())
		}
	}

	facts := e.parser.Parse(doc, final)
	facts.CapturedAt = e.now().UTC()
	e.logger.Info("listing extracted",
		logging.F("subject", req.Label()),
		logging.F("name", facts.Name.OrElse("")))
	return &facts, nil
}

func (e *ListingExtractor) fetch(ctx context.Context, target string) (*goquery.Document, string, error) {
	resp, err := e.client.Get(ctx, target)
	if err != nil {
		return nil, "", classifyFetchErr(ctx, err, target)
	}
	if err := classifyStatus(resp.StatusCode, target); err != nil {
		return nil, "", err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, "", auditerr.New(auditerr.CodeExtractionFailed, "listing %s returned an empty body", target)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, "", auditerr.Wrap(err, auditerr.CodeExtractionFailed, "parse listing %s", target)
	}
	final := resp.FinalURL
	if final == "" {
		final = target
	}
	return doc, final, nil
}

func searchText(req model.AuditRequest) string {
	return utils.CollapseSpace(req.SubjectName + " " + req.Area)
}

func fillTemplate(tmpl, query string) string {
	return strings.ReplaceAll(tmpl, "{query}", url.QueryEscape(query))
}
