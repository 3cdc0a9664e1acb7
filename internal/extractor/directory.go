package extractor

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/webclient"
)

// DirectoryChecker checks whether a business appears on the secondary
// directory.
type DirectoryChecker struct {
	cfg    DirectoryConfig
	client webclient.WebClient
	logger logging.Logger
}

func NewDirectoryChecker(cfg DirectoryConfig, client webclient.WebClient, logger logging.Logger) (*DirectoryChecker, error) {
	if client == nil {
		return nil, fmt.Errorf("directory check: nil webclient")
	}
	if !strings.Contains(cfg.SearchURLTemplate, "{query}") {
		return nil, fmt.Errorf("directory check: search_url_template %q has no {query} placeholder", cfg.SearchURLTemplate)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DirectoryChecker{cfg: cfg, client: client, logger: logger.With(logging.Component("directory_checker"))}, nil
}

// Check searches the directory for query. A 404 or a "no results" page is
// a clean negative; transport failures and other statuses are errors.
func (p *DirectoryChecker) Check(ctx context.Context, query string) (bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return false, fmt.Errorf("directory check: empty query")
	}
	target := fillTemplate(p.cfg.SearchURLTemplate, query)

	resp, err := p.client.Get(ctx, target)
	if err != nil {
		return false, fmt.Errorf("directory check %s: %w", target, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("directory check %s: status %d", target, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return false, fmt.Errorf("directory check %s: parse: %w", target, err)
	}
	if containsAny(doc.Find("body").Text(), p.cfg.NoResultsMarkers) {
		return false, nil
	}
	for _, sel := range p.cfg.ResultSelectors {
		if doc.Find(sel).Length() > 0 {
			return true, nil
		}
	}
	return false, nil
}
