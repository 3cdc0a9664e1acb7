package demoserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/demoserver"
	"github.com/raysh454/bizaudit/internal/extractor"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/scoring"
	"github.com/raysh454/bizaudit/internal/webclient"
)

func newDemo(t *testing.T) (*demoserver.DemoServer, *httptest.Server, extractor.Extractor) {
	t.Helper()
	ds := demoserver.NewDemoServer(demoserver.DefaultConfig(), logging.NewNopLogger())
	ts := httptest.NewServer(ds.Handler())
	t.Cleanup(ts.Close)

	wc, err := webclient.NewNetHTTPClient(webclient.DefaultConfig(), logging.NewNopLogger(), ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	cfg := extractor.DefaultConfig()
	cfg.SearchURLTemplate = ts.URL + "/maps/search/{query}"
	cfg.Directory.SearchURLTemplate = ts.URL + "/directory/search?q={query}"
	ex, err := extractor.New(cfg, wc, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("extractor.New: %v", err)
	}
	return ds, ts, ex
}

var blueDoor = model.AuditRequest{SubjectName: "Blue Door Cafe", Area: "Park Street, Kolkata"}

func TestDemo_WellKeptListingScoresFull(t *testing.T) {
	t.Parallel()
	_, ts, ex := newDemo(t)

	facts, err := ex.Extract(context.Background(), blueDoor)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := facts.ListingURL.OrElse(""); got != ts.URL+"/maps/place/blue-door-cafe" {
		t.Errorf("ListingURL = %q", got)
	}
	if !facts.SecondaryListing.OrElse(false) {
		t.Error("expected directory listing")
	}
	b := scoring.Score(*facts)
	if b.TotalScore != 100 || b.StatusTier != model.TierSuccess {
		t.Fatalf("score = %d %s, want 100 success: %+v", b.TotalScore, b.StatusTier, b.Categories)
	}
}

func TestDemo_VersionSwitchShowsUpInCompare(t *testing.T) {
	t.Parallel()
	ds, _, ex := newDemo(t)

	before, err := ex.Extract(context.Background(), blueDoor)
	if err != nil {
		t.Fatalf("Extract v1: %v", err)
	}
	if !ds.SetVersion("blue-door-cafe", 2) {
		t.Fatal("SetVersion refused version 2")
	}
	after, err := ex.Extract(context.Background(), blueDoor)
	if err != nil {
		t.Fatalf("Extract v2: %v", err)
	}

	d := scoring.Compare(scoring.Score(*before), scoring.Score(*after))
	if d.CurrentScore != 60 || d.Delta != -40 {
		t.Fatalf("delta = %+v, want 60 (-40)", d)
	}
	if len(d.Added) == 0 || len(d.Removed) == 0 {
		t.Errorf("expected added and removed lines, got %+v", d)
	}
}

func TestDemo_UnclaimedListing(t *testing.T) {
	t.Parallel()
	_, _, ex := newDemo(t)

	facts, err := ex.Extract(context.Background(), model.AuditRequest{SubjectName: "Corner Shop", Area: "Salt Lake"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if claimed, ok := facts.IsClaimed.Get(); !ok || claimed {
		t.Errorf("IsClaimed = %v, %v", claimed, ok)
	}
	if listed, ok := facts.SecondaryListing.Get(); !ok || listed {
		t.Errorf("SecondaryListing = %v, %v", listed, ok)
	}
	if b := scoring.Score(*facts); b.StatusTier != model.TierDanger {
		t.Errorf("tier = %s, want danger", b.StatusTier)
	}
}

func TestDemo_UnknownBusinessIsNotFound(t *testing.T) {
	t.Parallel()
	_, _, ex := newDemo(t)

	_, err := ex.Extract(context.Background(), model.AuditRequest{SubjectName: "Nowhere Cafe", Area: "Atlantis"})
	if !auditerr.Is(err, auditerr.CodeSubjectNotFound) {
		t.Fatalf("err = %v, want SUBJECT_NOT_FOUND", err)
	}
}

func TestDemo_UnknownPlaceIs404(t *testing.T) {
	t.Parallel()
	_, ts, ex := newDemo(t)

	_, err := ex.Extract(context.Background(), model.AuditRequest{ResourceRef: ts.URL + "/maps/place/missing"})
	if !auditerr.Is(err, auditerr.CodeSubjectNotFound) {
		t.Fatalf("err = %v, want SUBJECT_NOT_FOUND", err)
	}
}

func TestDemo_ControlEndpoints(t *testing.T) {
	t.Parallel()
	ds, ts, _ := newDemo(t)
	client := ts.Client()

	resp, err := client.PostForm(ts.URL+"/demo/set-version", url.Values{"slug": {"blue-door-cafe"}, "version": {"2"}})
	if err != nil {
		t.Fatalf("set-version: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || ds.Version("blue-door-cafe") != 2 {
		t.Fatalf("status %d, version %d", resp.StatusCode, ds.Version("blue-door-cafe"))
	}

	resp, err = client.PostForm(ts.URL+"/demo/set-version", url.Values{"slug": {"blue-door-cafe"}, "version": {"9"}})
	if err != nil {
		t.Fatalf("set-version: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("undefined version status = %d, want 404", resp.StatusCode)
	}

	resp, err = client.Post(ts.URL+"/demo/reset", "text/plain", strings.NewReader(""))
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	resp.Body.Close()
	if ds.Version("blue-door-cafe") != 1 {
		t.Errorf("version after reset = %d", ds.Version("blue-door-cafe"))
	}

	resp, err = client.Get(ts.URL + "/demo/control")
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("control status = %d", resp.StatusCode)
	}
}
