// Package demoserver serves fictional business listings, search results and
// directory pages shaped like the real sources, so the audit pipeline can be
// exercised end to end without touching the public web.
package demoserver

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/bizaudit/internal/logging"
)

var (
	resultsTmpl   = template.Must(template.New("results").Parse(resultsHTML))
	noResultsTmpl = template.Must(template.New("none").Parse(noResultsHTML))
	directoryTmpl = template.Must(template.New("directory").Parse(directoryHTML))
	controlTmpl   = template.Must(template.New("control").Parse(controlPanelHTML))
)

// DemoServer serves the demo listings with switchable versions.
type DemoServer struct {
	cfg      Config
	listings map[string]Listing
	order    []string
	versions map[string]int // slug -> current version
	mu       sync.RWMutex
	logger   logging.Logger
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.InitialVersion < 1 {
		cfg.InitialVersion = 1
	}
	s := &DemoServer{
		cfg:      cfg,
		listings: make(map[string]Listing),
		versions: make(map[string]int),
		logger:   logger.With(logging.Component("demoserver")),
	}
	for _, l := range AllListings() {
		s.listings[l.Slug] = l
		s.order = append(s.order, l.Slug)
		s.versions[l.Slug] = cfg.InitialVersion
	}
	return s
}

// Handler returns the routes of the demo server.
//
//	GET  /maps/search/{query}   search results or the no-results page
//	GET  /maps/place/{slug}     listing page at its current version
//	GET  /directory/search?q=   secondary directory search
//	GET  /demo/control          control panel
//	GET  /demo/versions         current versions as JSON
//	POST /demo/set-version      form values slug and version
//	POST /demo/reset            every listing back to version 1
func (s *DemoServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/maps/search/{query}", s.searchHandler)
	r.Get("/maps/place/{slug}", s.placeHandler)
	r.Get("/directory/search", s.directoryHandler)
	r.Get("/demo/control", s.controlPanelHandler)
	r.Get("/demo/versions", s.versionsHandler)
	r.Post("/demo/set-version", s.setVersionHandler)
	r.Post("/demo/reset", s.resetHandler)
	r.Get("/static/*", s.staticHandler)
	return r
}

// Start listens on cfg.Addr until the listener fails.
func (s *DemoServer) Start() error {
	s.logger.Info("demo server starting",
		logging.F("addr", s.cfg.Addr),
		logging.F("control_panel", "/demo/control"))
	return http.ListenAndServe(s.cfg.Addr, s.Handler())
}

// Version returns the current version of slug, 0 when unknown.
func (s *DemoServer) Version(slug string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[slug]
}

// SetVersion switches slug to version. It reports false for an unknown slug
// or a version the listing does not define.
func (s *DemoServer) SetVersion(slug string, version int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[slug]
	if !ok {
		return false
	}
	if _, ok := l.Versions[version]; !ok {
		return false
	}
	s.versions[slug] = version
	return true
}

func (s *DemoServer) find(query string) []Listing {
	var out []Listing
	for _, slug := range s.order {
		if l := s.listings[slug]; l.matches(query) {
			out = append(out, l)
		}
	}
	return out
}

func (s *DemoServer) searchHandler(w http.ResponseWriter, r *http.Request) {
	query, err := url.QueryUnescape(chi.URLParam(r, "query"))
	if err != nil {
		http.Error(w, "bad query", http.StatusBadRequest)
		return
	}
	found := s.find(query)
	s.logger.Debug("search", logging.F("query", query), logging.F("results", len(found)))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if len(found) == 0 {
		_ = noResultsTmpl.Execute(w, query)
		return
	}
	_ = resultsTmpl.Execute(w, found)
}

func (s *DemoServer) placeHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.mu.RLock()
	l, ok := s.listings[slug]
	version := s.versions[slug]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Fall back to the closest lower version.
	page, ok := l.Versions[version]
	for v := version - 1; !ok && v >= 1; v-- {
		page, ok = l.Versions[v]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

func (s *DemoServer) directoryHandler(w http.ResponseWriter, r *http.Request) {
	var listed []Listing
	for _, l := range s.find(r.URL.Query().Get("q")) {
		if l.InDirectory {
			listed = append(listed, l)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = directoryTmpl.Execute(w, listed)
}

// staticHandler serves a placeholder for listing photos.
func (s *DemoServer) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(`<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"/>`))
}

type listingInfo struct {
	Slug              string `json:"slug"`
	Name              string `json:"name"`
	Area              string `json:"area"`
	Description       string `json:"description"`
	CurrentVersion    int    `json:"current_version"`
	AvailableVersions []int  `json:"available_versions"`
}

func (s *DemoServer) snapshot() []listingInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]listingInfo, 0, len(s.order))
	for _, slug := range s.order {
		l := s.listings[slug]
		versions := make([]int, 0, len(l.Versions))
		for v := range l.Versions {
			versions = append(versions, v)
		}
		sort.Ints(versions)
		out = append(out, listingInfo{
			Slug:              slug,
			Name:              l.Name,
			Area:              l.Area,
			Description:       l.Description,
			CurrentVersion:    s.versions[slug],
			AvailableVersions: versions,
		})
	}
	return out
}

func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = controlTmpl.Execute(w, s.snapshot())
}

func (s *DemoServer) versionsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshot())
}

func (s *DemoServer) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	slug := r.FormValue("slug")
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}
	if !s.SetVersion(slug, version) {
		http.Error(w, "Unknown listing or version", http.StatusNotFound)
		return
	}
	s.logger.Info("listing version changed", logging.F("slug", slug), logging.F("version", version))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"slug":    slug,
		"version": version,
	})
}

func (s *DemoServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for slug := range s.versions {
		s.versions[slug] = 1
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "All versions reset to 1",
	})
}

const controlPanelHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Demo Listings Control Panel</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .card { background: white; border-radius: 8px; padding: 16px; margin: 12px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .current { font-weight: bold; color: #28a745; }
        button { padding: 6px 14px; margin-right: 6px; border: none; border-radius: 4px; cursor: pointer; }
    </style>
</head>
<body>
    <h1>Demo Listings</h1>
    <p>Switch a listing version, then audit it again to see the change report.</p>
    {{range .}}
    <div class="card">
        <a href="/maps/place/{{.Slug}}" target="_blank"><strong>{{.Name}}</strong></a>, {{.Area}}
        <span class="current">v{{.CurrentVersion}}</span>
        <p>{{.Description}}</p>
        {{$slug := .Slug}}{{range .AvailableVersions}}
        <button onclick="setVersion('{{$slug}}', {{.}})">v{{.}}</button>
        {{end}}
    </div>
    {{end}}
    <button onclick="fetch('/demo/reset', {method: 'POST'}).then(() => location.reload())">Reset all</button>
    <script>
        function setVersion(slug, version) {
            fetch('/demo/set-version', {
                method: 'POST',
                headers: {'Content-Type': 'application/x-www-form-urlencoded'},
                body: 'slug=' + encodeURIComponent(slug) + '&version=' + version
            }).then(() => location.reload());
        }
    </script>
</body>
</html>`
