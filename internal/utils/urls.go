package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyRef    = errors.New("empty reference")
	ErrMissingHost = errors.New("reference has no host")
	ErrBadScheme   = errors.New("reference scheme must be http or https")
)

// Query parameters that never change which listing a reference points to.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {}, "entry": {}, "g_ep": {},
}

// CanonicalizeRef returns a deterministic form of a listing reference so two
// spellings of the same URL share a cache key.
//
// Examples:
//
//	"HTTPS://Maps.Example.com:443/place/Cafe/?utm_source=x#top" -> "https://maps.example.com/place/Cafe"
//	"maps.example.com/place/a/../b"                           -> "https://maps.example.com/place/b"
//	"https://例え.テスト/a"                                      -> "https://xn--r8jz45g.xn--zckzah/a"
func CanonicalizeRef(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyRef
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("couldn't parse reference %s: %w", raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrBadScheme
	}
	if u.Host == "" {
		return "", ErrMissingHost
	}

	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	port := u.Port()
	if port == "" || (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	} else {
		u.Host = net.JoinHostPort(host, port)
	}

	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	clean := path.Clean(u.Path)
	if clean == "." || clean == "/" {
		clean = ""
	}
	u.Path = strings.TrimRight(clean, "/")
	u.RawPath = ""

	q := u.Query()
	for k := range q {
		if _, ok := trackingParams[strings.ToLower(k)]; ok {
			q.Del(k)
		}
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}

// ResolveRef resolves href against base. Absolute hrefs are returned as-is.
func ResolveRef(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", ErrEmptyRef
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("couldn't parse href %s: %w", href, err)
	}
	if ref.IsAbs() || base == "" {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("couldn't parse base %s: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// SameHost reports whether a and b point at the same hostname.
func SameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Hostname(), ub.Hostname())
}
