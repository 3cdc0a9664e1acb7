package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/utils"
)

var (
	ratingPattern      = regexp.MustCompile(`(\d(?:[.,]\d+)?)`)
	reviewCountPattern = regexp.MustCompile(`(\d[\d,.\s]*)`)
	reviewAgePattern   = regexp.MustCompile(`(?i)(?:a|an|\d+)\s+(?:second|minute|hour|day|week|month|year)s?\s+ago`)
)

// ListingParser reads RawFacts out of a rendered listing document.
type ListingParser struct {
	sel          Selectors
	markers      Markers
	reviewSample int
}

// NewListingParser builds a parser from cfg's selectors and markers.
func NewListingParser(cfg Config) *ListingParser {
	n := cfg.ReviewSample
	if n <= 0 {
		n = 5
	}
	return &ListingParser{sel: cfg.Selectors, markers: cfg.Markers, reviewSample: n}
}

// IsNoResults reports whether doc is a "nothing found" page.
func (p *ListingParser) IsNoResults(doc *goquery.Document) bool {
	return containsAny(doc.Find("body").Text(), p.markers.NoResults)
}

// IsListing reports whether doc shows a single listing.
func (p *ListingParser) IsListing(doc *goquery.Document) bool {
	return firstText(doc, p.sel.Name) != ""
}

// FirstResult returns the href of the first search result, resolved
// against base, or "" when the page has no results.
func (p *ListingParser) FirstResult(doc *goquery.Document, base string) string {
	href := firstAttr(doc, p.sel.ResultLinks, "href")
	if href == "" {
		return ""
	}
	abs, err := utils.ResolveRef(base, href)
	if err != nil {
		return ""
	}
	return abs
}

// Parse extracts every fact the document exposes. base is the page URL,
// used to resolve relative links.
func (p *ListingParser) Parse(doc *goquery.Document, base string) model.RawFacts {
	var f model.RawFacts

	if name := firstText(doc, p.sel.Name); name != "" {
		f.Name = model.Some(name)
	}
	if base != "" {
		f.ListingURL = model.Some(base)
	}

	if r, ok := p.rating(doc); ok {
		f.Rating = model.Some(r)
	}
	if n, ok := p.reviewCount(doc); ok {
		f.ReviewCount = model.Some(n)
	}
	if href := firstAttr(doc, p.sel.Website, "href"); href != "" {
		if abs, err := utils.ResolveRef(base, href); err == nil {
			f.Website = model.Some(abs)
		}
	}
	if phone := p.phone(doc); phone != "" {
		f.Phone = model.Some(phone)
	}
	if addr := labelled(doc, p.sel.Address, "Address:"); addr != "" {
		f.Address = model.Some(addr)
	}
	if src := firstAttr(doc, p.sel.Photos, "src"); src != "" {
		if abs, err := utils.ResolveRef(base, src); err == nil {
			f.PhotoURL = model.Some(abs)
		}
	}

	f.IsClaimed = model.Some(!p.claimPrompted(doc))
	f.HoursPublished = model.Some(p.hoursPublished(doc))
	f.HasOwnerPhotos = model.Some(p.ownerPhotos(doc))

	if age, replies, ok := p.reviews(doc); ok {
		if age != "" {
			f.LatestReviewAge = model.Some(age)
		}
		f.OwnerResponseCount = model.Some(replies)
	}
	return f
}

func (p *ListingParser) rating(doc *goquery.Document) (float64, bool) {
	for _, sel := range p.sel.Rating {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		for _, candidate := range []string{s.Text(), s.AttrOr("aria-label", "")} {
			m := ratingPattern.FindString(candidate)
			if m == "" {
				continue
			}
			r, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
			if err == nil && r >= 0 && r <= 5 {
				return r, true
			}
		}
	}
	return 0, false
}

func (p *ListingParser) reviewCount(doc *goquery.Document) (int, bool) {
	for _, sel := range p.sel.ReviewCount {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		for _, candidate := range []string{s.AttrOr("aria-label", ""), s.Text()} {
			m := reviewCountPattern.FindString(candidate)
			if m == "" {
				continue
			}
			digits := strings.Map(func(r rune) rune {
				if r >= '0' && r <= '9' {
					return r
				}
				return -1
			}, m)
			if n, err := strconv.Atoi(digits); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// phone prefers the tel: value carried in data-item-id ("phone:tel:+9198...").
func (p *ListingParser) phone(doc *goquery.Document) string {
	for _, sel := range p.sel.Phone {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if id := s.AttrOr("data-item-id", ""); strings.Contains(id, "tel:") {
			if _, num, ok := strings.Cut(id, "tel:"); ok && strings.TrimSpace(num) != "" {
				return strings.TrimSpace(num)
			}
		}
		if v := fromLabel(s, "Phone:"); v != "" {
			return v
		}
	}
	return ""
}

func (p *ListingParser) claimPrompted(doc *goquery.Document) bool {
	for _, sel := range p.sel.ClaimPrompts {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	found := false
	doc.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if containsAny(s.Text(), p.markers.ClaimPrompt) {
			found = true
			return false
		}
		return true
	})
	return found
}

func (p *ListingParser) hoursPublished(doc *goquery.Document) bool {
	for _, sel := range p.sel.HoursRows {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	for _, sel := range p.sel.AddHours {
		if doc.Find(sel).Length() > 0 {
			return false
		}
	}
	for _, sel := range p.sel.HoursSection {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

func (p *ListingParser) ownerPhotos(doc *goquery.Document) bool {
	for _, sel := range p.sel.PhotoTabs {
		found := false
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if containsAny(s.Text(), p.markers.OwnerPhotos) || containsAny(s.AttrOr("aria-label", ""), p.markers.OwnerPhotos) {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// reviews inspects the first few review cards. ok is false when the page
// shows no review cards at all.
func (p *ListingParser) reviews(doc *goquery.Document) (latestAge string, replies int, ok bool) {
	var cards *goquery.Selection
	for _, sel := range p.sel.ReviewCards {
		if c := doc.Find(sel); c.Length() > 0 {
			cards = c
			break
		}
	}
	if cards == nil {
		return "", 0, false
	}

	cards.Slice(0, min(cards.Length(), p.reviewSample)).Each(func(i int, card *goquery.Selection) {
		if i == 0 {
			card.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if m := reviewAgePattern.FindString(utils.CollapseSpace(s.Text())); m != "" {
					latestAge = m
					return false
				}
				return true
			})
		}
		if containsAny(card.Text(), p.markers.OwnerResponse) {
			replies++
		}
	})
	return latestAge, replies, true
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := utils.CollapseSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// labelled returns the value of the first matching element, preferring an
// aria-label of the form "<prefix> value" over the element text.
func labelled(doc *goquery.Document, selectors []string, prefix string) string {
	for _, sel := range selectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if v := fromLabel(s, prefix); v != "" {
			return v
		}
	}
	return ""
}

func fromLabel(s *goquery.Selection, prefix string) string {
	if label := utils.CollapseSpace(s.AttrOr("aria-label", "")); label != "" {
		if len(label) >= len(prefix) && strings.EqualFold(label[:len(prefix)], prefix) {
			label = strings.TrimSpace(label[len(prefix):])
		}
		if label != "" {
			return label
		}
	}
	return utils.CollapseSpace(s.Text())
}

func containsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
