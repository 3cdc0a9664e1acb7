package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const listingPage = `<html><body>
<h1 class="DUwDvf">Blue Door Cafe</h1>
<div class="F7nice"><span aria-hidden="true">4.6</span><span aria-label="1,284 reviews">(1,284)</span></div>
<a data-item-id="authority" href="https://bluedoor.example.com/">Website</a>
<button data-item-id="phone:tel:+911234567890" aria-label="Phone: 012345 67890">012345 67890</button>
<button data-item-id="address" aria-label="Address: 12 Park Street, Kolkata">12 Park Street</button>
<button jsaction="pane.heroHeaderImage.click;photo"><img src="https://lh5.googleusercontent.com/p/abc"></button>
<button role="tab">Photos by owner</button>
<table class="eK4R0e"><tr><td>Monday</td><td>9am-9pm</td></tr></table>
<div class="jftiEf"><span class="rsqaWe">2 weeks ago</span><div>Great coffee</div><div>Response from the owner: thanks!</div></div>
<div class="jftiEf"><span class="rsqaWe">3 months ago</span><div>Nice</div></div>
<div class="jftiEf"><span class="rsqaWe">a year ago</span><div>Ok</div><div>Response from the owner: cheers</div></div>
</body></html>`

const unclaimedPage = `<html><body>
<h1 class="DUwDvf">Corner Shop</h1>
<a href="/claim">Own this business?</a>
<button aria-label="Add hours">Add hours</button>
</body></html>`

const searchResultsPage = `<html><body>
<div role="feed">
<a class="hfpxzc" href="/maps/place/Blue+Door+Cafe/@22.5,88.3">Blue Door Cafe</a>
<a class="hfpxzc" href="/maps/place/Blue+Door+Bakery/@22.5,88.3">Blue Door Bakery</a>
</div>
</body></html>`

const noResultsPage = `<html><body><div>Google Maps can't find Nowhere Cafe</div></body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestParse_FullListing(t *testing.T) {
	t.Parallel()
	p := NewListingParser(DefaultConfig())
	f := p.Parse(mustDoc(t, listingPage), "https://www.google.com/maps/place/blue-door")

	if got := f.Name.OrElse(""); got != "Blue Door Cafe" {
		t.Errorf("Name = %q", got)
	}
	if got, ok := f.Rating.Get(); !ok || got != 4.6 {
		t.Errorf("Rating = %v, %v", got, ok)
	}
	if got, ok := f.ReviewCount.Get(); !ok || got != 1284 {
		t.Errorf("ReviewCount = %v, %v", got, ok)
	}
	if got := f.Website.OrElse(""); got != "https://bluedoor.example.com/" {
		t.Errorf("Website = %q", got)
	}
	if got := f.Phone.OrElse(""); got != "+911234567890" {
		t.Errorf("Phone = %q", got)
	}
	if got := f.Address.OrElse(""); got != "12 Park Street, Kolkata" {
		t.Errorf("Address = %q", got)
	}
	if got := f.PhotoURL.OrElse(""); got != "https://lh5.googleusercontent.com/p/abc" {
		t.Errorf("PhotoURL = %q", got)
	}
	if !f.IsClaimed.OrElse(false) {
		t.Error("expected claimed listing")
	}
	if !f.HoursPublished.OrElse(false) {
		t.Error("expected hours published")
	}
	if !f.HasOwnerPhotos.OrElse(false) {
		t.Error("expected owner photos")
	}
	if got := f.LatestReviewAge.OrElse(""); got != "2 weeks ago" {
		t.Errorf("LatestReviewAge = %q", got)
	}
	if got, ok := f.OwnerResponseCount.Get(); !ok || got != 2 {
		t.Errorf("OwnerResponseCount = %v, %v", got, ok)
	}
	if f.SecondaryListing.Present() {
		t.Error("parser must not set SecondaryListing")
	}
}

func TestParse_UnclaimedWithoutHours(t *testing.T) {
	t.Parallel()
	p := NewListingParser(DefaultConfig())
	f := p.Parse(mustDoc(t, unclaimedPage), "https://www.google.com/maps/place/corner")

	if claimed, ok := f.IsClaimed.Get(); !ok || claimed {
		t.Errorf("IsClaimed = %v, %v; want false, true", claimed, ok)
	}
	if hours, ok := f.HoursPublished.Get(); !ok || hours {
		t.Errorf("HoursPublished = %v, %v; want false, true", hours, ok)
	}
	if f.Rating.Present() || f.ReviewCount.Present() || f.Phone.Present() || f.Website.Present() {
		t.Errorf("unexpected facts present: %+v", f)
	}
	if f.LatestReviewAge.Present() || f.OwnerResponseCount.Present() {
		t.Error("no review cards means review facts stay absent")
	}
}

func TestParse_ReviewSampleLimit(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.ReviewSample = 2
	p := NewListingParser(cfg)
	f := p.Parse(mustDoc(t, listingPage), "")

	if got := f.OwnerResponseCount.OrElse(-1); got != 1 {
		t.Errorf("OwnerResponseCount = %d, want 1 within the first two cards", got)
	}
}

func TestListingPageDetection(t *testing.T) {
	t.Parallel()
	p := NewListingParser(DefaultConfig())

	if !p.IsListing(mustDoc(t, listingPage)) {
		t.Error("listing page not detected")
	}
	if p.IsListing(mustDoc(t, searchResultsPage)) {
		t.Error("results page detected as listing")
	}
	if !p.IsNoResults(mustDoc(t, noResultsPage)) {
		t.Error("no-results page not detected")
	}
	got := p.FirstResult(mustDoc(t, searchResultsPage), "https://www.google.com/maps/search/blue")
	if want := "https://www.google.com/maps/place/Blue+Door+Cafe/@22.5,88.3"; got != want {
		t.Errorf("FirstResult = %q, want %q", got, want)
	}
}
