package demoserver

import "strings"

// Listing is one fictional business served by the demo server. Each version
// is a full listing page; switching versions simulates the owner changing
// (or neglecting) the listing between audits.
type Listing struct {
	Slug        string
	Name        string
	Area        string
	Description string

	// InDirectory controls whether the directory search finds the business.
	InDirectory bool

	Versions map[int]string
}

// matches reports whether the free-text query names this listing.
func (l Listing) matches(query string) bool {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	return q != "" && strings.Contains(q, strings.ToLower(l.Name))
}

// AllListings returns every demo listing.
func AllListings() []Listing {
	return []Listing{
		blueDoorCafe(),
		cornerShop(),
	}
}

// ===== BLUE DOOR CAFE =====

func blueDoorCafe() Listing {
	return Listing{
		Slug:        "blue-door-cafe",
		Name:        "Blue Door Cafe",
		Area:        "Park Street, Kolkata",
		Description: "Claimed cafe. v1 is well maintained; v2 stops replying to reviews and drops below 4 stars.",
		InDirectory: true,
		Versions: map[int]string{
			1: `<!DOCTYPE html>
<html><head><title>Blue Door Cafe</title></head><body>
<h1 class="DUwDvf">Blue Door Cafe</h1>
<div class="F7nice"><span aria-hidden="true">4.6</span><span aria-label="1,284 reviews">(1,284)</span></div>
<a data-item-id="authority" href="https://bluedoor.example.com/">Website</a>
<button data-item-id="phone:tel:+913322221111" aria-label="Phone: 033 2222 1111">033 2222 1111</button>
<button data-item-id="address" aria-label="Address: 12 Park Street, Kolkata">12 Park Street</button>
<button jsaction="pane.heroHeaderImage.click;photo"><img src="/static/blue-door.jpg"></button>
<button role="tab">Photos by owner</button>
<table class="eK4R0e">
<tr><td>Monday</td><td>8am-10pm</td></tr>
<tr><td>Tuesday</td><td>8am-10pm</td></tr>
</table>
<div class="jftiEf"><span class="rsqaWe">3 days ago</span><div>Best filter coffee on the street.</div><div>Response from the owner: Thank you!</div></div>
<div class="jftiEf"><span class="rsqaWe">2 weeks ago</span><div>Cosy and quick.</div><div>Response from the owner: See you soon.</div></div>
<div class="jftiEf"><span class="rsqaWe">a month ago</span><div>Good breakfast.</div></div>
</body></html>`,
			2: `<!DOCTYPE html>
<html><head><title>Blue Door Cafe</title></head><body>
<h1 class="DUwDvf">Blue Door Cafe</h1>
<div class="F7nice"><span aria-hidden="true">3.8</span><span aria-label="1,301 reviews">(1,301)</span></div>
<a data-item-id="authority" href="https://bluedoor.example.com/">Website</a>
<button data-item-id="phone:tel:+913322221111" aria-label="Phone: 033 2222 1111">033 2222 1111</button>
<button data-item-id="address" aria-label="Address: 12 Park Street, Kolkata">12 Park Street</button>
<button role="tab">Photos by visitors</button>
<table class="eK4R0e">
<tr><td>Monday</td><td>8am-10pm</td></tr>
</table>
<div class="jftiEf"><span class="rsqaWe">5 months ago</span><div>Service has slipped.</div></div>
<div class="jftiEf"><span class="rsqaWe">6 months ago</span><div>Cold coffee.</div></div>
</body></html>`,
		},
	}
}

// ===== CORNER SHOP =====

func cornerShop() Listing {
	return Listing{
		Slug:        "corner-shop",
		Name:        "Corner Shop",
		Area:        "Salt Lake, Kolkata",
		Description: "Unclaimed listing with no hours and no contact details.",
		InDirectory: false,
		Versions: map[int]string{
			1: `<!DOCTYPE html>
<html><head><title>Corner Shop</title></head><body>
<h1 class="DUwDvf">Corner Shop</h1>
<a href="/claim" aria-label="Claim this business">Own this business?</a>
<button aria-label="Add hours">Add hours</button>
</body></html>`,
		},
	}
}

const noResultsHTML = `<!DOCTYPE html>
<html><body><div>Google Maps can't find {{.}}</div></body></html>`

const resultsHTML = `<!DOCTYPE html>
<html><body><div role="feed">
{{range .}}<a class="hfpxzc" href="/maps/place/{{.Slug}}">{{.Name}}</a>
{{end}}</div></body></html>`

const directoryHTML = `<!DOCTYPE html>
<html><body>
{{if .}}<ul>{{range .}}<li class="cntanr"><span class="store-details">{{.Name}}, {{.Area}}</span></li>{{end}}</ul>
{{else}}<p>No results found</p>{{end}}
</body></html>`
