package extractor

import "time"

// Selectors lists CSS selectors tried in order for each listing attribute.
// The first selector that matches wins.
type Selectors struct {
	Name         []string `mapstructure:"name" yaml:"name"`
	ResultLinks  []string `mapstructure:"result_links" yaml:"result_links"`
	Rating       []string `mapstructure:"rating" yaml:"rating"`
	ReviewCount  []string `mapstructure:"review_count" yaml:"review_count"`
	Website      []string `mapstructure:"website" yaml:"website"`
	Phone        []string `mapstructure:"phone" yaml:"phone"`
	Address      []string `mapstructure:"address" yaml:"address"`
	Photos       []string `mapstructure:"photos" yaml:"photos"`
	ClaimPrompts []string `mapstructure:"claim_prompts" yaml:"claim_prompts"`
	HoursRows    []string `mapstructure:"hours_rows" yaml:"hours_rows"`
	HoursSection []string `mapstructure:"hours_section" yaml:"hours_section"`
	AddHours     []string `mapstructure:"add_hours" yaml:"add_hours"`
	ReviewCards  []string `mapstructure:"review_cards" yaml:"review_cards"`
	PhotoTabs    []string `mapstructure:"photo_tabs" yaml:"photo_tabs"`
}

// Markers are case-insensitive text fragments searched for in the page.
type Markers struct {
	NoResults     []string `mapstructure:"no_results" yaml:"no_results"`
	ClaimPrompt   []string `mapstructure:"claim_prompt" yaml:"claim_prompt"`
	OwnerResponse []string `mapstructure:"owner_response" yaml:"owner_response"`
	OwnerPhotos   []string `mapstructure:"owner_photos" yaml:"owner_photos"`
}

// DirectoryConfig configures the secondary directory check.
type DirectoryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// SearchURLTemplate contains {query}, replaced by the escaped
	// "name area" search text.
	SearchURLTemplate string   `mapstructure:"search_url_template" yaml:"search_url_template"`
	ResultSelectors   []string `mapstructure:"result_selectors" yaml:"result_selectors"`
	NoResultsMarkers  []string `mapstructure:"no_results_markers" yaml:"no_results_markers"`
}

// Config configures the reference listing extractor.
type Config struct {
	// SearchURLTemplate contains {query}, replaced by the escaped
	// "name area" search text.
	SearchURLTemplate string `mapstructure:"search_url_template" yaml:"search_url_template"`

	// ReviewSample is how many review cards are inspected for owner replies.
	ReviewSample int `mapstructure:"review_sample" yaml:"review_sample"`

	// AttemptTimeout bounds a single extraction attempt. Zero leaves it to
	// the caller's ctx.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" yaml:"attempt_timeout"`

	Selectors Selectors       `mapstructure:"selectors" yaml:"selectors"`
	Markers   Markers         `mapstructure:"markers" yaml:"markers"`
	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`
}

// DefaultConfig targets the public maps listing layout and a local
// business directory search.
func DefaultConfig() Config {
	return Config{
		SearchURLTemplate: "https://www.google.com/maps/search/{query}",
		ReviewSample:      5,
		AttemptTimeout:    30 * time.Second,
		Selectors: Selectors{
			Name:         []string{"h1.DUwDvf", `h1[class*="fontHeadline"]`, `[data-item-id="title"]`, "h1"},
			ResultLinks:  []string{`a.hfpxzc[href]`, `a[href*="/maps/place/"]`},
			Rating:       []string{`div.F7nice span[aria-hidden="true"]`, `span[role="img"][aria-label*="stars"]`},
			ReviewCount:  []string{`div.F7nice span[aria-label*="review"]`, `span[aria-label*="review"]`, `button[jsaction*="reviews"]`},
			Website:      []string{`a[data-item-id="authority"]`, `a[aria-label*="Website"]`},
			Phone:        []string{`button[data-item-id*="phone"]`, `button[aria-label*="Phone"]`, `[data-tooltip*="phone"]`},
			Address:      []string{`button[data-item-id="address"]`, `button[aria-label*="Address"]`},
			Photos:       []string{`button[jsaction*="photo"] img`, `img[src*="googleusercontent"]`},
			ClaimPrompts: []string{`a[aria-label*="Claim this business"]`, `button[aria-label*="Claim this business"]`, `div[aria-label*="Claim this business"]`},
			HoursRows:    []string{"table.eK4R0e tr", "table.WgFkxc tr", `div[aria-label*="Hours"] table tr`},
			HoursSection: []string{`div[aria-label*="Hours"]`},
			AddHours:     []string{`button[aria-label*="Add hours"]`},
			ReviewCards:  []string{"div.jftiEf, div[data-review-id]", `div[role="article"]`},
			PhotoTabs:    []string{`button[role="tab"]`, `div[role="tab"]`, "button"},
		},
		Markers: Markers{
			NoResults:     []string{"Google Maps can't find", "No results found"},
			ClaimPrompt:   []string{"Claim this business", "Own this business"},
			OwnerResponse: []string{"Response from the owner"},
			OwnerPhotos:   []string{"by owner"},
		},
		Directory: DirectoryConfig{
			Enabled:           true,
			SearchURLTemplate: "https://www.justdial.com/Search?q={query}",
			ResultSelectors:   []string{"#bcard0", "li.cntanr", ".cntanr", ".store-details", ".resultbox_info", ".ResultList_cont_box"},
			NoResultsMarkers:  []string{"No results found"},
		},
	}
}
