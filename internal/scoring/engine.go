package scoring

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/raysh454/bizaudit/internal/model"
)

// Category names as they appear in a breakdown.
const (
	CategoryPrimary   = "Primary listing"
	CategorySecondary = "Secondary directory"
	CategoryWebsite   = "Website"
)

// Category maxima.
const (
	MaxPrimary   = 80
	MaxSecondary = 10
	MaxWebsite   = 10
)

// Thresholds.
const (
	SuccessThreshold = 80
	WarningThreshold = 50
	GoodRating       = 4.0
	minWebsiteLength = 5
)

// Status messages per tier.
const (
	MessageSuccess = "Market Leader - hard to fail"
	MessageWarning = "Vulnerable - needs optimization"
	MessageDanger  = "Critical condition - ignoring digital customers"
)

// Score computes the breakdown for facts.
func Score(facts model.RawFacts) model.ScoreBreakdown {
	categories := []model.Category{
		primary(facts),
		secondary(facts),
		website(facts),
	}

	total := 0
	for _, c := range categories {
		total += c.Earned
	}

	tier := TierFor(total)
	return model.ScoreBreakdown{
		TotalScore:    total,
		Categories:    categories,
		StatusTier:    tier,
		StatusMessage: MessageFor(tier),
	}
}

// TierFor maps a total score to its status tier.
func TierFor(total int) model.Tier {
	switch {
	case total >= SuccessThreshold:
		return model.TierSuccess
	case total >= WarningThreshold:
		return model.TierWarning
	default:
		return model.TierDanger
	}
}

// MessageFor returns the status message of tier.
func MessageFor(tier model.Tier) string {
	switch tier {
	case model.TierSuccess:
		return MessageSuccess
	case model.TierWarning:
		return MessageWarning
	default:
		return MessageDanger
	}
}

// tally accumulates one category.
type tally struct {
	cat model.Category
}

func newTally(name string, limit int) *tally {
	return &tally{cat: model.Category{Name: name, Max: limit, Lines: []model.Line{}}}
}

func (t *tally) earn(points int, text string) {
	t.cat.Earned += points
	t.cat.Lines = append(t.cat.Lines, model.Line{Tier: model.TierSuccess, Text: fmt.Sprintf("%s (+%d)", text, points)})
}

func (t *tally) miss(tier model.Tier, text string) {
	t.cat.Lines = append(t.cat.Lines, model.Line{Tier: tier, Text: text + " (0)"})
}

func (t *tally) done() model.Category {
	t.cat.Earned = min(t.cat.Earned, t.cat.Max)
	return t.cat
}

func primary(f model.RawFacts) model.Category {
	t := newTally(CategoryPrimary, MaxPrimary)

	if f.IsClaimed.OrElse(false) {
		t.earn(20, "Business is claimed")
	} else {
		t.miss(model.TierDanger, "Business is unclaimed, critical risk")
	}

	if ClassifyRecency(f.LatestReviewAge.OrElse("")) == RecencyRecent {
		t.earn(10, "Recent reviews found")
	} else {
		t.miss(model.TierWarning, "No recent reviews, listing looks inactive")
	}

	if f.OwnerResponseCount.OrElse(0) > 0 {
		t.earn(10, "Owner replies to reviews")
	} else {
		t.miss(model.TierWarning, "No owner responses to recent reviews")
	}

	if f.HasOwnerPhotos.OrElse(false) {
		t.earn(10, "Owner-uploaded photos present")
	} else {
		t.miss(model.TierWarning, "No owner-uploaded photos detected")
	}

	if f.HoursPublished.OrElse(false) {
		t.earn(10, "Operating hours published")
	} else {
		t.miss(model.TierDanger, "Operating hours missing")
	}

	if rating, ok := f.Rating.Get(); !ok {
		t.miss(model.TierDanger, "No rating found")
	} else if rating >= GoodRating {
		t.earn(10, "Good rating "+formatRating(rating))
	} else {
		t.miss(model.TierDanger, "Rating below 4.0 at "+formatRating(rating))
	}

	contact(t, f)

	return t.done()
}

// contact awards 5 points each for phone and address in a single line.
func contact(t *tally, f model.RawFacts) {
	points := 0
	if nonBlank(f.Phone) {
		points += 5
	}
	if nonBlank(f.Address) {
		points += 5
	}
	switch points {
	case 10:
		t.earn(points, "Complete contact info, phone and address")
	case 0:
		t.miss(model.TierWarning, "No contact info, phone and address missing")
	default:
		t.cat.Earned += points
		t.cat.Lines = append(t.cat.Lines, model.Line{
			Tier: model.TierWarning,
			Text: fmt.Sprintf("Incomplete contact info (+%d)", points),
		})
	}
}

func secondary(f model.RawFacts) model.Category {
	t := newTally(CategorySecondary, MaxSecondary)
	if f.SecondaryListing.OrElse(false) {
		t.earn(10, "Listed on secondary directory")
	} else {
		t.miss(model.TierWarning, "Not found on secondary directory")
	}
	return t.done()
}

func website(f model.RawFacts) model.Category {
	t := newTally(CategoryWebsite, MaxWebsite)
	if w := strings.TrimSpace(f.Website.OrElse("")); utf8.RuneCountInString(w) > minWebsiteLength {
		t.earn(10, "Website link present")
	} else {
		t.miss(model.TierWarning, "No website link")
	}
	return t.done()
}

func nonBlank(o model.Opt[string]) bool {
	return strings.TrimSpace(o.OrElse("")) != ""
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
