package scoring

import (
	"regexp"
	"strconv"

	"github.com/raysh454/bizaudit/internal/utils"
)

// Recency buckets a free-text relative review age.
type Recency int

const (
	RecencyUnknown Recency = iota
	RecencyRecent
	RecencyStale
)

func (r Recency) String() string {
	switch r {
	case RecencyRecent:
		return "recent"
	case RecencyStale:
		return "stale"
	}
	return "unknown"
}

type unitRule struct {
	always     bool // any count is recent
	recentUpTo int  // largest count still recent when !always; 0 means never
}

// unitRules lists every unit the classifier understands.
var unitRules = map[string]unitRule{
	"second": {always: true},
	"minute": {always: true},
	"hour":   {always: true},
	"day":    {always: true},
	"week":   {always: true},
	"month":  {recentUpTo: 1},
	"year":   {},
}

// dayWords are unit-less labels at day granularity or finer.
var dayWords = map[string]Recency{
	"just now":  RecencyRecent,
	"today":     RecencyRecent,
	"yesterday": RecencyRecent,
}

var dayWord = regexp.MustCompile(`(?:^|\s)(just now|today|yesterday)(?:\s|$)`)

var relativeAge = regexp.MustCompile(`(?:^|\s)(a|an|one|\d+)\s+(second|minute|hour|day|week|month|year)s?(?:\s+ago)?(?:\s|$)`)

// ClassifyRecency reads labels such as "3 days ago", "a month ago",
// "2 years ago" or "yesterday". Units up to a week are always recent, as are
// "just now", "today" and "yesterday". A single month is recent, anything
// coarser is stale. Blank or unrecognised labels are RecencyUnknown.
func ClassifyRecency(label string) Recency {
	norm := utils.NormalizeSpace(label)
	if norm == "" {
		return RecencyUnknown
	}
	if w := dayWord.FindStringSubmatch(norm); w != nil {
		return dayWords[w[1]]
	}
	m := relativeAge.FindStringSubmatch(norm)
	if m == nil {
		return RecencyUnknown
	}

	count := 1
	if n, err := strconv.Atoi(m[1]); err == nil {
		count = n
	}

	rule, ok := unitRules[m[2]]
	switch {
	case !ok:
		return RecencyUnknown
	case rule.always:
		return RecencyRecent
	case rule.recentUpTo > 0 && count <= rule.recentUpTo:
		return RecencyRecent
	default:
		return RecencyStale
	}
}
