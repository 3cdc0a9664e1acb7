package scoring

import "testing"

func TestClassifyRecency(t *testing.T) {
	t.Parallel()

	cases := map[string]Recency{
		"":                  RecencyUnknown,
		"   ":               RecencyUnknown,
		"yesterday-ish":     RecencyUnknown,
		"a moment ago":      RecencyUnknown,
		"30 seconds ago":    RecencyRecent,
		"a minute ago":      RecencyRecent,
		"an hour ago":       RecencyRecent,
		"5 hours ago":       RecencyRecent,
		"3 days ago":        RecencyRecent,
		"a week ago":        RecencyRecent,
		"3 Weeks Ago":       RecencyRecent,
		"a month ago":       RecencyRecent,
		"2 months ago":      RecencyStale,
		"11 months ago":     RecencyStale,
		"a year ago":        RecencyStale,
		"4 years ago":       RecencyStale,
		"Edited 2 days ago": RecencyRecent,
		"just now":          RecencyRecent,
		"Today":             RecencyRecent,
		"yesterday":         RecencyRecent,
		"Edited yesterday":  RecencyRecent,
	}
	for label, want := range cases {
		if got := ClassifyRecency(label); got != want {
			t.Errorf("ClassifyRecency(%q) = %v, want %v", label, got, want)
		}
	}
}

func TestRecencyString(t *testing.T) {
	t.Parallel()

	if RecencyRecent.String() != "recent" || RecencyStale.String() != "stale" || RecencyUnknown.String() != "unknown" {
		t.Fatal("unexpected Recency names")
	}
}
