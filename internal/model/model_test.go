package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/raysh454/bizaudit/internal/auditerr"
)

func TestAuditRequest_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		req  AuditRequest
		ok   bool
	}{
		{"name and area", AuditRequest{SubjectName: "Cafe", Area: "Pune"}, true},
		{"ref only", AuditRequest{ResourceRef: "https://maps.example.com/place/x"}, true},
		{"name only", AuditRequest{SubjectName: "Cafe"}, false},
		{"area only", AuditRequest{Area: "Pune"}, false},
		{"blank", AuditRequest{SubjectName: "  ", Area: "\t"}, false},
		{"bad ref", AuditRequest{ResourceRef: "ftp://x"}, false},
	}
	for _, tc := range cases {
		err := tc.req.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && auditerr.CodeOf(err) != auditerr.CodeMissingFields {
			t.Errorf("%s: got %v, want MISSING_FIELDS", tc.name, err)
		}
	}
}

func TestAuditRequest_KeyNormalises(t *testing.T) {
	t.Parallel()

	a := AuditRequest{SubjectName: "Joe's  Pizza", Area: " Downtown "}
	b := AuditRequest{SubjectName: "JOE'S PIZZA", Area: "downtown"}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() != "joe's pizza|downtown" {
		t.Fatalf("unexpected key %q", a.Key())
	}
}

func TestAuditRequest_KeyForRef(t *testing.T) {
	t.Parallel()

	a := AuditRequest{ResourceRef: "HTTPS://Maps.Example.com/place/x/"}
	b := AuditRequest{ResourceRef: "https://maps.example.com/place/x#reviews"}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if !strings.HasPrefix(a.Key(), "ref|") {
		t.Fatalf("expected ref| prefix, got %q", a.Key())
	}

	// An identity wins over the reference.
	c := AuditRequest{SubjectName: "Cafe", Area: "Pune", ResourceRef: "https://maps.example.com/place/x"}
	if c.Key() != "cafe|pune" {
		t.Fatalf("unexpected key %q", c.Key())
	}
}

func TestOpt_JSONRoundTripKeepsAbsence(t *testing.T) {
	t.Parallel()

	in := RawFacts{
		IsClaimed: Some(false),
		Rating:    Some(4.5),
		Phone:     Some("123"),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"isClaimed":false`) {
		t.Fatalf("present false must be encoded, got %s", s)
	}
	if strings.Contains(s, "website") || strings.Contains(s, "capturedAt") {
		t.Fatalf("absent fields must be omitted, got %s", s)
	}

	var out RawFacts
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if v, ok := out.IsClaimed.Get(); !ok || v {
		t.Fatalf("IsClaimed = (%v, %v), want (false, true)", v, ok)
	}
	if out.Website.Present() {
		t.Fatal("Website should stay absent")
	}
	if out.Rating.OrElse(0) != 4.5 {
		t.Fatalf("Rating = %v", out.Rating.OrElse(0))
	}
}

func TestOpt_NullDecodesAbsent(t *testing.T) {
	t.Parallel()

	var f RawFacts
	if err := json.Unmarshal([]byte(`{"rating":null,"reviewCount":12}`), &f); err != nil {
		t.Fatal(err)
	}
	if f.Rating.Present() {
		t.Fatal("null rating should be absent")
	}
	if f.ReviewCount.OrElse(0) != 12 {
		t.Fatalf("ReviewCount = %v", f.ReviewCount.OrElse(0))
	}
}
