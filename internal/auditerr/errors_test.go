package auditerr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), CodeInternal},
		{"coded", New(CodeQueueFull, "full"), CodeQueueFull},
		{"wrapped by fmt", fmt.Errorf("ctx: %w", New(CodeSubjectNotFound, "x")), CodeSubjectNotFound},
		{"outermost wins", Wrap(New(CodeExtractionTimeout, "t"), CodeExtractionFailed, "gave up"), CodeExtractionFailed},
	}
	for _, tc := range cases {
		if got := CodeOf(tc.err); got != tc.want {
			t.Errorf("%s: CodeOf = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsMatchesInnerCodes(t *testing.T) {
	t.Parallel()

	inner := New(CodeExtractionTimeout, "slow")
	outer := Wrap(inner, CodeExtractionFailed, "exhausted")

	if !Is(outer, CodeExtractionFailed) {
		t.Fatal("expected outer code to match")
	}
	if !Is(outer, CodeExtractionTimeout) {
		t.Fatal("expected inner code to match through Unwrap")
	}
	if Is(outer, CodeQueueFull) {
		t.Fatal("unexpected match for unrelated code")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	err := Wrap(context.DeadlineExceeded, CodeExtractionTimeout, "fetch %s", "page")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected to unwrap to context.DeadlineExceeded")
	}
	if want := "EXTRACTION_TIMEOUT: fetch page: context deadline exceeded"; err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	if !IsTerminal(New(CodeSubjectNotFound, "gone")) {
		t.Error("SUBJECT_NOT_FOUND should be terminal")
	}
	if IsTerminal(New(CodeExtractionTimeout, "slow")) {
		t.Error("EXTRACTION_TIMEOUT should not be terminal")
	}
	if IsTerminal(errors.New("plain")) {
		t.Error("uncoded errors should not be terminal")
	}
}

func TestRetryAfterOf(t *testing.T) {
	t.Parallel()

	e := New(CodeQueueFull, "full")
	e.RetryAfter = DefaultRetryAfter
	if got := RetryAfterOf(fmt.Errorf("x: %w", e)); got != DefaultRetryAfter {
		t.Fatalf("RetryAfterOf = %v, want %v", got, DefaultRetryAfter)
	}
	if got := RetryAfterOf(errors.New("plain")); got != 0 {
		t.Fatalf("RetryAfterOf(plain) = %v, want 0", got)
	}
}
