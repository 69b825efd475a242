package chat

import (
	"errors"
	"testing"
)

// TestModelResolve_EnumeratedSelectors verifies that every enumerated
// selector resolves to a non-empty provider string.
func TestModelResolve_EnumeratedSelectors_ReturnNonEmptyStrings(t *testing.T) {
	expected := map[Model]string{
		ModelGPT4o:       "gpt-4o",
		ModelGPT4oMini:   "gpt-4o-mini",
		ModelGPT4oLatest: "chatgpt-4o-latest",
	}

	for model, want := range expected {
		got, err := model.Resolve()
		if err != nil {
			t.Fatalf("Resolve(%v): unexpected error: %v", model, err)
		}
		if got == "" {
			t.Errorf("Resolve(%v): empty provider string", model)
		}
		if got != want {
			t.Errorf("Resolve(%v): expected %q, got %q", model, want, got)
		}
	}
}

// TestModelResolve_OutOfRange verifies that selectors outside the registry
// fail with a validation error instead of silently defaulting.
func TestModelResolve_OutOfRangeSelector_ReturnsError(t *testing.T) {
	for _, model := range []Model{0, -1, 99} {
		if _, err := model.Resolve(); err == nil {
			t.Errorf("Resolve(%d): expected error, got nil", int(model))
		} else if !errors.Is(err, ErrChat) {
			t.Errorf("Resolve(%d): error should match ErrChat, got %v", int(model), err)
		}
	}
}

// TestParseModel_RoundTrip verifies that every selector survives a
// Resolve -> ParseModel round trip.
func TestParseModel_RoundTrip_RecoversSelector(t *testing.T) {
	for _, model := range Models() {
		name, err := model.Resolve()
		if err != nil {
			t.Fatalf("Resolve(%v): %v", model, err)
		}

		parsed, err := ParseModel(name)
		if err != nil {
			t.Fatalf("ParseModel(%q): %v", name, err)
		}
		if parsed != model {
			t.Errorf("round trip of %v via %q yielded %v", model, name, parsed)
		}
	}
}

// TestParseModel_UnknownName verifies rejection of names outside the set.
func TestParseModel_UnknownName_ReturnsError(t *testing.T) {
	if _, err := ParseModel("gpt-5-ultra"); err == nil {
		t.Fatal("expected error for unknown model name, got nil")
	}
}

// TestModelString_OutOfRange verifies String never panics for bad selectors.
func TestModelString_OutOfRangeSelector_ReturnsPlaceholder(t *testing.T) {
	got := Model(42).String()
	if got != "model(42)" {
		t.Errorf("expected placeholder, got %q", got)
	}
}
