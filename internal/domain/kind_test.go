package domain

import "testing"

func TestKind_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", k.String(), got, ok, k)
		}
	}
}

func TestKind_Invalid(t *testing.T) {
	t.Parallel()

	var zero Kind
	if zero.IsValid() {
		t.Error("zero Kind should be invalid")
	}
	if zero.String() != "unknown" {
		t.Errorf("zero.String() = %q", zero.String())
	}
	if _, ok := ParseKind("podcast"); ok {
		t.Error("ParseKind(podcast) should fail")
	}
}
