package normalization

import (
	"regexp"
	"testing"
)

var symbolPattern = regexp.MustCompile(`^(REL_)?[A-Za-z0-9_]+$`)

func TestRelationType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3-step", "REL_3_step"},
		{"part of", "part_of"},
		{"is-a", "is_a"},
		{"input/output", "input_output"},
		{"HAS_PART", "HAS_PART"},
		{"causes!", "causes_"},
		{"a  b", "a__b"},
		{"抑制", "__"},
		{"降低", "__"},
		{"温度-影响", "_____"},
		{"", ""},
		{"!!!", "___"},
		{"9", "REL_9"},
		{"_9", "_9"},
		{"café", "caf_"},
		{"1/2 life", "REL_1_2_life"},
	}
	for _, tc := range cases {
		if got := RelationType(tc.in); got != tc.want {
			t.Fatalf("RelationType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRelationType_DistinctLabelsCollapse(t *testing.T) {
	labels := []string{"part of", "part-of", "part/of", "part_of", "part.of"}
	want := RelationType(labels[0])
	for _, l := range labels[1:] {
		if got := RelationType(l); got != want {
			t.Fatalf("RelationType(%q) = %q, want collapse onto %q", l, got, want)
		}
	}
}

func TestRelationType_InvalidUTF8(t *testing.T) {
	got := RelationType("a\xffb")
	if got != "a_b" {
		t.Fatalf("RelationType(invalid utf8) = %q, want %q", got, "a_b")
	}
}

func TestIsValidSymbol(t *testing.T) {
	if IsValidSymbol("") {
		t.Fatalf("empty symbol must not be valid")
	}
	if !IsValidSymbol("REL_3_step") {
		t.Fatalf("expected REL_3_step to be valid")
	}
	if IsValidSymbol("a`b") {
		t.Fatalf("backtick must never be valid")
	}
}

func TestIsDegenerate(t *testing.T) {
	for _, s := range []string{"", "_", "____"} {
		if !IsDegenerate(s) {
			t.Fatalf("expected %q to be degenerate", s)
		}
	}
	for _, s := range []string{"a", "_a_", "REL_1"} {
		if IsDegenerate(s) {
			t.Fatalf("expected %q not to be degenerate", s)
		}
	}
}

func FuzzRelationType(f *testing.F) {
	for _, seed := range []string{"", "3-step", "低温", "a b/c-d", "\x00\xff", "REL_", "0", "`DROP`"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		got := RelationType(s)
		if again := RelationType(s); again != got {
			t.Fatalf("not deterministic: %q then %q", got, again)
		}
		if got == "" {
			if s != "" {
				t.Fatalf("non-empty input %q produced empty symbol", s)
			}
			return
		}
		if !symbolPattern.MatchString(got) {
			t.Fatalf("RelationType(%q) = %q does not match symbol grammar", s, got)
		}
		if !IsValidSymbol(got) {
			t.Fatalf("RelationType(%q) = %q rejected by IsValidSymbol", s, got)
		}
		if got[0] >= '0' && got[0] <= '9' {
			t.Fatalf("RelationType(%q) = %q starts with a digit", s, got)
		}
	})
}
