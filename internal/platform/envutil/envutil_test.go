package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("GL_TEST_INT", "12")
	if got := Int("GL_TEST_INT", 3); got != 12 {
		t.Fatalf("Int = %d, want 12", got)
	}
	t.Setenv("GL_TEST_INT", "twelve")
	if got := Int("GL_TEST_INT", 3); got != 3 {
		t.Fatalf("Int fallback = %d, want 3", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("GL_TEST_BOOL", "yes")
	if !Bool("GL_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("GL_TEST_BOOL", "off")
	if Bool("GL_TEST_BOOL", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("GL_TEST_BOOL", "maybe")
	if !Bool("GL_TEST_BOOL", true) {
		t.Fatalf("expected default")
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", 5 * time.Second},
		{"30", 30 * time.Second},
		{"250ms", 250 * time.Millisecond},
		{"-1", 5 * time.Second},
		{"soon", 5 * time.Second},
	}
	for _, tc := range cases {
		t.Setenv("GL_TEST_DUR", tc.raw)
		if got := Duration("GL_TEST_DUR", 5*time.Second); got != tc.want {
			t.Fatalf("Duration(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestString(t *testing.T) {
	t.Setenv("GL_TEST_STR", "  value ")
	if got := String("GL_TEST_STR", "def"); got != "value" {
		t.Fatalf("String = %q", got)
	}
}
