package strutil

import "testing"

func TestNormalizeKeyCollapsesWhitespace(t *testing.T) {
	if got := NormalizeKey("  Hetzner  Online\tGmbH "); got != "hetzner online gmbh" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := NormalizeKey("   "); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestJoinNonEmptySkipsBlanks(t *testing.T) {
	if got := JoinNonEmpty(",", "", "Berlin"); got != "Berlin" {
		t.Fatalf("expected Berlin, got %q", got)
	}
	if got := JoinNonEmpty(",", "DE", "Berlin"); got != "DE,Berlin" {
		t.Fatalf("expected DE,Berlin, got %q", got)
	}
	if got := JoinNonEmpty(","); got != "" {
		t.Fatalf("expected empty join, got %q", got)
	}
}
