package cache

import "testing"

func TestKeyIsDeterministicAndOpaque(t *testing.T) {
	a := Key("tok-1")
	b := Key("tok-1")
	c := Key("tok-2")

	if a != b {
		t.Errorf("same credential produced %q and %q", a, b)
	}
	if a == c {
		t.Error("distinct credentials collided")
	}
	if len(a) != 16 {
		t.Errorf("len = %d, want 16 hex chars", len(a))
	}
	if a == "tok-1" {
		t.Error("credential leaked into the key")
	}
}
