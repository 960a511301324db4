package utils

import "testing"

func TestRecyclableIDGenerator(t *testing.T) {
	g := NewRecyclableIDGenerator()

	a := g.NextID()
	b := g.NextID()
	if a == 0 || b == 0 {
		t.Error("ids must be non-zero")
	}
	if a == b {
		t.Errorf("duplicate id %d", a)
	}

	g.Recycle(a)
	g.next = a
	if got := g.NextID(); got != a {
		t.Errorf("recycled id not reused: got %d, want %d", got, a)
	}

	// a live id is skipped
	g.next = b
	if got := g.NextID(); got == b {
		t.Errorf("live id %d handed out twice", b)
	}
}
