package pgv2

import "testing"

func TestHandlerFactoryBuildsFresh(t *testing.T) {
	calls := 0
	entry := NewHandlerFactory(func() Handler {
		calls++
		return calls
	})
	r := newTypeRegistry()
	r.register("widget", entry)

	h1, ok := r.resolve("widget")
	if !ok {
		t.Fatal("expected widget to resolve")
	}
	h2, _ := r.resolve("widget")
	if h1 == h2 {
		t.Errorf("factory entries should build a fresh handler per Resolve call, got %v twice", h1)
	}
	if calls != 2 {
		t.Errorf("factory called %d times, want 2", calls)
	}
}

func TestHandlerInstanceIsStable(t *testing.T) {
	inst := &struct{ N int }{N: 7}
	entry := NewHandlerInstance(inst)
	r := newTypeRegistry()
	r.register("widget", entry)

	h1, _ := r.resolve("widget")
	h2, _ := r.resolve("widget")
	if h1 != h2 {
		t.Errorf("instance entries should return the same handler every time")
	}
}

func TestResolveMissingEntry(t *testing.T) {
	r := newTypeRegistry()
	if _, ok := r.resolve("nope"); ok {
		t.Error("expected resolve of an unregistered type to fail")
	}
}
