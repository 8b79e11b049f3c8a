package redis

import "testing"

func TestIdempotencyStore_KeyIsScoped(t *testing.T) {
	s := NewIdempotencyStore(nil)

	a := s.key("create_event:org-1", "k")
	b := s.key("create_event:org-2", "k")
	if a == b {
		t.Fatalf("expected distinct keys per scope, got %q", a)
	}
	if a != "idem:create_event:org-1:k" {
		t.Errorf("unexpected key format: %q", a)
	}
}
