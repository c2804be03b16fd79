package approval

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestRequestAndCheck(t *testing.T) {
	s := newTestStore(t)

	if err := s.Request("external_domain_access", "external research requires approval", "u1", "research competitor pricing"); err != nil {
		t.Fatalf("request: %v", err)
	}

	status, err := s.Check("external_domain_access")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status != StatusPending {
		t.Errorf("expected pending, got %s", status)
	}
}

func TestRequestIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.Request("key1", "r", "u1", "q"); err != nil {
		t.Fatal(err)
	}
	if err := s.Approve("key1", 0); err != nil {
		t.Fatal(err)
	}
	// Second Request must not reset the resolved state.
	if err := s.Request("key1", "r", "u1", "q"); err != nil {
		t.Fatal(err)
	}
	status, _ := s.Check("key1")
	if status != StatusApproved {
		t.Errorf("expected approved after duplicate request, got %s", status)
	}
}

func TestApproveAndConsume(t *testing.T) {
	s := newTestStore(t)
	if err := s.Request("key1", "r", "u1", "q"); err != nil {
		t.Fatal(err)
	}

	if err := s.Approve("key1", 0); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := s.Consume("key1"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := s.Consume("key1"); err == nil {
		t.Error("second consume should fail")
	}
}

func TestTimedApprovalExpires(t *testing.T) {
	s := newTestStore(t)
	if err := s.Request("key1", "r", "u1", "q"); err != nil {
		t.Fatal(err)
	}
	if err := s.Approve("key1", time.Millisecond); err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)
	status, err := s.Check("key1")
	if err != nil {
		t.Fatal(err)
	}
	if status != StatusExpired {
		t.Errorf("expected expired, got %s", status)
	}
}

func TestDeny(t *testing.T) {
	s := newTestStore(t)
	if err := s.Request("key1", "r", "u1", "q"); err != nil {
		t.Fatal(err)
	}
	if err := s.Deny("key1"); err != nil {
		t.Fatal(err)
	}
	status, _ := s.Check("key1")
	if status != StatusDenied {
		t.Errorf("expected denied, got %s", status)
	}
}

func TestListAndCleanup(t *testing.T) {
	s := newTestStore(t)
	for _, k := range []string{"a", "b", "c"} {
		if err := s.Request(k, "r", "u1", "q"); err != nil {
			t.Fatal(err)
		}
	}

	approvals, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(approvals) != 3 {
		t.Errorf("expected 3 approvals, got %d", len(approvals))
	}

	if err := s.Cleanup(); err != nil {
		t.Fatal(err)
	}
	approvals, _ = s.List()
	if len(approvals) != 0 {
		t.Errorf("expected empty store after cleanup, got %d", len(approvals))
	}
}

func TestKeyValidation(t *testing.T) {
	s := newTestStore(t)

	bad := []string{"", "../etc/passwd", "a/b", "key with spaces", "key;rm"}
	for _, k := range bad {
		if err := s.Request(k, "r", "u1", "q"); err == nil {
			t.Errorf("key %q should be rejected", k)
		}
	}
}
