package storage

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok || v != "v1" {
		t.Fatalf("Get(k) = %q ok=%v err=%v, want v1", v, ok, err)
	}

	if err := s.Set("k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, _, _ = s.Get("k")
	if v != "v2" {
		t.Errorf("Get(k) after overwrite = %q, want v2", v)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Error("Get(k) after delete still present")
	}
}

func TestKeySchema(t *testing.T) {
	if got := PrivKeyKey(1001); got != "1001:privkey" {
		t.Errorf("PrivKeyKey = %q", got)
	}
	if got := AccountAddressKey(1001); got != "1001:account-address" {
		t.Errorf("AccountAddressKey = %q", got)
	}
	if got := AccountInitializedKey(1001); got != "1001:account-initialized" {
		t.Errorf("AccountInitializedKey = %q", got)
	}
	if got := AllowanceKey(1001, "USDC"); got != "1001:allowance:USDC" {
		t.Errorf("AllowanceKey = %q", got)
	}
}
