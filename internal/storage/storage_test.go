package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := s.Set(KeyCart, `{"lines":[]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(KeySelectedCategory, "seeds"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh store over the same directory sees the persisted state
	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok := s2.Get(KeyCart); !ok || v != `{"lines":[]}` {
		t.Errorf("cart = %q, %v", v, ok)
	}
	if v, ok := s2.Get(KeySelectedCategory); !ok || v != "seeds" {
		t.Errorf("category = %q, %v", v, ok)
	}
}

func TestFileStoreDelete(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Set(KeyIdentity, "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(KeyIdentity); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := s2.Get(KeyIdentity); ok {
		t.Error("deleted key survived reopen")
	}
}

func TestFileStoreDiscardsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore on corrupt file: %v", err)
	}
	if _, ok := s.Get(KeyCart); ok {
		t.Error("corrupt file produced data")
	}

	// Store remains usable after discarding
	if err := s.Set(KeyCart, "x"); err != nil {
		t.Fatalf("Set after discard: %v", err)
	}
}

func TestMemStoreFailWritesStillApplies(t *testing.T) {
	s := NewMemStore()
	s.FailWrites = true

	if err := s.Set(KeyCart, "x"); err == nil {
		t.Fatal("expected write error")
	}
	if v, ok := s.Get(KeyCart); !ok || v != "x" {
		t.Errorf("in-memory state not applied: %q, %v", v, ok)
	}
}
