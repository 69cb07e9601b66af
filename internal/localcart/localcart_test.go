package localcart

import (
	"log/slog"
	"testing"

	"shopfront/internal/model"
	"shopfront/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func product(id string, price int64) model.Product {
	return model.Product{ID: id, Name: "Product " + id, UnitPrice: price, Purchasable: true}
}

func TestAddMergesQuantity(t *testing.T) {
	s := New(storage.NewMemStore(), testLogger())

	s.Add(product("A", 40000), 2)
	s.Add(product("A", 40000), 3)
	s.Add(product("B", 10000), 1)

	snap := s.Get()
	if len(snap.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(snap.Lines))
	}
	line, _ := snap.Line("A")
	if line.Quantity != 5 {
		t.Errorf("A quantity = %d, want 5", line.Quantity)
	}
	if got := snap.ItemCount(); got != 6 {
		t.Errorf("ItemCount = %d, want 6", got)
	}
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	s := New(storage.NewMemStore(), testLogger())
	s.Add(product("A", 40000), 2)

	s.SetQuantity("A", 0)

	if got := len(s.Get().Lines); got != 0 {
		t.Errorf("lines after zero quantity = %d, want 0", got)
	}
}

func TestSetQuantityUnknownProductIgnored(t *testing.T) {
	s := New(storage.NewMemStore(), testLogger())
	s.Add(product("A", 40000), 2)

	s.SetQuantity("ghost", 7)

	snap := s.Get()
	if len(snap.Lines) != 1 || snap.Lines[0].ProductID != "A" {
		t.Errorf("unexpected lines: %+v", snap.Lines)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	s := New(storage.NewMemStore(), testLogger())
	s.Add(product("A", 40000), 1)

	var notified int
	s.Subscribe(func() { notified++ })

	s.Remove("ghost")
	if notified != 0 {
		t.Errorf("no-op removal notified %d times", notified)
	}
	s.Remove("A")
	if notified != 1 {
		t.Errorf("removal notified %d times, want 1", notified)
	}
}

func TestClearEmptiesAndPersists(t *testing.T) {
	kv := storage.NewMemStore()
	s := New(kv, testLogger())
	s.Add(product("A", 40000), 2)
	s.Add(product("B", 10000), 1)

	notified := 0
	s.Subscribe(func() { notified++ })

	s.Clear()

	if got := len(s.Get().Lines); got != 0 {
		t.Fatalf("lines after clear = %d, want 0", got)
	}
	if notified != 1 {
		t.Errorf("notifications = %d, want 1", notified)
	}

	// The empty cart is what a fresh store sees, not the old lines
	reopened := New(kv, testLogger())
	if got := len(reopened.Get().Lines); got != 0 {
		t.Errorf("reopened lines = %d, want 0", got)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv := storage.NewMemStore()

	s := New(kv, testLogger())
	s.Add(product("A", 40000), 2)
	s.Add(product("B", 10000), 1)
	s.SetQuantity("B", 4)

	// A fresh store over the same kv replays the saved cart
	s2 := New(kv, testLogger())
	snap := s2.Get()
	if len(snap.Lines) != 2 {
		t.Fatalf("replayed lines = %d, want 2", len(snap.Lines))
	}
	a, _ := snap.Line("A")
	b, _ := snap.Line("B")
	if a.Quantity != 2 || b.Quantity != 4 {
		t.Errorf("replayed quantities A=%d B=%d, want 2 and 4", a.Quantity, b.Quantity)
	}
	if a.Source != model.SourceLocal {
		t.Errorf("replayed source = %s, want local", a.Source)
	}
}

func TestLoadSanitizesSavedState(t *testing.T) {
	kv := storage.NewMemStore()
	// Hand-crafted saved state violating both invariants: a non-positive
	// quantity and a duplicated product ID.
	kv.Set(storage.KeyCart, `[
		{"product_id":"A","quantity":2,"unit_price":40000},
		{"product_id":"A","quantity":3,"unit_price":40000},
		{"product_id":"B","quantity":0,"unit_price":10000},
		{"product_id":"C","quantity":-1,"unit_price":10000}
	]`)

	s := New(kv, testLogger())
	snap := s.Get()
	if len(snap.Lines) != 1 {
		t.Fatalf("lines = %d, want 1: %+v", len(snap.Lines), snap.Lines)
	}
	if a, _ := snap.Line("A"); a.Quantity != 5 {
		t.Errorf("collapsed quantity = %d, want 5", a.Quantity)
	}
}

func TestCorruptSavedCartDropped(t *testing.T) {
	kv := storage.NewMemStore()
	kv.Set(storage.KeyCart, "{broken")

	s := New(kv, testLogger())
	if got := len(s.Get().Lines); got != 0 {
		t.Errorf("corrupt cart produced %d lines", got)
	}
	if _, ok := kv.Get(storage.KeyCart); ok {
		t.Error("corrupt saved cart not deleted")
	}
}

func TestWriteFailureIsNonFatal(t *testing.T) {
	kv := storage.NewMemStore()
	kv.FailWrites = true

	s := New(kv, testLogger())
	s.Add(product("A", 40000), 2)

	// In-memory state stays authoritative despite the failed persist
	if got := s.Get().ItemCount(); got != 2 {
		t.Errorf("ItemCount = %d, want 2", got)
	}
}
