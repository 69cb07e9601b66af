// Package localcart implements the guest cart: a purely local item list
// persisted through the storage boundary, with change notifications so
// independent UI subscribers (the floating cart badge) refresh without
// being wired to the mutator.
package localcart

import (
	"encoding/json"
	"log/slog"
	"sync"

	"shopfront/internal/model"
	"shopfront/internal/storage"
)

// Store holds the guest cart. All mutations persist synchronously and
// notify subscribers. Persistence failure is non-fatal: it is logged and
// the in-memory state stays authoritative for the session.
type Store struct {
	mu    sync.Mutex
	lines []model.CartLine

	kv     storage.Store
	logger *slog.Logger
	subs   []func()
}

// New loads any saved guest cart from kv. A corrupt saved cart is dropped.
func New(kv storage.Store, logger *slog.Logger) *Store {
	s := &Store{kv: kv, logger: logger}
	if raw, ok := kv.Get(storage.KeyCart); ok {
		var lines []model.CartLine
		if err := json.Unmarshal([]byte(raw), &lines); err != nil {
			logger.Warn("discarding unreadable saved cart", slog.String("error", err.Error()))
			kv.Delete(storage.KeyCart)
		} else {
			s.lines = sanitize(lines)
		}
	}
	return s
}

// sanitize drops lines violating the quantity invariant and collapses
// duplicate product IDs, which should not exist in saved state but must
// never be loaded if they do.
func sanitize(lines []model.CartLine) []model.CartLine {
	var out []model.CartLine
	seen := make(map[string]int)
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		l.Source = model.SourceLocal
		if i, dup := seen[l.ProductID]; dup {
			out[i].Quantity += l.Quantity
			continue
		}
		seen[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

// Subscribe registers a callback invoked after every mutation.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Get returns a snapshot of the guest cart.
func (s *Store) Get() model.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := model.CartSnapshot{Lines: make([]model.CartLine, len(s.lines))}
	copy(snap.Lines, s.lines)
	return snap
}

// Add merges qty of product into the cart: an existing line's quantity
// grows, a new line is appended. Succeeds unconditionally.
func (s *Store) Add(p model.Product, qty int) {
	if qty <= 0 {
		return
	}
	s.mu.Lock()
	found := false
	for i := range s.lines {
		if s.lines[i].ProductID == p.ID {
			s.lines[i].Quantity += qty
			found = true
			break
		}
	}
	if !found {
		s.lines = append(s.lines, model.CartLine{
			ProductID:   p.ID,
			DisplayName: p.Name,
			UnitPrice:   p.UnitPrice,
			ListPrice:   p.ListPrice,
			Quantity:    qty,
			ImageRef:    p.ImageRef,
			Source:      model.SourceLocal,
		})
	}
	s.persistLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	notify(subs)
}

// SetQuantity rewrites a line's quantity. A quantity of zero or below
// removes the line; a quantity for an unknown product is ignored.
func (s *Store) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		s.Remove(productID)
		return
	}
	s.mu.Lock()
	changed := false
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity = qty
			changed = true
			break
		}
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	s.persistLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	notify(subs)
}

// Remove deletes a line. Removing an absent product is a no-op.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	kept := s.lines[:0]
	removed := false
	for _, l := range s.lines {
		if l.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	if !removed {
		s.mu.Unlock()
		return
	}
	s.persistLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	notify(subs)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.persistLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	notify(subs)
}

func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.lines)
	if err != nil {
		s.logger.Warn("encoding cart for persistence", slog.String("error", err.Error()))
		return
	}
	if err := s.kv.Set(storage.KeyCart, string(raw)); err != nil {
		s.logger.Warn("persisting cart", slog.String("error", err.Error()))
	}
}

func (s *Store) snapshotSubsLocked() []func() {
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	return subs
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
