// Package cart implements the reconciliation engine: one cart interface
// regardless of whether the guest cart (local) or the server cart (remote)
// is the source of truth, with optimistic updates and resync-on-failure
// when remote.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"shopfront/internal/localcart"
	"shopfront/internal/model"
)

// Gateway is the remote cart surface the engine reconciles against.
// Implementations perform exactly one round trip per call with no retries
// and no caching; retry and resync policy lives here.
type Gateway interface {
	FetchCart(ctx context.Context, token string) (model.CartSnapshot, error)
	FetchCount(ctx context.Context, token string) (int, error)
	AddLine(ctx context.Context, token, productID string, qty int) error
	UpdateLine(ctx context.Context, token, productID string, qty int) error
	DeleteLine(ctx context.Context, token, productID string) error
}

// Engine is the single writer of the shared cart snapshot.
//
// Under local authority every mutation is synchronous and unconditional.
// Under remote authority mutations are applied optimistically to the
// visible snapshot first, then confirmed against the gateway; a failed
// confirmation is recovered by re-fetching the authoritative cart, never
// by computing an inverse patch: partial-failure states in a multi-line
// cart are not safely invertible from the client alone.
type Engine struct {
	mu        sync.Mutex
	authority model.CartAuthority
	token     string
	remote    model.CartSnapshot
	count     int

	// pendingAdds marks products optimistically shown as "added" while
	// their AddLine call is in flight. Reverted on failure: a line is
	// never considered added unless the server confirms it.
	pendingAdds map[string]bool

	local  *localcart.Store
	gw     Gateway
	logger *slog.Logger

	subs           []func()
	onUnauthorized func()
}

// New creates an engine starting under local authority.
func New(local *localcart.Store, gw Gateway, logger *slog.Logger) *Engine {
	e := &Engine{
		authority:   model.AuthorityLocal,
		pendingAdds: make(map[string]bool),
		local:       local,
		gw:          gw,
		logger:      logger,
	}
	local.Subscribe(e.notifySubscribers)
	return e
}

// Subscribe registers a callback invoked after every visible cart change.
func (e *Engine) Subscribe(fn func()) {
	e.mu.Lock()
	e.subs = append(e.subs, fn)
	e.mu.Unlock()
}

// OnUnauthorized registers the hook invoked when the gateway rejects the
// token. The session controller uses it to demote to local authority.
func (e *Engine) OnUnauthorized(fn func()) {
	e.mu.Lock()
	e.onUnauthorized = fn
	e.mu.Unlock()
}

// Authority returns the active cart authority.
func (e *Engine) Authority() model.CartAuthority {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.authority
}

// SetAuthority switches the source of truth. Switching to remote empties
// the visible snapshot until the next Refresh returns the server cart;
// the guest cart is not merged in. Switching to local re-exposes the guest
// cart, which was left untouched in local storage.
func (e *Engine) SetAuthority(a model.CartAuthority, token string) {
	e.mu.Lock()
	e.authority = a
	e.token = token
	e.remote = model.CartSnapshot{Version: e.remote.Version + 1}
	e.count = 0
	e.pendingAdds = make(map[string]bool)
	subs := e.subsLocked()
	e.mu.Unlock()
	notify(subs)
}

// Snapshot returns the cart as the UI should display it.
func (e *Engine) Snapshot() model.CartSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.authority == model.AuthorityLocal {
		return e.local.Get()
	}
	return e.remote.Clone()
}

// ItemCount returns the badge count: summed quantities for the guest
// cart, the server-reported line count when remote.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.authority == model.AuthorityLocal {
		return e.local.Get().ItemCount()
	}
	return e.count
}

// IsAdded reports whether a product is in the cart or optimistically
// marked as added while its confirmation is in flight.
func (e *Engine) IsAdded(productID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.authority == model.AuthorityLocal {
		_, ok := e.local.Get().Line(productID)
		return ok
	}
	if e.pendingAdds[productID] {
		return true
	}
	_, ok := e.remote.Line(productID)
	return ok
}

// AddToCart adds qty of product. Local authority mutates the guest cart
// synchronously and cannot fail. Remote authority shows the item as added
// immediately, then confirms with the server; on rejection the mark is
// reverted and the error surfaced.
func (e *Engine) AddToCart(ctx context.Context, p model.Product, qty int) error {
	if qty <= 0 {
		qty = 1
	}

	e.mu.Lock()
	if e.authority == model.AuthorityLocal {
		e.mu.Unlock()
		e.local.Add(p, qty)
		return nil
	}

	token := e.token
	e.pendingAdds[p.ID] = true
	subs := e.subsLocked()
	e.mu.Unlock()
	notify(subs)

	if err := e.gw.AddLine(ctx, token, p.ID, qty); err != nil {
		e.mu.Lock()
		delete(e.pendingAdds, p.ID)
		subs = e.subsLocked()
		e.mu.Unlock()
		notify(subs)
		e.handleUnauthorized(err)
		return err
	}

	// Confirmed. The pending mark stays until the next refresh replaces
	// it with the server line; pull count and cart so the badge and the
	// snapshot converge without waiting for the periodic refresh.
	if err := e.Refresh(ctx); err != nil {
		e.logger.Warn("cart refresh after add", slog.String("error", err.Error()))
	}
	if err := e.RefreshCount(ctx); err != nil {
		e.logger.Warn("count refresh after add", slog.String("error", err.Error()))
	}
	return nil
}

// UpdateQuantity rewrites a line's quantity. A quantity of zero or below
// is translated to removal. Remote authority applies the rewrite
// optimistically (the UI never stalls on network latency) and resyncs
// from the server if the confirmation fails.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return e.RemoveLine(ctx, productID)
	}

	e.mu.Lock()
	if e.authority == model.AuthorityLocal {
		e.mu.Unlock()
		e.local.SetQuantity(productID, qty)
		return nil
	}

	token := e.token
	e.applyOptimisticLocked(func(s *model.CartSnapshot) {
		for i := range s.Lines {
			if s.Lines[i].ProductID == productID {
				s.Lines[i].Quantity = qty
			}
		}
	})
	subs := e.subsLocked()
	e.mu.Unlock()
	notify(subs)

	if err := e.gw.UpdateLine(ctx, token, productID, qty); err != nil {
		e.handleUnauthorized(err)
		e.resync(ctx)
		return err
	}
	return nil
}

// RemoveLine removes a line. Remote authority removes it from the visible
// snapshot (and its contribution from the displayed total) before
// confirmation; a failed confirmation re-fetches to restore truth.
func (e *Engine) RemoveLine(ctx context.Context, productID string) error {
	e.mu.Lock()
	if e.authority == model.AuthorityLocal {
		e.mu.Unlock()
		e.local.Remove(productID)
		return nil
	}

	token := e.token
	e.applyOptimisticLocked(func(s *model.CartSnapshot) {
		kept := s.Lines[:0]
		for _, l := range s.Lines {
			if l.ProductID != productID {
				kept = append(kept, l)
			}
		}
		s.Lines = kept
	})
	delete(e.pendingAdds, productID)
	subs := e.subsLocked()
	e.mu.Unlock()
	notify(subs)

	if err := e.gw.DeleteLine(ctx, token, productID); err != nil {
		e.handleUnauthorized(err)
		e.resync(ctx)
		return err
	}
	if err := e.RefreshCount(ctx); err != nil {
		e.logger.Warn("count refresh after remove", slog.String("error", err.Error()))
	}
	return nil
}

// Refresh pulls the authoritative remote cart and replaces the visible
// snapshot. A refresh that raced with a newer optimistic write is
// discarded: the later client write wins until its own confirmation or
// resync lands.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.authority != model.AuthorityRemote {
		e.mu.Unlock()
		return nil
	}
	token := e.token
	started := e.remote.Version
	e.mu.Unlock()

	snap, err := e.gw.FetchCart(ctx, token)
	if err != nil {
		e.handleUnauthorized(err)
		return err
	}

	e.mu.Lock()
	if e.authority != model.AuthorityRemote || e.remote.Version != started {
		e.mu.Unlock()
		return nil
	}
	snap.Version = started + 1
	e.remote = snap
	e.pendingAdds = make(map[string]bool)
	subs := e.subsLocked()
	e.mu.Unlock()
	notify(subs)
	return nil
}

// RefreshCount pulls the server-reported cart count.
func (e *Engine) RefreshCount(ctx context.Context) error {
	e.mu.Lock()
	if e.authority != model.AuthorityRemote {
		e.mu.Unlock()
		return nil
	}
	token := e.token
	e.mu.Unlock()

	n, err := e.gw.FetchCount(ctx, token)
	if err != nil {
		e.handleUnauthorized(err)
		return err
	}

	e.mu.Lock()
	changed := e.count != n
	e.count = n
	subs := e.subsLocked()
	e.mu.Unlock()
	if changed {
		notify(subs)
	}
	return nil
}

// applyOptimisticLocked clones the snapshot, applies the patch, marks the
// server total stale (the locally recomputed fallback shows until the
// server speaks again), and bumps the version.
func (e *Engine) applyOptimisticLocked(patch func(*model.CartSnapshot)) {
	snap := e.remote.Clone()
	patch(&snap)
	snap.RemoteTotalFresh = false
	snap.Version = e.remote.Version + 1
	e.remote = snap
}

// resync performs the single re-fetch recovery allowed per failed user
// action. Its own failure is logged, not retried.
func (e *Engine) resync(ctx context.Context) {
	if err := e.Refresh(ctx); err != nil {
		e.logger.Warn("cart resync failed", slog.String("error", err.Error()))
	}
}

// handleUnauthorized fires the demotion hook when the backend rejected
// the token. Unauthorized is never retried.
func (e *Engine) handleUnauthorized(err error) {
	if !errors.Is(err, model.ErrUnauthorized) {
		return
	}
	e.mu.Lock()
	fn := e.onUnauthorized
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *Engine) subsLocked() []func() {
	subs := make([]func(), len(e.subs))
	copy(subs, e.subs)
	return subs
}

func (e *Engine) notifySubscribers() {
	e.mu.Lock()
	subs := e.subsLocked()
	e.mu.Unlock()
	notify(subs)
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
