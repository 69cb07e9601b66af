// Package nav implements the single-page navigation state machine: the
// current and previous screen, per-screen ephemeral payload slots, the
// active category filter, and the bridge to the platform history stack so
// the back action stays meaningful.
package nav

import (
	"log/slog"
	"sync"

	"shopfront/internal/model"
	"shopfront/internal/storage"
)

// Screen names a navigable screen. The set is open: the machine treats any
// value as a top-level screen unless it is flagged overlay-context.
type Screen string

const (
	ScreenHome           Screen = "home"
	ScreenProducts       Screen = "products"
	ScreenProductDetails Screen = "productDetails"
	ScreenCart           Screen = "cart"
	ScreenCheckout       Screen = "checkout"
	ScreenAuth           Screen = "auth"
	ScreenNewAddress     Screen = "addNewAddress"
	ScreenOrderDetails   Screen = "viewDetails"
	ScreenPayment        Screen = "payment"
	ScreenOrderSuccess   Screen = "order-success"
)

// OverlayContext reports whether entering this screen must remember the
// invoking screen so a close/back action returns there.
func (s Screen) OverlayContext() bool {
	switch s {
	case ScreenProductDetails, ScreenAuth, ScreenNewAddress:
		return true
	}
	return false
}

// CategoryBestSellers is the sentinel category for the cross-cutting
// best-sellers view. It is cleared when the user lands back on Home.
const CategoryBestSellers = "bestsellers"

// History is the platform address/history surface. The machine pushes
// entries and strips spent query parameters; the platform delivers its
// back signal to Machine.Back, never popping history behind the machine.
type History interface {
	// Push adds a history entry for the given screen at the current URL.
	Push(screen Screen)
	// StripQuery replaces the current entry's URL with the bare path,
	// discarding query parameters.
	StripQuery()
}

// Payload is the tagged union of per-screen navigation payloads. Each
// target screen reads from exactly one slot; slots for other screens are
// left untouched so returning to a screen preserves its last payload.
type Payload interface{ isPayload() }

// ProductPayload feeds the product-detail screen.
type ProductPayload struct {
	Product model.Product
	// Details is the raw item detail document fetched for the product;
	// the detail screen renders it as-is.
	Details map[string]any
}

// CheckoutPayload feeds the checkout screen.
type CheckoutPayload struct {
	Context *model.CheckoutContext
}

// OrderPayload feeds the order-detail screen.
type OrderPayload struct {
	OrderID string
}

// AddressPayload feeds the new-address screen. Address is nil when adding
// rather than editing.
type AddressPayload struct {
	Address *model.ShippingAddress
}

func (ProductPayload) isPayload()  {}
func (CheckoutPayload) isPayload() {}
func (OrderPayload) isPayload()    {}
func (AddressPayload) isPayload()  {}

// Option adjusts a NavigateTo transition.
type Option func(*navOptions)

type navOptions struct {
	category       string
	setCategory    bool
	fromBestSeller bool
}

// WithCategory sets the active category filter as part of the transition.
func WithCategory(name string) Option {
	return func(o *navOptions) {
		o.category = name
		o.setCategory = true
	}
}

// FromBestSellers marks the transition as entering the cross-cutting
// best-sellers view.
func FromBestSellers() Option {
	return func(o *navOptions) { o.fromBestSeller = true }
}

// Machine runs for the lifetime of the session; its state is created at
// session start with Home current and only ever overwritten through
// NavigateTo.
type Machine struct {
	mu       sync.Mutex
	current  Screen
	previous Screen

	product  *ProductPayload
	checkout *model.CheckoutContext
	orderID  string
	address  *AddressPayload

	category string

	history History
	kv      storage.Store
	logger  *slog.Logger

	onCategoryChange func(category string)
}

// New creates the machine on Home, restoring any persisted category
// filter.
func New(history History, kv storage.Store, logger *slog.Logger) *Machine {
	m := &Machine{
		current:  ScreenHome,
		previous: ScreenHome,
		history:  history,
		kv:       kv,
		logger:   logger,
	}
	if saved, ok := kv.Get(storage.KeySelectedCategory); ok {
		m.category = saved
	}
	return m
}

// OnCategoryChange registers the hook invoked when the active category
// filter changes; the catalog layer uses it to refetch listings.
func (m *Machine) OnCategoryChange(fn func(category string)) {
	m.mu.Lock()
	m.onCategoryChange = fn
	m.mu.Unlock()
}

// Current returns the screen on display.
func (m *Machine) Current() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Previous returns the screen an overlay-context close action returns to.
func (m *Machine) Previous() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.previous
}

// Category returns the active category filter, empty for none.
func (m *Machine) Category() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.category
}

// Product returns the product-detail slot.
func (m *Machine) Product() *ProductPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.product
}

// CheckoutContext returns the checkout slot.
func (m *Machine) CheckoutContext() *model.CheckoutContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkout
}

// OrderID returns the order-detail slot.
func (m *Machine) OrderID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderID
}

// EditingAddress returns the new-address slot.
func (m *Machine) EditingAddress() *AddressPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.address
}

// NavigateTo is the single transition function. Payload may be nil.
func (m *Machine) NavigateTo(screen Screen, payload Payload, opts ...Option) {
	var o navOptions
	for _, opt := range opts {
		opt(&o)
	}

	m.mu.Lock()

	// Order-confirmation URLs are single-use: strip their query
	// parameters from the address bar on the way out.
	if m.current == ScreenOrderSuccess && screen != ScreenOrderSuccess {
		m.history.StripQuery()
	}

	// Entering an overlay-context screen remembers where the user came
	// from, unless we are already on that same overlay, which would
	// make the overlay its own return target.
	if screen.OverlayContext() && m.current != screen {
		m.previous = m.current
	}

	// Push a history entry unless the target is the screen already
	// represented by the previous entry (a back action round-tripping
	// through NavigateTo must not double history).
	if screen != m.previous {
		m.history.Push(screen)
	}

	m.current = screen

	// Route the payload into the slot its target screen reads. Other
	// slots are deliberately left alone.
	switch screen {
	case ScreenProductDetails:
		if p, ok := payload.(ProductPayload); ok {
			m.product = &p
		}
	case ScreenCheckout:
		if p, ok := payload.(CheckoutPayload); ok {
			m.checkout = p.Context
		}
	case ScreenOrderDetails:
		if p, ok := payload.(OrderPayload); ok {
			m.orderID = p.OrderID
		}
	case ScreenNewAddress:
		if p, ok := payload.(AddressPayload); ok {
			m.address = &p
		}
	}

	changed := false
	if o.setCategory {
		changed = m.setCategoryLocked(o.category) || changed
	}
	if o.fromBestSeller {
		changed = m.setCategoryLocked(CategoryBestSellers) || changed
	}
	// Landing on Home clears the best-sellers sentinel; a real category
	// filter survives the trip home.
	if screen == ScreenHome && m.category == CategoryBestSellers {
		changed = m.setCategoryLocked("") || changed
	}

	hook := m.onCategoryChange
	category := m.category
	m.mu.Unlock()

	// The hook runs outside the lock; it may navigate or refetch.
	if changed && hook != nil {
		hook(category)
	}
}

// Back translates the platform back signal into the same NavigateTo
// transition so every invariant applies on back-navigation too.
func (m *Machine) Back() {
	m.mu.Lock()
	target := m.previous
	m.mu.Unlock()
	if target == "" {
		target = ScreenHome
	}
	m.NavigateTo(target, nil)
}

func (m *Machine) setCategoryLocked(category string) bool {
	if m.category == category {
		return false
	}
	m.category = category
	var err error
	if category == "" {
		err = m.kv.Delete(storage.KeySelectedCategory)
	} else {
		err = m.kv.Set(storage.KeySelectedCategory, category)
	}
	if err != nil {
		m.logger.Warn("persisting category filter", slog.String("error", err.Error()))
	}
	return true
}
