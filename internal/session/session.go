// Package session composes the storefront runtime: it owns the identity,
// wires the cart engine, navigation machine, and checkout orchestrator
// together, and keeps remote state fresh while a customer is signed in.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopfront/internal/cart"
	"shopfront/internal/checkout"
	"shopfront/internal/model"
	"shopfront/internal/nav"
)

// DefaultRefreshInterval is how often remote cart state is re-fetched to
// absorb drift from other devices on the same account.
const DefaultRefreshInterval = 30 * time.Second

// AddressBook is the slice of the backend the controller needs to resolve
// the buyer's primary contact fields for payment handoff.
type AddressBook interface {
	ShippingAddresses(ctx context.Context, token string) ([]model.ShippingAddress, error)
}

// Config holds session controller settings.
type Config struct {
	RefreshInterval time.Duration
	ContactEmail    string
}

// Controller is the composition root for one customer session.
type Controller struct {
	mu       sync.Mutex
	session  model.Session
	cancel   context.CancelFunc // stops the refresh loop, nil when signed out
	onChange []func(model.Session)

	engine    *cart.Engine
	checkout  *checkout.Orchestrator
	nav       *nav.Machine
	addresses AddressBook
	cfg       Config
	logger    *slog.Logger
}

// New creates a signed-out controller and installs the unauthorized hook:
// any remote call that comes back unauthenticated demotes the session to
// local authority instead of retrying.
func New(engine *cart.Engine, co *checkout.Orchestrator, navm *nav.Machine, addresses AddressBook, cfg Config, logger *slog.Logger) *Controller {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	c := &Controller{
		session: model.Session{
			ID:        uuid.NewString(),
			Authority: model.AuthorityLocal,
		},
		engine:    engine,
		checkout:  co,
		nav:       navm,
		addresses: addresses,
		cfg:       cfg,
		logger:    logger,
	}
	engine.OnUnauthorized(func() {
		c.logger.Warn("session token rejected, signing out")
		c.Logout()
	})
	return c
}

// Session returns the current session state.
func (c *Controller) Session() model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// OnSessionChange registers a callback for login and logout transitions.
func (c *Controller) OnSessionChange(fn func(model.Session)) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Login promotes the session to remote authority. The server cart becomes
// the single source of truth immediately: the local cart is not merged
// into it, only kept aside for the next signed-out session.
func (c *Controller) Login(ctx context.Context, identity model.Identity) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.session.Identity = identity
	c.session.Authority = model.AuthorityRemote
	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	session := c.session
	c.mu.Unlock()

	c.engine.SetAuthority(model.AuthorityRemote, identity.Token)
	if err := c.engine.Refresh(ctx); err != nil {
		c.logger.Warn("initial cart refresh failed", slog.String("error", err.Error()))
	}
	if err := c.engine.RefreshCount(ctx); err != nil {
		c.logger.Warn("initial count refresh failed", slog.String("error", err.Error()))
	}

	go c.refreshLoop(loopCtx)
	c.notify(session)
}

// Logout demotes the session to local authority and stops the refresh
// loop. Any in-flight checkout is abandoned with it.
func (c *Controller) Logout() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.session.Identity = model.Identity{}
	c.session.Authority = model.AuthorityLocal
	session := c.session
	c.mu.Unlock()

	c.checkout.Abandon()
	c.engine.SetAuthority(model.AuthorityLocal, "")
	c.notify(session)
}

// Close tears the controller down.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// Buyer assembles the payment handoff contact block from the signed-in
// identity, preferring the primary shipping address for the phone number.
func (c *Controller) Buyer(ctx context.Context) checkout.Buyer {
	s := c.Session()
	b := checkout.Buyer{
		Name:   s.Identity.DisplayName,
		Phone:  s.Identity.Phone,
		UserID: s.Identity.UserID,
		Email:  c.cfg.ContactEmail,
	}
	addrs, err := c.addresses.ShippingAddresses(ctx, s.Identity.Token)
	if err != nil {
		c.logger.Warn("shipping addresses unavailable", slog.String("error", err.Error()))
		return b
	}
	for _, a := range addrs {
		if a.IsPrimary == 1 {
			if a.Phone != "" {
				b.Phone = a.Phone
			}
			if a.EmailID != "" {
				b.Email = a.EmailID
			}
			break
		}
	}
	return b
}

// refreshLoop re-fetches remote cart state on a fixed interval until the
// session ends. Failures are logged and retried on the next tick; the
// unauthorized hook handles token expiry.
func (c *Controller) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.engine.Refresh(ctx); err != nil {
				c.logger.Debug("periodic cart refresh failed", slog.String("error", err.Error()))
				continue
			}
			if err := c.engine.RefreshCount(ctx); err != nil {
				c.logger.Debug("periodic count refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (c *Controller) notify(s model.Session) {
	c.mu.Lock()
	subs := make([]func(model.Session), len(c.onChange))
	copy(subs, c.onChange)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}
