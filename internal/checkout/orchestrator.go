// Package checkout implements the strictly ordered pipeline that moves a
// cart to a paid order: materialize the remote cart, compute a priced
// preview, merge checkout details, place the order, and hand off to the
// external payment gateway.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"shopfront/internal/model"
	"shopfront/internal/nav"
)

// ErrCartUnavailable reports that the authoritative cart could not be
// materialized, failing the pipeline at its first stage.
var ErrCartUnavailable = errors.New("cart unavailable")

// ErrNotStarted reports a coupon or order operation before Begin.
var ErrNotStarted = errors.New("checkout not started")

// Backend is the slice of the commerce API the orchestrator drives.
type Backend interface {
	FetchCart(ctx context.Context, token string) (model.CartSnapshot, error)
	Proceed(ctx context.Context, token string, lines []model.CartLine, coupon string) (*model.CheckoutContext, error)
	ProceedWithPayment(ctx context.Context, token string, lines []model.CartLine, coupon string, mode model.PaymentMode, amount int64) (*model.CheckoutContext, error)
	CheckoutDetails(ctx context.Context, token string) (model.CheckoutDetails, error)
	PlaceOrder(ctx context.Context, token string, lines []model.CartLine, coupon string, mode model.PaymentMode, amount int64) (*model.OrderPlacementResult, error)
}

// Config holds orchestrator settings.
type Config struct {
	// MinimumOrderValue in paise; orders below it are blocked before any
	// network call. Zero disables the guard.
	MinimumOrderValue int64
	// PaymentBaseURL is the origin the payment surface lives on.
	PaymentBaseURL string
	// CallbackURL is where the gateway returns the buyer after payment.
	CallbackURL string
	// ProductInfo labels the order in the payment token.
	ProductInfo string
}

// Buyer is the contact information carried in the payment handoff token.
type Buyer struct {
	Name   string
	Email  string
	Phone  string
	UserID string
}

// Orchestrator owns the ephemeral checkout context: created by Begin,
// replaced by coupon operations, discarded by Abandon or a placed order.
type Orchestrator struct {
	mu      sync.Mutex
	base    *model.CheckoutContext // pre-coupon pricing, for local coupon removal
	current *model.CheckoutContext

	backend Backend
	nav     *nav.Machine
	cfg     Config
	logger  *slog.Logger
}

// New creates an orchestrator.
func New(backend Backend, navm *nav.Machine, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.ProductInfo == "" {
		cfg.ProductInfo = "Shopfront Order"
	}
	return &Orchestrator{
		backend: backend,
		nav:     navm,
		cfg:     cfg,
		logger:  logger,
	}
}

// Context returns the active checkout context, nil when none.
func (o *Orchestrator) Context() *model.CheckoutContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Abandon discards the checkout context.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	o.base = nil
	o.current = nil
	o.mu.Unlock()
}

// Begin runs the first three pipeline stages: materialize the
// authoritative cart, compute the priced preview, and merge checkout
// details over it. The merged context becomes the active checkout.
//
// A details failure is not fatal, since the preview alone is enough to
// render checkout. Materialize and proceed failures abort.
func (o *Orchestrator) Begin(ctx context.Context, token string) (*model.CheckoutContext, error) {
	snap, err := o.backend.FetchCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	preview, err := o.backend.Proceed(ctx, token, snap.Lines, "")
	if err != nil {
		// Pricing/coupon rejections carry the server message verbatim.
		return nil, err
	}

	details, err := o.backend.CheckoutDetails(ctx, token)
	if err != nil {
		o.logger.Warn("checkout details unavailable", slog.String("error", err.Error()))
	} else {
		preview.Details = details
	}

	o.mu.Lock()
	o.base = clone(preview)
	o.current = preview
	o.mu.Unlock()
	return preview, nil
}

// ApplyCoupon re-runs the proceed stage with the code attached and, on
// success, replaces the displayed pricing breakdown. The server is
// stateless about an unconfirmed coupon, so a rejected code leaves the
// active context untouched.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, token, code string) (*model.CheckoutContext, error) {
	o.mu.Lock()
	base := o.base
	o.mu.Unlock()
	if base == nil {
		return nil, ErrNotStarted
	}

	snap, err := o.backend.FetchCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	priced, err := o.backend.Proceed(ctx, token, snap.Lines, code)
	if err != nil {
		return nil, err
	}
	priced.Details = base.Details

	o.mu.Lock()
	o.current = priced
	o.mu.Unlock()
	return priced, nil
}

// RemoveCoupon restores the pre-coupon pricing locally. No network call:
// the server holds no applied-coupon state until the next proceed or
// place-order call.
func (o *Orchestrator) RemoveCoupon() *model.CheckoutContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.base == nil {
		return nil
	}
	o.current = clone(o.base)
	return o.current
}

// Shortfall returns how far total falls below the minimum order value,
// zero when the order may proceed. Callers must check this before
// PlaceOrder.
func (o *Orchestrator) Shortfall(total int64) int64 {
	if o.cfg.MinimumOrderValue <= 0 || total >= o.cfg.MinimumOrderValue {
		return 0
	}
	return o.cfg.MinimumOrderValue - total
}

// PlaceOrder runs the order stage: re-materialize the cart, submit the
// payment-bearing proceed, then place the order. Success requires HTTP
// success, a true business status, and a non-empty order identifier;
// anything missing is failure.
//
// Calling this below the minimum order value is a precondition violation
// the guard should have prevented.
func (o *Orchestrator) PlaceOrder(ctx context.Context, token string, mode model.PaymentMode) (*model.OrderPlacementResult, error) {
	o.mu.Lock()
	current := o.current
	o.mu.Unlock()
	if current == nil {
		return nil, ErrNotStarted
	}

	if short := o.Shortfall(current.GrandTotal); short > 0 {
		return nil, model.NewInvariantError(fmt.Sprintf(
			"order total ₹%s is ₹%s below the ₹%s minimum",
			model.FormatRupees(current.GrandTotal),
			model.FormatRupees(short),
			model.FormatRupees(o.cfg.MinimumOrderValue)))
	}

	snap, err := o.backend.FetchCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	payable := current.Payable(mode)
	if payable == 0 && mode == model.PaymentCashOnDelivery {
		payable = current.GrandTotal
	}

	if _, err := o.backend.ProceedWithPayment(ctx, token, snap.Lines, current.CouponCode, mode, payable); err != nil {
		return nil, err
	}

	result, err := o.backend.PlaceOrder(ctx, token, snap.Lines, current.CouponCode, mode, payable)
	if err != nil {
		return nil, err
	}

	// Order placed: the checkout context is spent.
	o.Abandon()
	return result, nil
}

func clone(c *model.CheckoutContext) *model.CheckoutContext {
	out := *c
	out.Items = make([]model.CartLine, len(c.Items))
	copy(out.Items, c.Items)
	if c.PaymentSummary != nil {
		ps := *c.PaymentSummary
		if c.PaymentSummary.FullPayment != nil {
			fp := *c.PaymentSummary.FullPayment
			ps.FullPayment = &fp
		}
		if c.PaymentSummary.CashOnDelivery != nil {
			cod := *c.PaymentSummary.CashOnDelivery
			ps.CashOnDelivery = &cod
		}
		out.PaymentSummary = &ps
	}
	return &out
}
