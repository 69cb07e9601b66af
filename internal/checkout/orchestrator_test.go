package checkout

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/model"
	"shopfront/internal/nav"
	"shopfront/internal/storage"
)

// fakeBackend scripts the checkout pipeline calls and records their order.
type fakeBackend struct {
	cart       model.CartSnapshot
	cartErr    error
	proceedErr error
	details    model.CheckoutDetails
	detailsErr error
	placed     *model.OrderPlacementResult
	placeErr   error

	// couponDiscounts maps accepted codes to their discount in paise;
	// unknown codes are rejected the way the server would.
	couponDiscounts map[string]int64

	calls []string
}

func (b *fakeBackend) FetchCart(ctx context.Context, token string) (model.CartSnapshot, error) {
	b.calls = append(b.calls, "fetch_cart")
	if b.cartErr != nil {
		return model.CartSnapshot{}, b.cartErr
	}
	return b.cart.Clone(), nil
}

func (b *fakeBackend) Proceed(ctx context.Context, token string, lines []model.CartLine, coupon string) (*model.CheckoutContext, error) {
	b.calls = append(b.calls, "proceed")
	return b.price(lines, coupon)
}

func (b *fakeBackend) ProceedWithPayment(ctx context.Context, token string, lines []model.CartLine, coupon string, mode model.PaymentMode, amount int64) (*model.CheckoutContext, error) {
	b.calls = append(b.calls, "proceed_payment")
	return b.price(lines, coupon)
}

func (b *fakeBackend) price(lines []model.CartLine, coupon string) (*model.CheckoutContext, error) {
	if b.proceedErr != nil {
		return nil, b.proceedErr
	}
	cc := &model.CheckoutContext{
		Items:      append([]model.CartLine(nil), lines...),
		CouponCode: coupon,
	}
	for _, l := range lines {
		cc.GrandTotal += l.Amount()
	}
	if coupon != "" {
		discount, ok := b.couponDiscounts[coupon]
		if !ok {
			return nil, model.NewRejectedError("Coupon " + coupon + " is not valid")
		}
		cc.DiscountAmount = discount
		cc.GrandTotal -= discount
	}
	return cc, nil
}

func (b *fakeBackend) CheckoutDetails(ctx context.Context, token string) (model.CheckoutDetails, error) {
	b.calls = append(b.calls, "details")
	if b.detailsErr != nil {
		return model.CheckoutDetails{}, b.detailsErr
	}
	return b.details, nil
}

func (b *fakeBackend) PlaceOrder(ctx context.Context, token string, lines []model.CartLine, coupon string, mode model.PaymentMode, amount int64) (*model.OrderPlacementResult, error) {
	b.calls = append(b.calls, "place_order")
	if b.placeErr != nil {
		return nil, b.placeErr
	}
	if b.placed != nil {
		return b.placed, nil
	}
	return &model.OrderPlacementResult{OrderID: "SO-00042", GrandTotal: amount, PaymentMode: mode}, nil
}

func cartOf(lines ...model.CartLine) model.CartSnapshot {
	return model.CartSnapshot{Lines: lines, RemoteTotalFresh: true}
}

func line(id string, price int64, qty int) model.CartLine {
	return model.CartLine{ProductID: id, DisplayName: "Product " + id, UnitPrice: price, Quantity: qty, Source: model.SourceRemote}
}

func newTestOrchestrator(t *testing.T, b *fakeBackend, cfg Config) (*Orchestrator, *nav.Machine) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	navm := nav.New(nav.NewMemoryHistory(), storage.NewMemStore(), logger)
	return New(b, navm, cfg, logger), navm
}

func TestBeginMergesDetailsOverPreview(t *testing.T) {
	b := &fakeBackend{
		cart: cartOf(line("A", 40000, 2), line("B", 10000, 1)),
		details: model.CheckoutDetails{
			CustomerName:           "Asha Rao",
			ShippingAddressDisplay: "12 Garden Lane, Pune",
		},
	}
	o, _ := newTestOrchestrator(t, b, Config{})

	cc, err := o.Begin(t.Context(), "tok")
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch_cart", "proceed", "details"}, b.calls)
	assert.Equal(t, int64(90000), cc.GrandTotal)
	assert.Equal(t, "Asha Rao", cc.Details.CustomerName)
	assert.Same(t, cc, o.Context())
}

func TestBeginFailsWhenCartUnavailable(t *testing.T) {
	b := &fakeBackend{cartErr: model.NewUnavailableError("cart", errors.New("timeout"))}
	o, _ := newTestOrchestrator(t, b, Config{})

	_, err := o.Begin(t.Context(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCartUnavailable))
	assert.Nil(t, o.Context())
}

func TestBeginSurfacesProceedRejectionVerbatim(t *testing.T) {
	b := &fakeBackend{
		cart:       cartOf(line("A", 40000, 2)),
		proceedErr: model.NewRejectedError("Item SEED-01 is out of stock"),
	}
	o, _ := newTestOrchestrator(t, b, Config{})

	_, err := o.Begin(t.Context(), "tok")
	require.Error(t, err)

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Item SEED-01 is out of stock", apiErr.Message)
}

func TestBeginToleratesDetailsFailure(t *testing.T) {
	b := &fakeBackend{
		cart:       cartOf(line("A", 40000, 2)),
		detailsErr: model.NewUnavailableError("details", errors.New("503")),
	}
	o, _ := newTestOrchestrator(t, b, Config{})

	cc, err := o.Begin(t.Context(), "tok")
	require.NoError(t, err, "details are a nice-to-have, not a gate")
	assert.Empty(t, cc.Details.CustomerName)
}

func TestCouponApplyAndLocalRemove(t *testing.T) {
	b := &fakeBackend{
		cart:            cartOf(line("A", 40000, 3)), // 1200.00
		couponDiscounts: map[string]int64{"SAVE20": 5000},
	}
	o, _ := newTestOrchestrator(t, b, Config{})

	_, err := o.Begin(t.Context(), "tok")
	require.NoError(t, err)

	cc, err := o.ApplyCoupon(t.Context(), "tok", "SAVE20")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cc.DiscountAmount)
	assert.Equal(t, int64(115000), cc.GrandTotal)
	assert.Equal(t, "SAVE20", cc.CouponCode)

	// Removing the coupon is purely local: pricing reverts with no call
	callsBefore := len(b.calls)
	reverted := o.RemoveCoupon()
	require.NotNil(t, reverted)
	assert.Len(t, b.calls, callsBefore, "coupon removal must not touch the network")
	assert.Empty(t, reverted.CouponCode)
	assert.Zero(t, reverted.DiscountAmount)
	assert.Equal(t, int64(120000), reverted.GrandTotal)
}

func TestRejectedCouponLeavesContextUntouched(t *testing.T) {
	b := &fakeBackend{
		cart:            cartOf(line("A", 40000, 3)),
		couponDiscounts: map[string]int64{},
	}
	o, _ := newTestOrchestrator(t, b, Config{})

	_, err := o.Begin(t.Context(), "tok")
	require.NoError(t, err)

	_, err = o.ApplyCoupon(t.Context(), "tok", "BOGUS")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrRejected))

	cc := o.Context()
	require.NotNil(t, cc)
	assert.Empty(t, cc.CouponCode)
	assert.Equal(t, int64(120000), cc.GrandTotal)
}

func TestShortfall(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeBackend{}, Config{MinimumOrderValue: 100000})

	// An 800.00 cart against the 1000.00 minimum is short exactly 200.00
	assert.Equal(t, int64(20000), o.Shortfall(80000))
	assert.Zero(t, o.Shortfall(100000))
	assert.Zero(t, o.Shortfall(130000))

	unguarded, _ := newTestOrchestrator(t, &fakeBackend{}, Config{})
	assert.Zero(t, unguarded.Shortfall(1))
}

func TestPlaceOrderBlockedBelowMinimum(t *testing.T) {
	b := &fakeBackend{cart: cartOf(line("A", 40000, 2))} // 800.00
	o, _ := newTestOrchestrator(t, b, Config{MinimumOrderValue: 100000})

	_, err := o.Begin(t.Context(), "tok")
	require.NoError(t, err)

	callsBefore := len(b.calls)
	_, err = o.PlaceOrder(t.Context(), "tok", model.PaymentFull)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvariant))
	assert.Len(t, b.calls, callsBefore, "a guarded order must not reach the network")
}

func TestPlaceOrderPipeline(t *testing.T) {
	b := &fakeBackend{cart: cartOf(line("A", 40000, 3))} // 1200.00
	o, _ := newTestOrchestrator(t, b, Config{MinimumOrderValue: 100000})

	_, err := o.Begin(t.Context(), "tok")
	require.NoError(t, err)
	b.calls = nil

	result, err := o.PlaceOrder(t.Context(), "tok", model.PaymentFull)
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch_cart", "proceed_payment", "place_order"}, b.calls)
	assert.Equal(t, "SO-00042", result.OrderID)
	assert.Equal(t, int64(120000), result.GrandTotal)
	assert.Nil(t, o.Context(), "a placed order spends the checkout context")
}

func TestPlaceOrderFailureKeepsContext(t *testing.T) {
	b := &fakeBackend{
		cart:     cartOf(line("A", 40000, 3)),
		placeErr: model.NewRejectedError("order was not created"),
	}
	o, _ := newTestOrchestrator(t, b, Config{MinimumOrderValue: 100000})

	_, err := o.Begin(t.Context(), "tok")
	require.NoError(t, err)

	_, err = o.PlaceOrder(t.Context(), "tok", model.PaymentFull)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrRejected))
	assert.NotNil(t, o.Context(), "a failed placement leaves checkout resumable")
}

func TestPlaceOrderRequiresBegin(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeBackend{}, Config{})

	_, err := o.PlaceOrder(t.Context(), "tok", model.PaymentFull)
	assert.ErrorIs(t, err, ErrNotStarted)
}
