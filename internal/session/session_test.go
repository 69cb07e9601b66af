package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/cart"
	"shopfront/internal/checkout"
	"shopfront/internal/localcart"
	"shopfront/internal/model"
	"shopfront/internal/nav"
	"shopfront/internal/storage"
)

// fakeBackend implements the gateway, checkout backend, and address book
// surfaces the controller composes.
type fakeBackend struct {
	mu        sync.Mutex
	cart      model.CartSnapshot
	count     int
	err       error
	fetches   int
	addresses []model.ShippingAddress
}

func (b *fakeBackend) setErr(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

func (b *fakeBackend) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

func (b *fakeBackend) FetchCart(ctx context.Context, token string) (model.CartSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if b.err != nil {
		return model.CartSnapshot{}, b.err
	}
	return b.cart.Clone(), nil
}

func (b *fakeBackend) FetchCount(ctx context.Context, token string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	return b.count, nil
}

func (b *fakeBackend) AddLine(ctx context.Context, token, productID string, qty int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *fakeBackend) UpdateLine(ctx context.Context, token, productID string, qty int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *fakeBackend) DeleteLine(ctx context.Context, token, productID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *fakeBackend) ShippingAddresses(ctx context.Context, token string) ([]model.ShippingAddress, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return b.addresses, nil
}

type testRig struct {
	backend *fakeBackend
	engine  *cart.Engine
	local   *localcart.Store
	ctrl    *Controller
}

func newTestRig(t *testing.T, cfg Config) *testRig {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	backend := &fakeBackend{}
	local := localcart.New(storage.NewMemStore(), logger)
	engine := cart.New(local, backend, logger)
	navm := nav.New(nav.NewMemoryHistory(), storage.NewMemStore(), logger)
	orch := checkout.New(nil, navm, checkout.Config{}, logger)
	ctrl := New(engine, orch, navm, backend, cfg, logger)
	t.Cleanup(ctrl.Close)
	return &testRig{backend: backend, engine: engine, local: local, ctrl: ctrl}
}

func TestNewStartsSignedOut(t *testing.T) {
	rig := newTestRig(t, Config{})

	s := rig.ctrl.Session()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, model.AuthorityLocal, s.Authority)
	assert.False(t, s.Identity.Authenticated())
}

func TestLoginPromotesToRemote(t *testing.T) {
	rig := newTestRig(t, Config{RefreshInterval: time.Hour})
	rig.backend.mu.Lock()
	rig.backend.cart = model.CartSnapshot{
		Lines: []model.CartLine{{ProductID: "A", Quantity: 2, UnitPrice: 40000, Source: model.SourceRemote}},
	}
	rig.backend.count = 1
	rig.backend.mu.Unlock()

	// Guest items collected before login stay local
	rig.local.Add(model.Product{ID: "G", UnitPrice: 100}, 5)

	rig.ctrl.Login(context.Background(), model.Identity{Token: "tok", DisplayName: "Asha"})

	s := rig.ctrl.Session()
	assert.Equal(t, model.AuthorityRemote, s.Authority)
	assert.Equal(t, "Asha", s.Identity.DisplayName)

	// The server cart is on display, not a merge of guest + server
	snap := rig.engine.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "A", snap.Lines[0].ProductID)
	assert.Equal(t, 1, rig.engine.ItemCount())
	assert.Equal(t, 5, rig.local.Get().ItemCount())
}

func TestLogoutDemotesToLocal(t *testing.T) {
	rig := newTestRig(t, Config{RefreshInterval: time.Hour})
	rig.local.Add(model.Product{ID: "G", UnitPrice: 100}, 5)

	rig.ctrl.Login(context.Background(), model.Identity{Token: "tok"})
	rig.ctrl.Logout()

	s := rig.ctrl.Session()
	assert.Equal(t, model.AuthorityLocal, s.Authority)
	assert.False(t, s.Identity.Authenticated())
	// The untouched guest cart is back on display
	assert.Equal(t, 5, rig.engine.ItemCount())
}

func TestSessionChangeNotifications(t *testing.T) {
	rig := newTestRig(t, Config{RefreshInterval: time.Hour})

	var got []model.CartAuthority
	rig.ctrl.OnSessionChange(func(s model.Session) {
		got = append(got, s.Authority)
	})

	rig.ctrl.Login(context.Background(), model.Identity{Token: "tok"})
	rig.ctrl.Logout()

	assert.Equal(t, []model.CartAuthority{model.AuthorityRemote, model.AuthorityLocal}, got)
}

func TestRejectedTokenSignsOut(t *testing.T) {
	rig := newTestRig(t, Config{RefreshInterval: time.Hour})
	rig.backend.setErr(model.NewUnauthorizedError("token expired"))

	rig.ctrl.Login(context.Background(), model.Identity{Token: "stale"})

	// The failed initial refresh fired the unauthorized hook, which
	// demotes instead of retrying.
	s := rig.ctrl.Session()
	assert.Equal(t, model.AuthorityLocal, s.Authority)
	assert.False(t, s.Identity.Authenticated())
}

func TestPeriodicRefreshAbsorbsDrift(t *testing.T) {
	rig := newTestRig(t, Config{RefreshInterval: 10 * time.Millisecond})

	rig.ctrl.Login(context.Background(), model.Identity{Token: "tok"})
	initial := rig.backend.fetchCount()

	// Another device adds a line; the poll picks it up without any local action
	rig.backend.mu.Lock()
	rig.backend.cart = model.CartSnapshot{
		Lines: []model.CartLine{{ProductID: "D", Quantity: 1, UnitPrice: 100, Source: model.SourceRemote}},
	}
	rig.backend.mu.Unlock()

	require.Eventually(t, func() bool {
		return rig.backend.fetchCount() > initial && len(rig.engine.Snapshot().Lines) == 1
	}, time.Second, 5*time.Millisecond)

	rig.ctrl.Logout()
	time.Sleep(30 * time.Millisecond) // drain any tick that raced the stop
	settled := rig.backend.fetchCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, rig.backend.fetchCount(), "polling must stop at logout")
}

func TestBuyerPrefersPrimaryAddressContact(t *testing.T) {
	rig := newTestRig(t, Config{RefreshInterval: time.Hour, ContactEmail: "orders@example.com"})
	rig.backend.mu.Lock()
	rig.backend.addresses = []model.ShippingAddress{
		{Name: "ADDR-1", Phone: "1111111111", EmailID: "old@example.com"},
		{Name: "ADDR-2", Phone: "9876543210", EmailID: "asha@example.com", IsPrimary: 1},
	}
	rig.backend.mu.Unlock()

	rig.ctrl.Login(context.Background(), model.Identity{
		Token: "tok", DisplayName: "Asha", Phone: "0000000000", UserID: "CUST-7",
	})

	b := rig.ctrl.Buyer(context.Background())
	assert.Equal(t, "Asha", b.Name)
	assert.Equal(t, "9876543210", b.Phone, "primary address phone wins")
	assert.Equal(t, "asha@example.com", b.Email)
	assert.Equal(t, "CUST-7", b.UserID)
}

func TestBuyerFallsBackWhenAddressesUnavailable(t *testing.T) {
	rig := newTestRig(t, Config{RefreshInterval: time.Hour, ContactEmail: "orders@example.com"})

	rig.ctrl.Login(context.Background(), model.Identity{
		Token: "tok", DisplayName: "Asha", Phone: "0000000000",
	})
	rig.backend.setErr(errors.New("boom"))

	b := rig.ctrl.Buyer(context.Background())
	assert.Equal(t, "0000000000", b.Phone)
	assert.Equal(t, "orders@example.com", b.Email)
}
