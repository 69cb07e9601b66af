//go:build integration
// +build integration

// Integration tests against a live commerce backend.
// Run with: go test -tags=integration ./internal/frappe/... -v
//
// Required environment variables:
//
//	SHOPFRONT_STORE_URL  - Backend base URL (e.g., https://shop.example.com)
//	SHOPFRONT_API_KEY    - Guest endpoint API key
//	SHOPFRONT_API_SECRET - Guest endpoint API secret
//	SHOPFRONT_TOKEN      - Customer auth token
//	SHOPFRONT_PRODUCT_ID - Item code to add and remove (e.g., SEED-01)
package frappe

import (
	"context"
	"os"
	"testing"
	"time"
)

// testConfig holds integration test configuration loaded from environment.
type testConfig struct {
	StoreURL  string
	APIKey    string
	APISecret string
	Token     string
	ProductID string
}

// loadTestConfig loads integration test configuration from environment.
// Skips the test if required variables are not set.
func loadTestConfig(t *testing.T) *testConfig {
	t.Helper()

	cfg := &testConfig{
		StoreURL:  os.Getenv("SHOPFRONT_STORE_URL"),
		APIKey:    os.Getenv("SHOPFRONT_API_KEY"),
		APISecret: os.Getenv("SHOPFRONT_API_SECRET"),
		Token:     os.Getenv("SHOPFRONT_TOKEN"),
		ProductID: os.Getenv("SHOPFRONT_PRODUCT_ID"),
	}
	if cfg.StoreURL == "" || cfg.APIKey == "" || cfg.APISecret == "" ||
		cfg.Token == "" || cfg.ProductID == "" {
		t.Skip("Skipping integration test: SHOPFRONT_* env vars not set")
	}
	return cfg
}

func newIntegrationClient(t *testing.T, cfg *testConfig) *Client {
	t.Helper()

	c, err := New(Config{
		BaseURL:   cfg.StoreURL,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestIntegration_CartLifecycle(t *testing.T) {
	cfg := loadTestConfig(t)
	c := newIntegrationClient(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	before, err := c.FetchCount(ctx, cfg.Token)
	if err != nil {
		t.Fatalf("FetchCount failed: %v", err)
	}

	if err := c.AddLine(ctx, cfg.Token, cfg.ProductID, 1); err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}
	defer func() {
		if err := c.DeleteLine(ctx, cfg.Token, cfg.ProductID); err != nil {
			t.Logf("cleanup DeleteLine: %v", err)
		}
	}()

	snap, err := c.FetchCart(ctx, cfg.Token)
	if err != nil {
		t.Fatalf("FetchCart failed: %v", err)
	}
	line, ok := snap.Line(cfg.ProductID)
	if !ok {
		t.Fatalf("added product %s not in cart: %+v", cfg.ProductID, snap.Lines)
	}
	t.Logf("Cart line: %s x%d at %d paise", line.ProductID, line.Quantity, line.UnitPrice)

	after, err := c.FetchCount(ctx, cfg.Token)
	if err != nil {
		t.Fatalf("FetchCount failed: %v", err)
	}
	if after <= before {
		t.Errorf("count = %d, want > %d", after, before)
	}
}

func TestIntegration_ShippingAddresses(t *testing.T) {
	cfg := loadTestConfig(t)
	c := newIntegrationClient(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	addrs, err := c.ShippingAddresses(ctx, cfg.Token)
	if err != nil {
		t.Fatalf("ShippingAddresses failed: %v", err)
	}
	t.Logf("Saved addresses: %d", len(addrs))
	for _, a := range addrs {
		t.Logf("  %s (%s) primary=%d", a.AddressTitle, a.Pincode, a.IsPrimary)
	}
}
