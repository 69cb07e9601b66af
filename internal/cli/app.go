package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"shopfront/internal/cart"
	"shopfront/internal/checkout"
	"shopfront/internal/config"
	"shopfront/internal/frappe"
	"shopfront/internal/localcart"
	"shopfront/internal/model"
	"shopfront/internal/nav"
	"shopfront/internal/session"
	"shopfront/internal/storage"
)

// App wires the storefront components together for one CLI invocation.
// The signed-in identity and local cart persist in the state directory, so
// consecutive invocations act as one shopping session.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	KV       storage.Store
	Local    *localcart.Store
	Client   *frappe.Client
	Engine   *cart.Engine
	Nav      *nav.Machine
	Checkout *checkout.Orchestrator
	Session  *session.Controller
}

func newApp(ctx context.Context, opts *RootOptions) (*App, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := initLogger(cfg, opts.Verbose)

	kv, err := storage.NewFileStore(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	client, err := frappe.New(frappe.Config{
		BaseURL:   cfg.Store.BaseURL,
		APIKey:    cfg.Store.APIKey,
		APISecret: cfg.Store.APISecret,
	})
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}

	local := localcart.New(kv, logger)
	engine := cart.New(local, client, logger)
	navm := nav.New(nav.NewMemoryHistory(), kv, logger)
	orch := checkout.New(client, navm, checkout.Config{
		MinimumOrderValue: cfg.MinimumOrderValue,
		PaymentBaseURL:    cfg.Store.PaymentURL,
		CallbackURL:       cfg.Store.CallbackURL,
		ProductInfo:       cfg.Store.StoreName,
	}, logger)
	ctrl := session.New(engine, orch, navm, client, session.Config{
		RefreshInterval: cfg.RefreshInterval,
		ContactEmail:    cfg.Store.ContactEmail,
	}, logger)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		KV:       kv,
		Local:    local,
		Client:   client,
		Engine:   engine,
		Nav:      navm,
		Checkout: orch,
		Session:  ctrl,
	}
	app.restoreIdentity(ctx)
	return app, nil
}

// restoreIdentity resumes a signed-in session saved by a previous
// invocation. A corrupt record is treated as signed out.
func (a *App) restoreIdentity(ctx context.Context) {
	raw, ok := a.KV.Get(storage.KeyIdentity)
	if !ok {
		return
	}
	var id model.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || !id.Authenticated() {
		_ = a.KV.Delete(storage.KeyIdentity)
		return
	}
	a.Session.Login(ctx, id)
}

// saveIdentity persists the signed-in identity for later invocations.
func (a *App) saveIdentity(id model.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return a.KV.Set(storage.KeyIdentity, string(raw))
}

func (a *App) clearIdentity() {
	_ = a.KV.Delete(storage.KeyIdentity)
}

// token returns the credential for authenticated calls, empty when
// signed out.
func (a *App) token() string {
	return a.Session.Session().Identity.Token
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose, cfg.LogLevel == "debug":
		level = slog.LevelDebug
	case cfg.LogLevel == "info":
		level = slog.LevelInfo
	case cfg.LogLevel == "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
