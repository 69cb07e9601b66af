package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shopfront/internal/checkout"
	"shopfront/internal/model"
	"shopfront/internal/nav"
)

// CheckoutOptions holds flags for the checkout command.
type CheckoutOptions struct {
	*RootOptions
	Coupon string
}

// NewCheckoutCommand creates the checkout command. It runs the preview
// stages of the order pipeline and prints the priced summary without
// placing an order.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Preview the priced order for the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Coupon, "coupon", "", "coupon code to apply")

	return cmd
}

func runCheckout(cmd *cobra.Command, opts *CheckoutOptions) error {
	app, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Session.Close()

	if !app.Session.Session().Identity.Authenticated() {
		return fmt.Errorf("sign in before checkout")
	}
	token := app.token()

	cc, err := app.Checkout.Begin(cmd.Context(), token)
	if err != nil {
		return err
	}
	app.Nav.NavigateTo(nav.ScreenCheckout, nav.CheckoutPayload{Context: cc})

	if opts.Coupon != "" {
		cc, err = app.Checkout.ApplyCoupon(cmd.Context(), token, opts.Coupon)
		if err != nil {
			return fmt.Errorf("coupon %s: %w", opts.Coupon, err)
		}
	}

	printCheckout(cmd, app, cc)
	return nil
}

func printCheckout(cmd *cobra.Command, app *App, cc *model.CheckoutContext) {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tNAME\tQTY\tAMOUNT")
	for _, line := range cc.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			line.ProductID, line.DisplayName, line.Quantity,
			model.FormatRupees(line.Amount()))
	}
	w.Flush()

	if cc.CouponCode != "" {
		fmt.Fprintf(out, "coupon %s: -%s\n", cc.CouponCode, model.FormatRupees(cc.DiscountAmount))
	}
	fmt.Fprintf(out, "grand total: %s\n", model.FormatRupees(cc.GrandTotal))
	if cc.Details.ShippingAddressDisplay != "" {
		fmt.Fprintf(out, "ship to: %s\n", cc.Details.ShippingAddressDisplay)
	}

	if short := app.Checkout.Shortfall(cc.GrandTotal); short > 0 {
		fmt.Fprintf(out, "add %s more to reach the %s minimum order\n",
			model.FormatRupees(short), model.FormatRupees(app.Config.MinimumOrderValue))
	}
}

// OrderOptions holds flags for the order command.
type OrderOptions struct {
	*RootOptions
	Coupon string
	Mode   string
}

// NewOrderCommand creates the order command: the full pipeline through
// order placement and payment handoff.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place the order and print the payment URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Coupon, "coupon", "", "coupon code to apply")
	cmd.Flags().StringVar(&opts.Mode, "mode", "full", "payment mode (full|cod)")

	cmd.AddCommand(NewOrderShowCommand(rootOpts))

	return cmd
}

// NewOrderShowCommand creates the order show command, which looks up a
// placed order by id.
func NewOrderShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show details of a placed order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderShow(cmd, rootOpts, args[0])
		},
	}
}

func runOrderShow(cmd *cobra.Command, rootOpts *RootOptions, orderID string) error {
	app, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer app.Session.Close()

	if !app.Session.Session().Identity.Authenticated() {
		return fmt.Errorf("sign in to view orders")
	}

	details, err := app.Client.OrderDetails(cmd.Context(), app.token(), orderID)
	if err != nil {
		return err
	}
	app.Nav.NavigateTo(nav.ScreenOrderDetails, nav.OrderPayload{OrderID: orderID})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "order %s\n", orderID)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := details[k].(type) {
		case string, float64, bool:
			fmt.Fprintf(out, "  %s: %v\n", k, v)
		}
	}
	return nil
}

func runOrder(cmd *cobra.Command, opts *OrderOptions) error {
	var mode model.PaymentMode
	switch opts.Mode {
	case "full":
		mode = model.PaymentFull
	case "cod":
		mode = model.PaymentCashOnDelivery
	default:
		return fmt.Errorf("invalid payment mode %q: must be full or cod", opts.Mode)
	}

	app, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Session.Close()

	if !app.Session.Session().Identity.Authenticated() {
		return fmt.Errorf("sign in before ordering")
	}
	token := app.token()

	cc, err := app.Checkout.Begin(cmd.Context(), token)
	if err != nil {
		return err
	}
	if opts.Coupon != "" {
		cc, err = app.Checkout.ApplyCoupon(cmd.Context(), token, opts.Coupon)
		if err != nil {
			return fmt.Errorf("coupon %s: %w", opts.Coupon, err)
		}
	}

	if short := app.Checkout.Shortfall(cc.GrandTotal); short > 0 {
		return fmt.Errorf("order total %s is %s short of the %s minimum",
			model.FormatRupees(cc.GrandTotal),
			model.FormatRupees(short),
			model.FormatRupees(app.Config.MinimumOrderValue))
	}

	result, err := app.Checkout.PlaceOrder(cmd.Context(), token, mode)
	if err != nil {
		return err
	}

	buyer := app.Session.Buyer(cmd.Context())
	handoff := app.Checkout.PaymentHandoff(result, buyer)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "order %s placed, total %s\n", result.OrderID, model.FormatRupees(result.GrandTotal))
	printHandoff(out, handoff)
	return nil
}

func printHandoff(out io.Writer, h checkout.Handoff) {
	if h.URL == "" {
		fmt.Fprintln(out, "nothing to pay now, see you at delivery")
		return
	}
	fmt.Fprintf(out, "complete payment at: %s\n", h.URL)
}
