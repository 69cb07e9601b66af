package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shopfront/internal/model"
)

// CartAddOptions holds flags for the cart add command.
type CartAddOptions struct {
	Name     string
	Price    float64
	Quantity int
}

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit the active cart",
		Long: `Inspect and edit the active cart.

Signed out, edits go to the locally persisted cart. Signed in, edits apply
optimistically and are confirmed against the server; a failed confirmation
resyncs the display from the server state.`,
	}

	cmd.AddCommand(newCartListCommand(rootOpts))
	cmd.AddCommand(newCartAddCommand(rootOpts))
	cmd.AddCommand(newCartSetCommand(rootOpts))
	cmd.AddCommand(newCartRemoveCommand(rootOpts))
	cmd.AddCommand(newCartCountCommand(rootOpts))
	cmd.AddCommand(newCartClearCommand(rootOpts))
	return cmd
}

func newCartListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List cart lines and the display total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			snap := app.Engine.Snapshot()
			if len(snap.Lines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "cart is empty")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ITEM\tNAME\tQTY\tRATE\tAMOUNT")
			for _, line := range snap.Lines {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					line.ProductID, line.DisplayName, line.Quantity,
					model.FormatRupees(line.UnitPrice), model.FormatRupees(line.Amount()))
			}
			fmt.Fprintf(w, "\t\t\ttotal\t%s\n", model.FormatRupees(snap.DisplayTotal()))
			return w.Flush()
		},
	}
}

func newCartAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CartAddOptions{}

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			p := model.Product{
				ID:          args[0],
				Name:        opts.Name,
				UnitPrice:   model.PaiseFromRupees(opts.Price),
				Purchasable: true,
			}
			if err := app.Engine.AddToCart(cmd.Context(), p, opts.Quantity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s x%d\n", p.ID, opts.Quantity)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "product display name")
	cmd.Flags().Float64Var(&opts.Price, "price", 0, "unit price in rupees")
	cmd.Flags().IntVarP(&opts.Quantity, "qty", "q", 1, "quantity to add")

	return cmd
}

func newCartSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a cart line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}

			app, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			if err := app.Engine.UpdateQuantity(cmd.Context(), args[0], qty); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set to %d\n", args[0], qty)
			return nil
		},
	}
}

func newCartRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <product-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			if err := app.Engine.RemoveLine(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newCartClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the locally saved guest cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			app.Local.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "guest cart cleared")
			return nil
		},
	}
}

func newCartCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the badge item count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			fmt.Fprintln(cmd.OutOrStdout(), app.Engine.ItemCount())
			return nil
		},
	}
}
