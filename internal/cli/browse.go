package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"shopfront/internal/nav"
)

// BrowseOptions holds flags for the browse command.
type BrowseOptions struct {
	*RootOptions
	BestSellers bool
}

// NewBrowseCommand creates the browse command. It drives the navigation
// machine to the product listing for a category; the selection persists in
// the state directory the same way the cart does.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "browse [category]",
		Short: "Open the product listing for a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			var navOpts []nav.Option
			switch {
			case opts.BestSellers:
				navOpts = append(navOpts, nav.FromBestSellers())
			case len(args) == 1:
				navOpts = append(navOpts, nav.WithCategory(args[0]))
			}
			app.Nav.NavigateTo(nav.ScreenProducts, nil, navOpts...)

			category := app.Nav.Category()
			if category == "" {
				category = "all products"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "browsing %s\n", category)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.BestSellers, "bestsellers", false, "browse the best sellers shelf")

	return cmd
}
