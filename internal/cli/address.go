package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shopfront/internal/model"
	"shopfront/internal/nav"
)

// AddressAddOptions holds flags for the address add command.
type AddressAddOptions struct {
	Title    string
	Line1    string
	Line2    string
	Market   string
	Tahsil   string
	District string
	State    string
	Pincode  string
	Country  string
	Phone    string
	Email    string
}

// NewAddressCommand creates the address command group.
func NewAddressCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Manage saved shipping addresses",
	}

	cmd.AddCommand(newAddressListCommand(rootOpts))
	cmd.AddCommand(newAddressAddCommand(rootOpts))
	return cmd
}

func newAddressListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List saved shipping addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Session.Close()

			if !app.Session.Session().Identity.Authenticated() {
				return fmt.Errorf("sign in to manage addresses")
			}

			addrs, err := app.Client.ShippingAddresses(cmd.Context(), app.token())
			if err != nil {
				return err
			}
			if len(addrs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved addresses")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TITLE\tADDRESS\tPINCODE\tPHONE")
			for _, a := range addrs {
				title := a.AddressTitle
				if a.IsPrimary == 1 {
					title += " *"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					title, a.AddressLine1, a.Pincode, a.Phone)
			}
			return w.Flush()
		},
	}
}

func newAddressAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddressAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new shipping address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddressAdd(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "address label")
	cmd.Flags().StringVar(&opts.Line1, "line1", "", "address line 1")
	cmd.Flags().StringVar(&opts.Line2, "line2", "", "address line 2")
	cmd.Flags().StringVar(&opts.Market, "market", "", "marketplace identifier")
	cmd.Flags().StringVar(&opts.Tahsil, "tahsil", "", "tahsil identifier")
	cmd.Flags().StringVar(&opts.District, "district", "", "district identifier")
	cmd.Flags().StringVar(&opts.State, "state", "", "state identifier")
	cmd.Flags().StringVar(&opts.Pincode, "pincode", "", "postal code")
	cmd.Flags().StringVar(&opts.Country, "country", "India", "country")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&opts.Email, "email", "", "contact email")

	return cmd
}

func runAddressAdd(cmd *cobra.Command, rootOpts *RootOptions, opts *AddressAddOptions) error {
	if opts.Title == "" || opts.Line1 == "" || opts.Pincode == "" {
		return fmt.Errorf("--title, --line1 and --pincode are required")
	}

	app, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer app.Session.Close()

	if !app.Session.Session().Identity.Authenticated() {
		return fmt.Errorf("sign in to manage addresses")
	}

	app.Nav.NavigateTo(nav.ScreenNewAddress, nav.AddressPayload{})

	addr := model.NewAddress{
		AddressTitle: opts.Title,
		AddressLine1: opts.Line1,
		AddressLine2: opts.Line2,
		Marketplace:  opts.Market,
		Tahsil:       opts.Tahsil,
		District:     opts.District,
		State:        opts.State,
		Pincode:      opts.Pincode,
		Country:      opts.Country,
		Phone:        opts.Phone,
		EmailID:      opts.Email,
	}
	if err := app.Client.AddShippingAddress(cmd.Context(), app.token(), addr); err != nil {
		return err
	}

	app.Nav.Back()
	fmt.Fprintf(cmd.OutOrStdout(), "address %s saved\n", opts.Title)
	return nil
}
