package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront-backend/internal/cart"
)

func cartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <productId>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.client().GetProduct(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch product: %w", err)
			}
			store, err := opts.cartStore()
			if err != nil {
				return err
			}
			image := ""
			if len(p.Images) > 0 {
				image = p.Images[0]
			}
			st, err := store.Dispatch(cart.AddItem{
				ProductID: p.ID.Hex(),
				Name:      p.Name,
				Price:     p.Price,
				Image:     image,
				Stock:     p.Stock,
			})
			if err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), st)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <productId> <quantity>",
		Short: "Set a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return dispatch(cmd, opts, cart.UpdateQuantity{ProductID: args[0], Quantity: qty})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, opts, cart.RemoveItem{ProductID: args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, opts, cart.Clear{})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.cartStore()
			if err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), store.State())
		},
	})

	return cmd
}

func dispatch(cmd *cobra.Command, opts *options, a cart.Action) error {
	store, err := opts.cartStore()
	if err != nil {
		return err
	}
	st, err := store.Dispatch(a)
	if err != nil {
		return err
	}
	return printCart(cmd.OutOrStdout(), st)
}

func printCart(w io.Writer, st cart.State) error {
	if st.Empty() {
		_, err := fmt.Fprintln(w, "Cart is empty.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE\tLINE")
	for _, l := range st.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.Price, l.Price.Mul(l.Quantity))
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", st.ItemCount(), st.Total())
	return tw.Flush()
}
