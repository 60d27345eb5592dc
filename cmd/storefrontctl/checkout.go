package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storefront-backend/internal/cart"
	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
)

func loadAddress(path string) (*domain.ShippingAddress, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read address file: %w", err)
	}
	var addr domain.ShippingAddress
	if err := yaml.Unmarshal(raw, &addr); err != nil {
		return nil, fmt.Errorf("parse address file: %w", err)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return &addr, nil
}

func checkoutRequest(st cart.State, addr *domain.ShippingAddress) usecase.CheckoutRequest {
	req := usecase.CheckoutRequest{ShippingAddress: addr}
	for _, l := range st.Lines {
		price := l.Price
		req.Items = append(req.Items, usecase.CheckoutLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     &price,
		})
	}
	return req
}

func checkoutCmd(opts *options) *cobra.Command {
	var addressFile string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Start a hosted checkout for the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.cartStore()
			if err != nil {
				return err
			}
			st := store.State()
			if st.Empty() {
				return errors.New("cart is empty")
			}
			addr, err := loadAddress(addressFile)
			if err != nil {
				return err
			}

			res, err := opts.client().CreateCheckoutSession(cmd.Context(), checkoutRequest(st, addr))
			if err != nil {
				return fmt.Errorf("checkout: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session: %s\nAmount:  %s\nPay at:  %s\n", res.SessionID, res.Amount, res.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&addressFile, "address", "", "YAML file with the shipping address")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func verifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <sessionId>",
		Short: "Confirm a paid session and print its order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.client().VerifyPayment(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			store, err := opts.cartStore()
			if err != nil {
				return err
			}
			if _, err := store.Dispatch(cart.Clear{}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order %s (%s, payment %s)\n", view.OrderNumber, view.Status, view.PaymentStatus)
			for _, item := range view.Items {
				fmt.Fprintf(out, "  %d x %s @ %s\n", item.Quantity, item.Name, item.Price)
			}
			fmt.Fprintf(out, "Total: %s\n", view.TotalAmount)
			return nil
		},
	}
}
