package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/polbel-next/internal/client"
	"github.com/polbel-next/internal/constants"

	"github.com/spf13/cobra"
)

func newCheckoutCmd(a *app) *cobra.Command {
	var customer client.Customer
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Send the cart as an order",
		Long: `Send the whole cart as one order.

The cart is emptied only after the API confirms the order. If the request
fails the cart stays as it was and checkout can be retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openCart(ctx)
			if err != nil {
				return err
			}
			order, err := a.client(ctx).Checkout(ctx, store, customer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s placed, total %s zł, status %s\n", order.OrderNumber, order.Total.String(), order.Status)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&customer.Name, "name", "", "customer full name (required)")
	f.StringVar(&customer.Phone, "phone", "", "contact phone (required)")
	f.StringVar(&customer.Address, "address", "", "delivery address (required)")
	f.StringVar(&customer.Email, "email", "", "contact e-mail")
	f.StringVar(&customer.DeliveryDate, "delivery-date", "", "preferred delivery date, YYYY-MM-DD")
	f.StringVar(&customer.Notes, "notes", "", "additional notes")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an administrator and keep the token locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("POLBEL_PASSWORD")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password (or POLBEL_PASSWORD) are required")
			}
			ctx := cmd.Context()
			s, err := client.New(a.cfg.Cart.APIURL).Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := a.saveSession(ctx, session{Token: s.Token, Email: strings.TrimSpace(email), ExpiresAt: s.ExpiresAt}); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s until %s\n", strings.TrimSpace(email), s.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin e-mail")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Administer orders",
	}
	cmd.AddCommand(newOrderStatusCmd(a))
	return cmd
}

func newOrderStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order id> <status>",
		Short: "Move an order to another status",
		Long: fmt.Sprintf(`Move an order to another status.

Allowed statuses: %s.
new -> confirmed -> in_progress -> completed; new and confirmed may be cancelled.`,
			strings.Join(constants.OrderStatuses, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := strings.TrimSpace(args[1])
			if !isKnownStatus(status) {
				return fmt.Errorf("unknown status %q, expected one of %s", status, strings.Join(constants.OrderStatuses, ", "))
			}
			ctx := cmd.Context()
			if err := a.client(ctx).UpdateOrderStatus(ctx, id, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %d is now %s\n", id, status)
			return nil
		},
	}
}

func isKnownStatus(status string) bool {
	for _, s := range constants.OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}
