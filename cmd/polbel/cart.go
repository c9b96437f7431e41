package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/polbel-next/internal/cart"

	"github.com/spf13/cobra"
)

func newProductsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List products available in the shop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.client(cmd.Context()).ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tNAME\tPRICE\tUNIT\tIN STOCK")
			for _, p := range products {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", p.ID, p.Slug, p.Name, p.Price.String(), p.PriceUnit, p.InStock)
			}
			return w.Flush()
		},
	}
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}
	cmd.AddCommand(
		newCartAddCmd(a),
		newCartSetCmd(a),
		newCartRemoveCmd(a),
		newCartClearCmd(a),
		newCartShowCmd(a),
	)
	return cmd
}

func newCartAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product id or slug> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity := 1
			if len(args) == 2 {
				q, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				quantity = q
			}
			ctx := cmd.Context()
			product, err := a.client(ctx).GetProduct(ctx, args[0])
			if err != nil {
				return err
			}
			store, err := a.openCart(ctx)
			if err != nil {
				return err
			}
			if err := store.AddItem(ctx, product.CartProduct(), quantity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d x %s (cart: %d items, %s zł)\n", quantity, product.Name, store.Count(), store.Total().String())
			return nil
		},
	}
}

func newCartSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product id> <quantity>",
		Short: "Set the quantity of a cart item; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.SetQuantity(cmd.Context(), id, quantity); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), store)
		},
	}
}

func newCartRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <product id>",
		Aliases: []string{"rm"},
		Short:   "Remove a product from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Remove(cmd.Context(), id); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), store)
		},
	}
}

func newCartClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return nil
		},
	}
}

func newCartShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show cart contents and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"items": store.Snapshot(),
					"total": store.Total(),
					"count": store.Count(),
				})
			}
			return printCart(cmd.OutOrStdout(), store)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printCart(out io.Writer, store *cart.Store) error {
	if store.IsEmpty() {
		fmt.Fprintln(out, "cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, item := range store.Snapshot() {
		unit := item.PriceUnit
		if unit != "" {
			unit = "/" + unit
		}
		fmt.Fprintf(w, "%d\t%s\t%s%s\t%d\t%s\n", item.ID, item.Name, item.Price.String(), unit, item.Quantity, item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t\t%d\t%s\n", store.Count(), store.Total().String())
	return w.Flush()
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func parseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(raw)
	if err != nil || q <= 0 {
		return 0, fmt.Errorf("quantity must be a positive integer, got %q", raw)
	}
	return q, nil
}
