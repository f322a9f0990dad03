package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

var (
	orderEmail   string
	orderName    string
	orderPhone   string
	orderProduct string
	orderPayment string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Run one order fulfillment pass",
	Long: `Renders and sends the deliverable for every completed order that
has not been delivered yet, then exits. Orders that fail to render or
send stay pending and are retried on the next pass.`,
	RunE: runOrders,
}

var ordersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Place an order for a customer",
	Long: `Places a pending order for a catalog product. The customer is
looked up by email and registered first when unknown.`,
	RunE: runOrdersCreate,
}

var ordersCompleteCmd = &cobra.Command{
	Use:   "complete [order-id]",
	Short: "Settle a pending order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersComplete,
}

func init() {
	ordersCreateCmd.Flags().StringVar(&orderEmail, "email", "", "customer email (required)")
	ordersCreateCmd.Flags().StringVar(&orderName, "name", "", "customer name (required for new customers)")
	ordersCreateCmd.Flags().StringVar(&orderPhone, "phone", "", "customer phone")
	ordersCreateCmd.Flags().StringVar(&orderProduct, "product", "", "catalog product ID (required)")
	ordersCreateCmd.Flags().StringVar(&orderPayment, "payment", "", "payment method (default stripe)")
	_ = ordersCreateCmd.MarkFlagRequired("email")
	_ = ordersCreateCmd.MarkFlagRequired("product")

	ordersCmd.AddCommand(ordersCreateCmd)
	ordersCmd.AddCommand(ordersCompleteCmd)
	rootCmd.AddCommand(ordersCmd)
}

func runOrders(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	delivered, err := a.fulfillment.ProcessPendingOrders(ctx)
	if err != nil {
		return fmt.Errorf("fulfillment pass: %w", err)
	}
	cmd.Printf("%d order(s) fulfilled.\n", delivered)
	return nil
}

func runOrdersCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	customer, err := a.ledger.FindCustomerByEmail(ctx, orderEmail)
	if errors.Is(err, domain.ErrNotFound) {
		customer, err = a.ledger.CreateCustomer(ctx, orderEmail, orderName, orderPhone)
		if err != nil {
			return fmt.Errorf("registering customer: %w", err)
		}
		cmd.Printf("Customer registered: %s\n", customer.ID)
	} else if err != nil {
		return fmt.Errorf("looking up customer: %w", err)
	}

	order, err := a.ledger.CreateOrder(ctx, customer.ID, orderProduct, orderPayment)
	if err != nil {
		return fmt.Errorf("placing order: %w", err)
	}
	cmd.Printf("Order placed: %s (%s, %.2f EUR)\n", order.ID, order.ProductID, order.Amount)
	return nil
}

func runOrdersComplete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	order, err := a.ledger.CompleteOrder(ctx, args[0])
	if err != nil {
		return fmt.Errorf("completing order: %w", err)
	}
	cmd.Printf("Order completed: %s (%.2f EUR)\n", order.ID, order.Amount)
	return nil
}
