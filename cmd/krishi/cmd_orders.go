package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/usecases"
)

var (
	historyOnly bool
	placeRec    domain.Recommendation
	newItem     domain.OrderItem
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Analyse your land and show recommendations and recent orders",
	RunE:  runDashboard,
}

var recommendationsCmd = &cobra.Command{
	Use:   "recommendations",
	Short: "Show the current input recommendations",
	RunE:  runRecommendations,
}

// ordersCmd groups the order subcommands
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List and manage your input orders",
	Long: `Without a subcommand, lists your orders.

Available subcommands:
  get      - Show one order
  place    - Order a recommended product
  auto     - Let the backend order the current recommendations
  status   - Change an order's status
  add-item - Add a product to an order
  delete   - Delete an order`,
	RunE: runOrders,
}

var orderGetCmd = &cobra.Command{
	Use:   "get [order-id]",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderGet,
}

var orderPlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Order a recommended product",
	Long: `Places an order for one recommendation, priced at its estimated cost.

Example:
  krishi orders place --product Urea --quantity 2 --cost 600 --reason "low nitrogen"`,
	RunE: runOrderPlace,
}

var orderAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Let the backend order the current recommendations",
	RunE:  runOrderAuto,
}

var orderStatusCmd = &cobra.Command{
	Use:   "status [order-id] [status]",
	Short: "Change an order's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runOrderStatus,
}

var orderAddItemCmd = &cobra.Command{
	Use:   "add-item [order-id]",
	Short: "Add a product to an order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderAddItem,
}

var orderDeleteCmd = &cobra.Command{
	Use:   "delete [order-id]",
	Short: "Delete an order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderDelete,
}

func registerOrderCommands() {
	ordersCmd.Flags().BoolVar(&historyOnly, "history", false, "Show the order history the dashboard uses")

	f := orderPlaceCmd.Flags()
	f.StringVar(&placeRec.Product, "product", "", "Product name (required)")
	f.Float64Var(&placeRec.Quantity, "quantity", 1, "Quantity")
	f.Float64Var(&placeRec.EstimatedCost, "cost", 0, "Estimated cost")
	f.StringVar(&placeRec.Reason, "reason", "", "Why it is needed")
	orderPlaceCmd.MarkFlagRequired("product")

	f = orderAddItemCmd.Flags()
	f.StringVar(&newItem.ProductName, "product", "", "Product name (required)")
	f.Float64Var(&newItem.Quantity, "quantity", 1, "Quantity")
	f.Float64Var(&newItem.UnitPrice, "price", 0, "Unit price")
	orderAddItemCmd.MarkFlagRequired("product")

	ordersCmd.AddCommand(orderGetCmd)
	ordersCmd.AddCommand(orderPlaceCmd)
	ordersCmd.AddCommand(orderAutoCmd)
	ordersCmd.AddCommand(orderStatusCmd)
	ordersCmd.AddCommand(orderAddItemCmd)
	ordersCmd.AddCommand(orderDeleteCmd)

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(recommendationsCmd)
	rootCmd.AddCommand(ordersCmd)
}

// withSession is withEnv for commands that act as the signed-in farmer.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error) error {
	return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
		sess, err := env.session(ctx)
		if err != nil {
			return err
		}
		return describe(fn(ctx, env, sess))
	})
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		d, err := usecases.NewDashboardService(env.backends).Load(ctx, sess)
		if err != nil {
			return err
		}
		return printJSON(env.out, d)
	})
}

func runRecommendations(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		recs, err := usecases.NewDashboardService(env.backends).Recommendations(ctx, sess)
		if err != nil {
			return err
		}
		return printJSON(env.out, recs)
	})
}

func runOrders(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		svc := usecases.NewOrderService(env.backends)
		list := svc.List
		if historyOnly {
			list = svc.History
		}
		orders, err := list(ctx, sess)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Fprintln(env.out, "No orders yet.")
			return nil
		}
		return printJSON(env.out, orders)
	})
}

func runOrderGet(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		o, err := usecases.NewOrderService(env.backends).Get(ctx, sess, args[0])
		if err != nil {
			return err
		}
		return printJSON(env.out, o)
	})
}

func runOrderPlace(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		res, err := usecases.NewDashboardService(env.backends).PlaceOrder(ctx, sess, placeRec)
		if err != nil {
			return err
		}
		if res.Order != nil {
			fmt.Fprintf(env.out, "Order %s placed for %s.\n", res.Order.OrderID, placeRec.Product)
			return nil
		}
		fmt.Fprintf(env.out, "Order placed for %s.\n", placeRec.Product)
		return nil
	})
}

func runOrderAuto(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		res, err := usecases.NewDashboardService(env.backends).ExecuteOrdering(ctx, sess, nil)
		if err != nil {
			return err
		}
		return printJSON(env.out, res)
	})
}

func runOrderStatus(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		o, err := usecases.NewOrderService(env.backends).UpdateStatus(ctx, sess, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(env.out, o)
	})
}

func runOrderAddItem(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		o, err := usecases.NewOrderService(env.backends).AddItem(ctx, sess, args[0], newItem)
		if err != nil {
			return err
		}
		return printJSON(env.out, o)
	})
}

func runOrderDelete(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, env *cliEnv, sess *domain.AuthSession) error {
		if err := usecases.NewOrderService(env.backends).Delete(ctx, sess, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(env.out, "Order %s deleted.\n", args[0])
		return nil
	})
}
