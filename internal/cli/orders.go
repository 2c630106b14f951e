package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewOrdersCmd создаёт группу команд для производственных заказов.
func NewOrdersCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage production orders",
	}

	cmd.AddCommand(
		newOrdersFetchCmd(clientFn, outputFn),
		newOrdersPlanCmd(clientFn, outputFn),
	)

	return cmd
}

func newOrdersFetchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Drain production orders from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			resp, err := client.FetchOrders(limit)
			if err != nil {
				return err
			}

			out.Print(orderHeaders, orderRows(resp.Orders), resp)
			out.Success(fmt.Sprintf("Fetched %d order(s) from %s", resp.Count, resp.Queue))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of messages (server default if 0)")

	return cmd
}

func newOrdersPlanCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var user string
	var publish bool

	cmd := &cobra.Command{
		Use:   "plan ITEM QUANTITY",
		Short: "Build production orders for a finished good",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			quantity, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}
			if quantity <= 0 {
				return fmt.Errorf("quantity must be positive, got %s", args[1])
			}

			resp, err := client.PlanOrders(PlanRequest{
				ItemNo:   args[0],
				Quantity: quantity,
				User:     user,
				Publish:  publish,
			})
			if err != nil {
				return err
			}

			out.Print(orderHeaders, orderRows(resp.Orders), resp)

			msg := fmt.Sprintf("Planned %d order(s) for %s", resp.Count, resp.ItemNo)
			if resp.Published != nil {
				msg += fmt.Sprintf(", published %d", *resp.Published)
			}
			out.Success(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User recorded on the orders")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish orders to production_orders.bc")

	return cmd
}

var orderHeaders = []string{"ORDER_NO", "ITEM", "QTY", "UOM", "LOCATION", "ROUTING", "LINES"}

func orderRows(orders []ProductionOrder) [][]string {
	rows := make([][]string, len(orders))
	for i, o := range orders {
		rows[i] = []string{
			o.OrderNo,
			o.ItemNo,
			qty(o.Quantity),
			o.UOM,
			o.LocationCode,
			o.Routing,
			strconv.Itoa(len(o.Lines)),
		}
	}
	return rows
}
