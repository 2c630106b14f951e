package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInvoicesCmd создаёт группу команд для очередей инвойсов.
func NewInvoicesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Work with invoice queues",
	}

	cmd.AddCommand(newInvoicesFetchCmd(clientFn, outputFn))

	return cmd
}

func newInvoicesFetchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var queue string
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Drain invoices from a queue",
		Long:  "Drain up to --limit invoice messages from invoices_<queue>.bc. Fetched messages are acknowledged and leave the queue.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			resp, err := client.FetchInvoices(queue, limit)
			if err != nil {
				return err
			}

			headers := []string{"EXT_DOC_NO", "LINE", "CUSTOMER", "ITEM", "QTY", "LOCATION"}
			rows := make([][]string, len(resp.Invoices))
			for i, inv := range resp.Invoices {
				rows[i] = []string{
					field(inv, "ExtDocNo"),
					field(inv, "LineNo"),
					field(inv, "CustNo"),
					field(inv, "ItemNo"),
					field(inv, "Qty"),
					field(inv, "Location"),
				}
			}

			out.Print(headers, rows, resp)
			out.Success(fmt.Sprintf("Fetched %d invoice(s) from %s", resp.Count, resp.Queue))
			return nil
		},
	}

	cmd.Flags().StringVar(&queue, "queue", "fcl", "Invoice queue (fcl, cm, rmk)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of messages (server default if 0)")

	return cmd
}
