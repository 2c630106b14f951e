// OrderBridge CLI — инструмент командной строки для выборки из очередей,
// планирования производственных заказов и настройки очередей через HTTP API.
//
// Использование:
//
//	orderbridge [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	invoices  Выборка инвойсов
//	orders    Производственные заказы
//	queues    Настройка очередей
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/OrderBridge/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "orderbridge",
		Short:         "OrderBridge CLI — ERP invoice and production order bridge",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:3000"
	if v := os.Getenv("ORDERBRIDGE_API_URL"); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewInvoicesCmd(clientFn, outputFn),
		cli.NewOrdersCmd(clientFn, outputFn),
		cli.NewQueuesCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
