package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewQueuesCmd создаёт группу команд для настройки очередей.
func NewQueuesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queues",
		Short: "Manage RabbitMQ queues",
	}

	cmd.AddCommand(newQueuesEnsureCmd(clientFn, outputFn))

	return cmd
}

func newQueuesEnsureCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "ensure NAME",
		Short: "Declare a queue with its dead-letter and reply queues",
		Long:  "Declare NAME.bc, NAME.bc.dl and NAME.bc.reply. With --force all three are deleted first, dropping any messages they hold.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			resp, err := client.EnsureQueue(args[0], force)
			if err != nil {
				return err
			}

			headers := []string{"QUEUE", "DEAD_LETTER", "REPLY", "FORCED"}
			rows := [][]string{{resp.Queue, resp.DeadLetterQueue, resp.ReplyQueue, fmt.Sprint(resp.Forced)}}

			out.Print(headers, rows, resp)
			out.Success(fmt.Sprintf("Queue %s ready", resp.Queue))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete and recreate the queues")

	return cmd
}
