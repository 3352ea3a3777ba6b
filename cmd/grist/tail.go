package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpl-au/grist"
)

func newTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail [flags] [file]",
		Short: "Print the last records of a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("records")
			follow, _ := cmd.Flags().GetBool("follow")
			logger := loggerFromCmd(cmd)

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			in, err := grist.OpenInput(path, logger)
			if err != nil {
				return err
			}
			defer in.Close()

			ctx, stop := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			t := grist.NewTailer(in, os.Stdout, grist.TailConfig{
				Count:  n,
				Follow: follow,
			}, logger)
			return t.Run(ctx)
		},
	}

	cmd.Flags().IntP("records", "n", 10, "number of records to print")
	cmd.Flags().BoolP("follow", "F", false, "keep printing records as the file grows")
	return cmd
}
