// Command grist works with grist record logs: searching, decoding,
// encoding, tailing, and inspecting them.
//
// Logging goes to stderr and is quiet by default; --verbose turns on
// debug output. The logger is built here and handed down — no global
// slog configuration.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpl-au/grist"
)

var version = "dev"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "grist",
		Short:         "Work with grist record logs",
		Long:          "Search, decode, encode, tail, and inspect grist record logs and their line-delimited JSON analogue.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newGrepCmd(),
		newCatCmd(),
		newEncCmd(),
		newTailCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print tool and format version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "grist version %s (format version %d)\n",
				version, grist.FormatVersion)
		},
	}
}

// loggerFromCmd builds the stderr logger the subcommands inject
// downward.
func loggerFromCmd(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// inputPaths defaults to stdin when no files are listed.
func inputPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}
