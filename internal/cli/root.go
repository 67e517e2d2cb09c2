package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/stallserver/internal/fixture"
	"github.com/wesleyorama2/stallserver/internal/output"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stallserver",
		Short:   "An HTTP fixture that answers every GET and HEAD after a long stall",
		Version: version,
		Long: `stallserver listens on port 8897 and holds every GET or HEAD request for
100 seconds before answering 202 Accepted with a text/html "Accepted" body.
It stands in for an unresponsive upstream so a caller's own timeout handling
can be exercised. It takes no arguments and runs until killed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")

			srv := fixture.New(fixture.DefaultConfig(),
				fixture.WithLogger(output.NewLogger(cmd.ErrOrStderr(), noColor)),
				fixture.WithStartupWriter(cmd.OutOrStdout()),
			)
			return srv.ListenAndServe()
		},
	}

	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.AddCommand(newProbeCmd())

	return cmd
}

// Execute runs the root command and prints any error to stderr.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", output.ErrorIcon(output.ShouldDisableColor(false, os.Stderr)), err)
		return err
	}
	return nil
}
