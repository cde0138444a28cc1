// Package main is the entrypoint for the Plinth widget CLI.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "plinth-widget",
		Short: "Render Plinth widgets from the command line",
		Long: `plinth-widget renders Plinth content widgets into an HTML document
using the same embed runtime a host page runs, against a running Plinth server.

Settings are read from ~/.config/plinth/widget.yaml and PLINTH_* environment
variables. Run 'plinth-widget config show' to inspect them.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/plinth/widget.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRenderCmd(&configPath),
		newCSSCmd(&configPath),
		newConfigCmd(&configPath),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plinth Widget CLI %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
