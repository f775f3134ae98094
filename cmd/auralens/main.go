package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/auralens/auralens/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┬ ┬┬─┐┌─┐┬  ┌─┐┌┐┌┌─┐
  ╠═╣│ │├┬┘├─┤│  ├┤ │││└─┐
  ╩ ╩└─┘┴└─┴ ┴┴─┘└─┘┘└┘└─┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		var coded *errors.Error
		if errors.As(err, &coded) {
			fmt.Fprint(os.Stderr, coded.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "auralens",
		Short: "Auralens landing page server",
		Long: `Auralens serves the landing page of the Auralens image editor.

The page is rendered on the server. A thin JavaScript client forwards
drag-and-drop, picker and prompt events over a WebSocket and applies
the patches the server answers with.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		configCmd(),
		versionCmd(),
	)
	return root
}

// printBanner prints the ASCII art banner.
func printBanner(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), banner)
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}
