package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/moqwire/internal/config"
	errs "github.com/vango-dev/moqwire/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┌─┐ ┬ ┬┬┬─┐┌─┐
  ││││ ││─┼┐│││││├┬┘├┤
  ┴ ┴└─┘└─┘└└┴┘┴┴└─└─┘
`

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	noColor    bool
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		errs.PrintError(os.Stderr, errs.FromDecode(err, -1))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "moqwire",
		Short: "Decode, encode and serve Media over QUIC wire messages",
		Long: `moqwire works with the Media over QUIC Transport wire format.

It decodes control streams, data streams and datagrams into readable
summaries or JSON envelopes, encodes envelopes back to bytes, stores
captures, and runs an HTTP service that does the same.

  • Incremental decoding with exact byte shortfalls
  • Strict validation of every size limit and code point
  • JSON envelopes for every message and stream header
  • Prometheus metrics and OpenTelemetry spans per parse`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor || os.Getenv("NO_COLOR") != "" {
				errs.DisableColors()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to moqwire.json (default: nearest in working directory or its parents)")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		decodeCmd(),
		encodeCmd(),
		serveCmd(g),
		probeCmd(),
		captureCmd(g),
		explainCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads the file named by --config, or the nearest moqwire.json.
func (g *globals) loadConfig() (*config.Config, error) {
	if g.configPath != "" {
		return config.LoadFile(g.configPath)
	}
	return config.LoadFromWorkingDir()
}

// printBanner prints the moqwire ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
