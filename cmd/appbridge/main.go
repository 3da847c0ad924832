// Command appbridge calls a running app server (or the mock runtime) from the
// shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localapp/appbridge_go/internal/httpx"
	"github.com/localapp/appbridge_go/pkg/appbridge_sdk"
)

type globalFlags struct {
	origin  string
	output  string
	timeout time.Duration
	verbose bool
}

var (
	global globalFlags
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "appbridge",
	Short:         "Call the app bridge API from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch global.output {
		case "text", "json":
		default:
			return fmt.Errorf("unsupported output format %q", global.output)
		}
		if global.verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&global.origin, "origin", "", "app server origin (default $"+appbridge_sdk.EnvOrigin+", else mock mode)")
	pf.StringVarP(&global.output, "output", "o", "text", "output format: text|json")
	pf.DurationVar(&global.timeout, "timeout", 0, "abandon the call after this long, 0 waits forever")
	pf.BoolVarP(&global.verbose, "verbose", "v", false, "log HTTP exchanges")

	rootCmd.AddCommand(fsCommands()...)
	rootCmd.AddCommand(dialogCommands()...)
	rootCmd.AddCommand(appCommands()...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "appbridge: %v\n", err)
		os.Exit(1)
	}
}

// clients resolves the call surface from --origin or the environment.
func clients() (*appbridge_sdk.Clients, error) {
	opts := []httpx.Option{httpx.WithLogger(logger)}
	if origin := strings.TrimSpace(global.origin); origin != "" {
		return appbridge_sdk.New(origin, opts...)
	}
	c, mode, err := appbridge_sdk.NewFromEnv(opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("runtime resolved", zap.String("mode", mode))
	return c, nil
}

func callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if global.timeout > 0 {
		return context.WithTimeout(ctx, global.timeout)
	}
	return context.WithCancel(ctx)
}

// render writes v as indented JSON with -o json and falls back to text
// otherwise.
func render(w io.Writer, v any, text func(io.Writer) error) error {
	if global.output == "json" || text == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
	return text(w)
}
