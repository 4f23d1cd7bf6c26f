// attendctl queries sessions and attendance reports from the command line,
// using the same environment configuration as the API.
//
// Usage:
//
//	attendctl sessions -q cs
//	attendctl report --course CS101 --date 5-3-2024 --time "9:00 am - 11:00 am"
//	attendctl export --course CS101 --date 5-3-2024 --time "9:00 am - 11:00 am" --format pdf
//	attendctl enqueue --course CS101 --date 5-3-2024 --time "9:00 am - 11:00 am" --format xlsx
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rollcall/internal/app"
	"rollcall/internal/config"
	"rollcall/internal/logger"
)

var (
	version   = "dev"
	outputFmt string
)

// openApp builds the services. Tests swap it for an in-memory setup.
var openApp = func(ctx context.Context) (*app.App, error) {
	cfg := config.Load()
	lg, err := logger.New(cfg.Env)
	if err != nil {
		return nil, err
	}
	// keep stdout for command output
	return app.Open(ctx, cfg, lg.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "attendctl",
		Short:         "Inspect sessions and attendance reports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json")

	root.AddCommand(sessionsCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(enqueueCmd())
	return root
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
