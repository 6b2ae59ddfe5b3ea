package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// a missing .env is fine, the environment is used as is
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sigreact-soak",
		Short: "Exercise reactions and their reclamation",
		Long: `sigreact-soak simulates subscription sites that render speculatively,
some of which never mount, and reports how the reclaimer cleaned them up.

Examples:
  sigreact-soak probe
  sigreact-soak run --sites=1000 --abandon-ratio=0.3
  sigreact-soak run --strategy=sweep --sweep-interval=200ms --json`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		runCmd(),
		probeCmd(),
	)

	return cmd
}
