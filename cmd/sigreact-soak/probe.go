package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/sigreact/reclaim"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Show the reclamation strategy this host selects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := reclaim.LoadConfig()
			if err != nil {
				return err
			}

			caps := reclaim.Detect()
			strategy, err := reclaim.New(cfg)
			if err != nil {
				return err
			}
			defer strategy.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "finalizers:     %t\n", caps.Finalizers)
			fmt.Fprintf(out, "configured:     %s\n", cfg.Strategy)
			fmt.Fprintf(out, "selected:       %s\n", strategy.Name())
			fmt.Fprintf(out, "sweep interval: %s\n", cfg.SweepInterval)
			return nil
		},
	}
}
