package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check server reachability and storage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:   %s\n", cfg.Server.BaseURL)

			health, err := apiClient.Health(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "Status:   unreachable (%v)\n", err)
				return fmt.Errorf("vantaged is not reachable at %s", cfg.Server.BaseURL)
			}

			fmt.Fprintf(out, "Status:   running (pid %d)\n", health.PID)
			fmt.Fprintf(out, "Document: %s\n", yesNo(health.DocumentExists))
			fmt.Fprintf(out, "Data dir: %s\n", health.DataDir)
			if health.TotalBytes > 0 {
				fmt.Fprintf(out, "Disk:     %s free of %s\n",
					humanize.IBytes(health.FreeBytes),
					humanize.IBytes(health.TotalBytes))
			}
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
