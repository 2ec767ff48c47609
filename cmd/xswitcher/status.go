package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			status, err := a.daemonClient().GetStatus(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			age := "empty"
			if status.CacheAgeMillis >= 0 {
				age = (time.Duration(status.CacheAgeMillis) * time.Millisecond).String()
			}
			display := status.Display
			if display == "" {
				display = "$DISPLAY"
			}
			fmt.Fprintf(out, "daemon_running: %v\n", status.DaemonRunning)
			fmt.Fprintf(out, "pid:            %d\n", status.PID)
			fmt.Fprintf(out, "uptime_seconds: %d\n", status.UptimeSeconds)
			fmt.Fprintf(out, "display:        %s\n", display)
			fmt.Fprintf(out, "cache_ttl:      %s\n", time.Duration(status.CacheTTLMillis)*time.Millisecond)
			fmt.Fprintf(out, "cache_age:      %s\n", age)
			fmt.Fprintf(out, "icon_dir:       %s\n", status.IconDir)
			return nil
		},
	}
}
