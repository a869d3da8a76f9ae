package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lineup/internal/api"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Scheduling operations",
	}
	scheduleCmd.AddCommand(newSchedulePreviewCommand(ctx))
	return scheduleCmd
}

func newSchedulePreviewCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var explicit []string

	cmd := &cobra.Command{
		Use:   "preview <project>",
		Short: "Rebuild and show a session's schedule",
		Long: "Rebuild the session's schedule with the configured strategy and print the slot " +
			"assignments. Use --at item=RFC3339 to pin explicit times; pinned slots still round " +
			"to the scheduling granularity and shift on collisions.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			req := api.ScheduleRequest{}
			for _, pin := range explicit {
				itemID, value, ok := strings.Cut(pin, "=")
				if !ok || itemID == "" || value == "" {
					return fmt.Errorf("invalid --at value %q, want item=RFC3339-time", pin)
				}
				if req.ExplicitTimes == nil {
					req.ExplicitTimes = make(map[string]string)
				}
				req.ExplicitTimes[itemID] = value
			}

			scheduled, err := client.BuildSchedule(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.ScheduleResponse{Scheduled: scheduled})
			}
			if len(scheduled) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to schedule")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderScheduleTable(scheduled))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	cmd.Flags().StringArrayVar(&explicit, "at", nil, "Pin an item to an explicit time (item=RFC3339)")
	return cmd
}
