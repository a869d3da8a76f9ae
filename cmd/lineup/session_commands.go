package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lineup/internal/api"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect open staging sessions",
	}
	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	return sessionCmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			sessions, err := client.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.SessionListResponse{Sessions: sessions})
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No open sessions")
				return nil
			}
			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				rows = append(rows, []string{
					session.ProjectID,
					session.Step,
					yesNo(session.Dirty),
					strconv.Itoa(session.Items),
					strconv.Itoa(session.Scheduled),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Project", "Step", "Dirty", "Items", "Scheduled"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <project>",
		Short: "Show one session's staged content and schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			session, err := client.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.SessionResponse{Session: *session})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project: %s\nStep: %s\nDirty: %s\n\n",
				session.ProjectID, session.Step, yesNo(session.Dirty))

			if len(session.Items) == 0 {
				fmt.Fprintln(out, "No staged content")
			} else {
				rows := make([][]string, 0, len(session.Items))
				for _, item := range session.Items {
					rows = append(rows, []string{
						item.ID,
						item.SourceType,
						item.Title,
						strings.Join(item.TargetPlatforms, ", "),
						yesNo(item.Ready),
						itemValidity(item),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Type", "Title", "Platforms", "Ready", "Valid"},
					rows,
					nil,
				))
			}

			if len(session.Scheduled) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderScheduleTable(session.Scheduled))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of tables")
	return cmd
}

// itemValidity folds per-platform validity into a single cell.
func itemValidity(item api.ItemView) string {
	invalid := 0
	for _, fields := range item.Fields {
		if len(fields.ValidationErrors) > 0 {
			invalid++
		}
	}
	if invalid == 0 {
		return "yes"
	}
	return fmt.Sprintf("no (%d platform(s))", invalid)
}

func renderScheduleTable(entries []api.ScheduledView) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ItemID,
			entry.Title,
			entry.ScheduledDate,
			strings.Join(entry.Platforms, ", "),
			strings.Join(entry.SuggestedHashtags, " "),
			strconv.Itoa(entry.EngagementScore),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Scheduled", "Platforms", "Hashtags", "Score"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
