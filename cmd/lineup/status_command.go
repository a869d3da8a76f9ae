package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiBlue  = "\x1b[34m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and open sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderHeader("Lineup Daemon", colorize))
			fmt.Fprintf(out, "  Running:    %s\n", renderBool(status.Running, colorize))
			fmt.Fprintf(out, "  PID:        %d\n", status.PID)
			fmt.Fprintf(out, "  Drafts DB:  %s\n", status.DraftDBPath)
			fmt.Fprintf(out, "  Jobs DB:    %s\n", status.JobDBPath)
			fmt.Fprintf(out, "  Lock file:  %s\n", status.LockFilePath)

			if len(status.Sessions) == 0 {
				fmt.Fprintln(out, "\nNo open sessions")
				return nil
			}
			rows := make([][]string, 0, len(status.Sessions))
			for _, session := range status.Sessions {
				rows = append(rows, []string{
					session.ProjectID,
					session.Step,
					yesNo(session.Dirty),
					strconv.Itoa(session.Items),
					strconv.Itoa(session.Scheduled),
				})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(
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

func renderHeader(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if colorize {
		return ansiBlue + line + ansiReset
	}
	return line
}

func renderBool(value bool, colorize bool) string {
	text := yesNo(value)
	if !colorize {
		return text
	}
	if value {
		return ansiGreen + text + ansiReset
	}
	return ansiRed + text + ansiReset
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
