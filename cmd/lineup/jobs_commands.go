package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lineup/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect generation jobs",
	}
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	return jobsCmd
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Resubmit a failed generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			job, err := client.RetryJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.JobResponse{Job: *job})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resubmitted as job %s (%s)\n", job.ID, job.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			job, err := client.Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.JobResponse{Job: *job})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:       %s\n", job.ID)
			fmt.Fprintf(out, "Project:   %s\n", job.ProjectID)
			fmt.Fprintf(out, "Kind:      %s\n", job.Kind)
			fmt.Fprintf(out, "Status:    %s\n", job.Status)
			if job.CreatedAt != "" {
				fmt.Fprintf(out, "Created:   %s\n", job.CreatedAt)
			}
			if job.CompletedAt != "" {
				fmt.Fprintf(out, "Completed: %s\n", job.CompletedAt)
			}
			if job.Error != "" {
				fmt.Fprintf(out, "Error:     %s\n", job.Error)
			}
			if len(job.Result) > 0 {
				fmt.Fprintf(out, "Result:    %s\n", string(job.Result))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list <project>",
		Short: "List a project's generation jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			jobs, err := client.ProjectJobs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}
			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{job.ID, job.Kind, job.Status, job.CreatedAt, job.Error})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Kind", "Status", "Created", "Error"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
