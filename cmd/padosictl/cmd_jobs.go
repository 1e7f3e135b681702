package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List or run scheduled jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, name := range env.svc.Scheduler.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var jobsRunFlags struct {
	all bool
}

var jobsRunCmd = &cobra.Command{
	Use:   "run [job...]",
	Short: "Run jobs now, ignoring their schedule",
	RunE:  runJobs,
}

func init() {
	jobsRunCmd.Flags().BoolVar(&jobsRunFlags.all, "all", false, "run every job")
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsRunCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()
	if jobsRunFlags.all {
		results, err := env.svc.Scheduler.RunOnce(cmd.Context(), now)
		if perr := printJSON(cmd.OutOrStdout(), results); perr != nil {
			return perr
		}
		return err
	}
	if len(args) == 0 {
		return errors.New("name at least one job, or pass --all")
	}

	results := make(map[string]any, len(args))
	for _, name := range args {
		res, err := env.svc.Scheduler.RunJob(cmd.Context(), name, now)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		results[name] = res
	}
	return printJSON(cmd.OutOrStdout(), results)
}
