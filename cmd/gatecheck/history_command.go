package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gatecheck/internal/history"
	"gatecheck/internal/report"
	"gatecheck/internal/status"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past check runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(cmdCtx))
	historyCmd.AddCommand(newHistoryShowCommand(cmdCtx))
	return historyCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withHistory(func(store *history.Store) error {
				runs, err := store.RecentRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						string(run.Mode),
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
						strconv.Itoa(run.Containers),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.Grid(
					[]string{"Run", "Mode", "Started", "Duration", "Containers"},
					rows, 3, 4,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}

func newHistoryShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the records stored for one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withHistory(func(store *history.Store) error {
				records, err := store.RunResults(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						record.ContainerNumber,
						record.Terminal,
						record.Available,
						record.Location,
						holdsSummary(record),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.Grid(
					[]string{"Container", "Terminal", "Available", "Location", "Holds"},
					rows,
				))
				return nil
			})
		},
	}
}

func holdsSummary(record status.Record) string {
	parts := make([]string, 0, 4)
	for _, hold := range []struct {
		label string
		value string
	}{
		{"customs", record.CustomsHold},
		{"line", record.LineHold},
		{"cbpa", record.CBPAHold},
		{"terminal", record.TerminalHold},
	} {
		if hold.value != "" {
			parts = append(parts, hold.label+": "+hold.value)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, part := range parts[1:] {
		out += ", " + part
	}
	return out
}
