package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/zjrosen/stupidea/internal/history"
)

const summaryWidth = 60

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List recorded runs",
	Long: `List recorded runs, newest first. With an id, print that run's source,
compiled script and output.

Examples:
  stupidea history
  stupidea history --limit 5
  stupidea history 5f0c2a3e-...`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer func() { _ = store.Close() }()

		ctx := cmd.Context()
		if len(args) == 1 {
			r, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), r)
		}
		runs, err := store.List(ctx, historyLimit)
		if err != nil {
			return err
		}
		return printRuns(cmd.OutOrStdout(), runs)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func printRuns(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet.")
		return err
	}
	for _, r := range runs {
		summary := runewidth.Truncate(strings.ReplaceAll(r.Summary(), "\t", " "), summaryWidth, "...")
		if _, err := fmt.Fprintf(w, "%s  %s  %-14s  %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, summary); err != nil {
			return err
		}
	}
	return nil
}

func printRun(w io.Writer, r history.Run) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "id:       %s\n", r.ID)
	fmt.Fprintf(&sb, "started:  %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "duration: %s\n", r.Duration)
	fmt.Fprintf(&sb, "model:    %s\n", r.Model)
	fmt.Fprintf(&sb, "status:   %s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(&sb, "error:    %s\n", r.Error)
	}
	sb.WriteString("\n--- source\n" + r.Source + "\n")
	if r.Script != "" {
		sb.WriteString("\n--- script\n" + r.Script + "\n")
	}
	if len(r.Output) > 0 {
		sb.WriteString("\n--- output\n" + strings.Join(r.Output, "\n") + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
