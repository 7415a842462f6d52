package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/adccmp/internal/batch"
	"github.com/verte-zerg/adccmp/internal/browse"
	"github.com/verte-zerg/adccmp/internal/logfile"
	"github.com/verte-zerg/adccmp/internal/stats"
)

var (
	batchJobs    int
	batchSummary string
	inspectPlotH int
)

const signalColumnWidth = 36

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render every signal found in the log directory",
		Args:  cobra.NoArgs,
		RunE:  runBatchCmd,
	}
	cmd.Flags().IntVarP(&batchJobs, "jobs", "j", 1, "number of signals rendered concurrently")
	cmd.Flags().StringVar(&batchSummary, "summary", "", "write a YAML summary of the run to this path")
	return cmd
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	if batchJobs < 1 {
		return fmt.Errorf("--jobs must be >= 1")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	res, err := batch.Run(cmd.Context(), cfg, batch.Options{Jobs: batchJobs, Progress: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	if batchSummary != "" {
		if err := res.WriteSummary(batchSummary); err != nil {
			return err
		}
		logErrf("Wrote %s\n", batchSummary)
	}
	return res.Err()
}

func newSignalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signals",
		Short: "List the signals found in the log directory",
		Args:  cobra.NoArgs,
		RunE:  runSignalsCmd,
	}
}

func runSignalsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	catalog, err := logfile.Discover(cfg.LogsDir)
	if err != nil {
		return err
	}
	if len(catalog.Entries) == 0 {
		logErrln("No signal logs found in", cfg.LogsDir)
		return nil
	}
	out := cmd.OutOrStdout()
	for _, entry := range catalog.Entries {
		status := "complete"
		if !entry.Complete() {
			missing := make([]string, 0, len(entry.Missing))
			for _, unit := range entry.Missing {
				missing = append(missing, unit.Model)
			}
			status = "missing " + strings.Join(missing, ", ")
		}
		if _, err := fmt.Fprintf(out, "%s  %s\n", runewidth.FillRight(entry.Name, signalColumnWidth), status); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintf(out, "\n%d signals, %d incomplete\n", len(catalog.Entries), len(catalog.Incomplete())); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <signal_name>",
		Short: "Print the metrics table and a terminal plot of a signal",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspectCmd,
	}
	cmd.Flags().IntVar(&inspectPlotH, "height", 12, "plot height in rows")
	return cmd
}

func runInspectCmd(cmd *cobra.Command, args []string) error {
	if inspectPlotH <= 0 {
		return fmt.Errorf("--height must be > 0")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	rep, err := stats.BuildReport(args[0], cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, rep); err != nil {
		return err
	}
	return stats.RenderWaveforms(out, rep, 0, inspectPlotH, false)
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse signals and metrics in a terminal UI",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	catalog, err := logfile.Discover(cfg.LogsDir)
	if err != nil {
		return err
	}
	if len(catalog.Entries) == 0 {
		return fmt.Errorf("%w in %s", batch.ErrNoSignals, cfg.LogsDir)
	}
	program := tea.NewProgram(browse.NewModel(catalog, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
