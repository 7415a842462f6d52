// Package main provides the CLI entrypoint for adccmp.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/adccmp/internal/config"
	"github.com/verte-zerg/adccmp/internal/model"
	"github.com/verte-zerg/adccmp/internal/render"
)

var (
	configPath     string
	logsDir        string
	outDir         string
	iPrimary       float64
	ctFullScaleV   float64
	peakPercentile float64
	removeDC       bool
	align          string
	refPoints      int
	snapshot       bool
	strict         bool
	tcSensitivity  float64
	tcOffset       float64
	verbose        bool

	refWave    string
	refFreq    float64
	refMVrms   float64
	refDuty    float64
	refModFreq float64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "adccmp <signal_name>",
		Short: "Compare ADS1015 and ADS1115 acquisitions of a signal",
		Long: "Render an interactive HTML chart comparing the 12-bit ADS1015 and 16-bit ADS1115\n" +
			"logs of a signal against its ideal reference waveform.",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.ExactArgs(1),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		RunE: runRenderCmd,
	}

	defaults := config.Defaults()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	flags.StringVar(&logsDir, "logs-dir", defaults.LogsDir, "directory holding <signal>_ads1015.log and <signal>_ads1115.log")
	flags.StringVar(&outDir, "out-dir", defaults.OutDir, "directory for rendered charts")
	flags.Float64Var(&iPrimary, "i_primary", defaults.IPrimary, "CT rated primary current in amperes")
	flags.Float64Var(&ctFullScaleV, "ct-full-scale", defaults.CTFullScaleV, "CT secondary voltage at rated current")
	flags.Float64Var(&peakPercentile, "peak-percentile", defaults.PeakPercentile, "percentile used for peak and Vpp (0 or 100 for exact extremes)")
	flags.BoolVar(&removeDC, "remove-dc", defaults.RemoveDC, "remove the DC bias before computing metrics")
	flags.StringVar(&align, "align", defaults.Align, "time alignment of the two logs: overlap or none")
	flags.IntVar(&refPoints, "ref-points", defaults.ReferencePoints, "reference waveform resolution")
	flags.BoolVar(&snapshot, "snapshot", false, "also write a static SVG next to the HTML chart")
	flags.BoolVar(&strict, "strict", false, "fail on the first malformed log row instead of skipping it")
	flags.Float64Var(&tcSensitivity, "tc-sensitivity", 0, "thermocouple sensitivity in V per degree (0 disables)")
	flags.Float64Var(&tcOffset, "tc-offset", 0, "thermocouple temperature offset")
	flags.StringVar(&refWave, "ref-wave", "", "reference waveform type, overrides the one parsed from the signal name")
	flags.Float64Var(&refFreq, "ref-freq", 60, "reference frequency in Hz (with --ref-wave)")
	flags.Float64Var(&refMVrms, "ref-mvrms", 0, "reference RMS in mV (with --ref-wave)")
	flags.Float64Var(&refDuty, "ref-duty", 50, "dimmer conduction in percent (with --ref-wave dimmer)")
	flags.Float64Var(&refModFreq, "ref-mod-freq", 0, "modulation frequency in Hz (with --ref-wave sine_mod)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newSignalsCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runRenderCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	path, err := render.Signal(args[0], cfg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "HTML saved to: %s\n", path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// resolveConfig merges defaults, the config file and flags. Flags set on
// the command line win over the file.
func resolveConfig(cmd *cobra.Command) (model.RenderConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return model.RenderConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "logs-dir", &logsDir, fileCfg.Paths.LogsDir)
	applyStringConfig(cmd, "out-dir", &outDir, fileCfg.Paths.OutDir)
	applyFloatConfig(cmd, "i_primary", &iPrimary, fileCfg.Render.IPrimary)
	applyFloatConfig(cmd, "ct-full-scale", &ctFullScaleV, fileCfg.Render.CTFullScaleV)
	applyFloatConfig(cmd, "peak-percentile", &peakPercentile, fileCfg.Render.PeakPercentile)
	applyBoolConfig(cmd, "remove-dc", &removeDC, fileCfg.Render.RemoveDC)
	applyStringConfig(cmd, "align", &align, fileCfg.Render.Align)
	applyIntConfig(cmd, "ref-points", &refPoints, fileCfg.Render.ReferencePoints)
	applyBoolConfig(cmd, "snapshot", &snapshot, fileCfg.Render.Snapshot)
	applyBoolConfig(cmd, "strict", &strict, fileCfg.Reader.Strict)
	applyFloatConfig(cmd, "tc-sensitivity", &tcSensitivity, fileCfg.Thermocouple.Sensitivity)
	applyFloatConfig(cmd, "tc-offset", &tcOffset, fileCfg.Thermocouple.Offset)

	cfg := model.RenderConfig{
		LogsDir:         logsDir,
		OutDir:          outDir,
		IPrimary:        iPrimary,
		CTFullScaleV:    ctFullScaleV,
		PeakPercentile:  peakPercentile,
		RemoveDC:        removeDC,
		Align:           align,
		ReferencePoints: refPoints,
		Snapshot:        snapshot,
		Reader:          model.ReaderOptions{Strict: strict},
		Thermocouple:    model.ThermocoupleConfig{Sensitivity: tcSensitivity, Offset: tcOffset},
	}
	if refWave != "" {
		cfg.Reference = &model.ReferenceParams{
			Type:      strings.ToLower(refWave),
			FreqHz:    refFreq,
			VrmsV:     refMVrms * 1e-3,
			DutyPct:   refDuty,
			ModFreqHz: refModFreq,
		}
	}
	if err := validateConfig(cfg); err != nil {
		return model.RenderConfig{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.RenderConfig) error {
	if cfg.LogsDir == "" {
		return fmt.Errorf("--logs-dir must not be empty")
	}
	if cfg.OutDir == "" {
		return fmt.Errorf("--out-dir must not be empty")
	}
	if !(cfg.IPrimary > 0) {
		return fmt.Errorf("--i_primary must be > 0")
	}
	if !(cfg.CTFullScaleV > 0) {
		return fmt.Errorf("--ct-full-scale must be > 0")
	}
	if cfg.PeakPercentile < 0 || cfg.PeakPercentile > 100 {
		return fmt.Errorf("--peak-percentile must be between 0 and 100")
	}
	switch cfg.Align {
	case model.AlignOverlap, model.AlignNone:
	default:
		return fmt.Errorf("--align must be %q or %q", model.AlignOverlap, model.AlignNone)
	}
	if cfg.ReferencePoints <= 0 {
		return fmt.Errorf("--ref-points must be > 0")
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	d := config.Defaults()
	return fmt.Sprintf(`# adccmp configuration
# Uncomment a value to enable it. CLI flags override config values.

[paths]
# logs-dir = %q           # Directory with <signal>_ads1015.log / _ads1115.log
# out-dir = %q          # Directory for rendered charts

[render]
# i-primary = %.1f        # CT rated primary current (A)
# ct-full-scale-v = %.3f  # CT secondary voltage at rated current (V)
# peak-percentile = %.1f   # Percentile for peak and Vpp; 0 or 100 for exact extremes
# remove-dc = %t          # Remove DC bias before computing metrics
# align = %q         # overlap trims both logs to the shared window, none keeps them whole
# reference-points = %d  # Reference waveform resolution
# snapshot = false        # Also write a static SVG

[reader]
# strict = false          # Fail on the first malformed row instead of skipping it

[thermocouple]
# sensitivity = 0.041     # V per degree; unset or 0 disables the temperature row
# offset = 0.0
`,
		d.LogsDir,
		d.OutDir,
		d.IPrimary,
		d.CTFullScaleV,
		d.PeakPercentile,
		d.RemoveDC,
		d.Align,
		d.ReferencePoints,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
