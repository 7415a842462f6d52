// Package batch renders every signal found in a log directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/adccmp/internal/logfile"
	"github.com/verte-zerg/adccmp/internal/model"
	"github.com/verte-zerg/adccmp/internal/render"
	"github.com/verte-zerg/adccmp/internal/stats"
)

// ErrNoSignals reports a log directory without a single signal log.
var ErrNoSignals = errors.New("no signal logs found")

// Options controls a batch run.
type Options struct {
	// Jobs bounds concurrent renders. Values below 1 mean 1.
	Jobs int
	// Progress receives one line per signal plus a final tally. Nil discards.
	Progress io.Writer
}

// UnitMetrics is the per-converter part of a summary entry.
type UnitMetrics struct {
	model.Summary `yaml:",inline"`
	CurrentA      float64  `yaml:"current_a"`
	Samples       int      `yaml:"samples"`
	Skipped       int      `yaml:"skipped_rows"`
	TemperatureC  *float64 `yaml:"temperature_c,omitempty"`
}

// Item is the outcome of one signal.
type Item struct {
	Name    string                 `yaml:"name"`
	OK      bool                   `yaml:"ok"`
	Path    string                 `yaml:"path,omitempty"`
	Error   string                 `yaml:"error,omitempty"`
	Metrics map[string]UnitMetrics `yaml:"metrics,omitempty"`

	err error
}

// Err returns the failure of the item, if any.
func (it Item) Err() error {
	return it.err
}

// Result tallies a batch run. Items are sorted by signal name.
type Result struct {
	LogsDir   string  `yaml:"logs_dir"`
	OutDir    string  `yaml:"out_dir"`
	IPrimary  float64 `yaml:"i_primary"`
	Succeeded int     `yaml:"succeeded"`
	Failed    int     `yaml:"failed"`
	Items     []Item  `yaml:"signals"`
}

// Err summarizes failed signals, or returns nil when all rendered. It wraps
// every item failure, so errors.Is sees through to the cause.
func (r Result) Err() error {
	if r.Failed == 0 {
		return nil
	}
	var errs []error
	for _, it := range r.Items {
		if err := it.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return fmt.Errorf("%d of %d signals failed", r.Failed, len(r.Items))
	}
	return fmt.Errorf("%d of %d signals failed: %w", r.Failed, len(r.Items), errors.Join(errs...))
}

// FailedNames lists the signals that did not render.
func (r Result) FailedNames() []string {
	var names []string
	for _, it := range r.Items {
		if !it.OK {
			names = append(names, it.Name)
		}
	}
	return names
}

// Run discovers every signal under cfg.LogsDir, including ones missing a
// log, and renders each into cfg.OutDir. A failed signal is logged and
// counted; it never stops the others. The returned error covers discovery
// and cancellation only, use Result.Err for per-signal failures.
func Run(ctx context.Context, cfg model.RenderConfig, opts Options) (Result, error) {
	logger := logrus.WithField("tag", "Batch")
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	catalog, err := logfile.Discover(cfg.LogsDir)
	if err != nil {
		return Result{}, err
	}
	names := catalog.Names()
	if len(names) == 0 {
		return Result{}, fmt.Errorf("%w in %s", ErrNoSignals, cfg.LogsDir)
	}
	sort.Strings(names)

	res := Result{
		LogsDir:  cfg.LogsDir,
		OutDir:   cfg.OutDir,
		IPrimary: cfg.IPrimary,
		Items:    make([]Item, len(names)),
	}
	fmt.Fprintf(progress, "Found %d signals.\n", len(names))
	if incomplete := catalog.Incomplete(); len(incomplete) > 0 {
		fmt.Fprintf(progress, "%d of them are missing a log.\n", len(incomplete))
	}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(jobs)
	for i, name := range names {
		if ctx.Err() != nil {
			res.Items[i] = Item{Name: name, Error: ctx.Err().Error(), err: ctx.Err()}
			continue
		}
		g.Go(func() error {
			item := renderOne(name, cfg)
			mu.Lock()
			defer mu.Unlock()
			res.Items[i] = item
			status := "OK"
			if !item.OK {
				status = "ERROR"
				logger.WithField("signal", name).WithError(item.Err()).Error("render failed")
			}
			fmt.Fprintf(progress, "[%d/%d] %s ... %s\n", i+1, len(names), name, status)
			return nil
		})
	}
	_ = g.Wait()

	for _, it := range res.Items {
		if it.OK {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	fmt.Fprintf(progress, "\nDone: %d/%d rendered.\n", res.Succeeded, len(names))
	if res.Failed > 0 {
		fmt.Fprintln(progress, "Failed:")
		for _, name := range res.FailedNames() {
			fmt.Fprintf(progress, "  - %s\n", name)
		}
	}
	return res, ctx.Err()
}

func renderOne(name string, cfg model.RenderConfig) Item {
	rep, err := stats.BuildReport(name, cfg)
	if err != nil {
		return Item{Name: name, Error: err.Error(), err: err}
	}
	path, err := render.File(rep, cfg)
	if err != nil {
		return Item{Name: name, Error: err.Error(), err: err}
	}
	item := Item{Name: name, OK: true, Path: path, Metrics: make(map[string]UnitMetrics, len(rep.Units))}
	for _, u := range rep.Units {
		item.Metrics[u.Unit.Model] = UnitMetrics{
			Summary:      u.Summary,
			CurrentA:     u.CurrentA,
			Samples:      len(u.SeriesV),
			Skipped:      len(u.Log.Skipped),
			TemperatureC: u.TemperatureC,
		}
	}
	return item
}
