package logfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/verte-zerg/adccmp/internal/model"
)

var logNamePattern = regexp.MustCompile(`(?i)^(.+)_ads1[01]15\.log$`)

// Entry is one signal name found in the log directory.
type Entry struct {
	Name    string
	Missing []model.ADCUnit
}

// Complete reports whether every unit has a log for this signal.
func (e Entry) Complete() bool {
	return len(e.Missing) == 0
}

// Catalog lists the signals of a log directory in name order.
type Catalog struct {
	Dir     string
	Entries []Entry
}

// Names returns every discovered signal name.
func (c Catalog) Names() []string {
	names := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		names[i] = e.Name
	}
	return names
}

// Complete returns the signals that have a log for every unit.
func (c Catalog) Complete() []Entry {
	return c.filter(true)
}

// Incomplete returns the signals missing at least one unit's log.
func (c Catalog) Incomplete() []Entry {
	return c.filter(false)
}

func (c Catalog) filter(complete bool) []Entry {
	out := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if e.Complete() == complete {
			out = append(out, e)
		}
	}
	return out
}

// PairPath returns the log path of a signal for one unit.
func PairPath(dir, name string, unit model.ADCUnit) string {
	return filepath.Join(dir, name+unit.Suffix)
}

// ErrBadName reports a signal name that is not a plain file name stem.
var ErrBadName = errors.New("invalid signal name")

// CheckName rejects names that would resolve outside the log or output
// directory.
func CheckName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

// FindLog returns the log file of a signal for one unit. The lowercase
// PairPath spelling wins; otherwise the suffix is matched case-insensitively
// so X_ADS1015.log is found too.
func FindLog(dir, name string, unit model.ADCUnit) (string, error) {
	path := PairPath(dir, name, unit)
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return path, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat log: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to read log directory: %w", err)
	}
	want := name + unit.Suffix
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(entry.Name(), want) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// SplitName strips a known unit suffix from a log file name.
func SplitName(base string) (string, model.ADCUnit) {
	lower := strings.ToLower(base)
	for _, unit := range model.Units {
		if strings.HasSuffix(lower, unit.Suffix) {
			return base[:len(base)-len(unit.Suffix)], unit
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base)), model.ADCUnit{}
}

// Discover scans dir for unit logs and groups them by signal name.
func Discover(dir string) (Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Catalog{}, fmt.Errorf("%w: log directory %s", ErrNotFound, dir)
		}
		return Catalog{}, fmt.Errorf("failed to read log directory: %w", err)
	}

	names := map[string]struct{}{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := logNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		names[m[1]] = struct{}{}
	}

	catalog := Catalog{Dir: dir, Entries: make([]Entry, 0, len(names))}
	for name := range names {
		entry := Entry{Name: name}
		for _, unit := range model.Units {
			if _, err := FindLog(dir, name, unit); err != nil {
				entry.Missing = append(entry.Missing, unit)
			}
		}
		catalog.Entries = append(catalog.Entries, entry)
	}
	sort.Slice(catalog.Entries, func(i, j int) bool {
		return catalog.Entries[i].Name < catalog.Entries[j].Name
	})
	return catalog, nil
}
