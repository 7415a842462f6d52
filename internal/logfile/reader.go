// Package logfile reads and writes ADC acquisition logs.
package logfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/adccmp/internal/model"
)

var (
	// ErrNotFound reports a missing log file or log directory.
	ErrNotFound = errors.New("not found")
	// ErrMalformedRow reports a row that cannot be parsed into a sample.
	ErrMalformedRow = errors.New("malformed row")
	// ErrBadHeader reports a header row with unexpected column names.
	ErrBadHeader = errors.New("unexpected header")
	// ErrNoSamples reports a log without a single valid row.
	ErrNoSamples = errors.New("log contains no samples")
)

// RowError is returned in strict mode and collected otherwise.
type RowError = model.RowError

// Header is the column layout of every log.
var Header = []string{"sample", "timestamp_us", "raw", "voltage_V"}

// Load parses the log at path. The ADC unit and signal name are derived from
// the file name suffix.
func Load(path string, opts model.ReaderOptions) (*model.SignalLog, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only log.
			_ = cerr
		}
	}()

	logger := logrus.WithFields(logrus.Fields{
		"tag":  "LogReader",
		"path": path,
	})

	samples, skipped, err := parse(file, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	name, unit := SplitName(filepath.Base(path))
	log := &model.SignalLog{
		Name:    name,
		Unit:    unit,
		Path:    path,
		Samples: samples,
		Skipped: skipped,
	}
	if n := log.NonMonotonic(); n > 0 {
		logger.WithField("steps", n).Warn("timestamps are not strictly increasing")
	}
	logger.WithFields(logrus.Fields{
		"samples": len(samples),
		"skipped": len(skipped),
	}).Debug("log loaded")
	return log, nil
}

// Parse reads samples from r. Malformed rows are skipped and returned unless
// opts.Strict is set, in which case the first one is returned as a *RowError.
func Parse(r io.Reader, opts model.ReaderOptions) ([]model.Sample, []RowError, error) {
	return parse(r, opts, logrus.WithField("tag", "LogReader"))
}

func parse(r io.Reader, opts model.ReaderOptions, logger logrus.FieldLogger) ([]model.Sample, []RowError, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var (
		samples []model.Sample
		skipped []RowError
	)
	reject := func(rowErr RowError) error {
		if opts.Strict {
			return &rowErr
		}
		logger.WithFields(logrus.Fields{
			"line": rowErr.Line,
		}).WithError(rowErr.Err).Warn("skipping malformed row")
		skipped = append(skipped, rowErr)
		return nil
	}

	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, fmt.Errorf("failed to read log: %w", err)
			}
			if rerr := reject(RowError{
				Line: parseErr.StartLine,
				Err:  fmt.Errorf("%w: %v", ErrMalformedRow, parseErr.Err),
			}); rerr != nil {
				return nil, nil, rerr
			}
			first = false
			continue
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			// Spreadsheet exports often start with a UTF-8 byte order mark.
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			if !looksNumeric(record[0]) {
				if err := checkHeader(record); err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", line, err)
				}
				continue
			}
		}

		sample, err := parseRecord(record)
		if err != nil {
			if rerr := reject(RowError{Line: line, Err: err}); rerr != nil {
				return nil, nil, rerr
			}
			continue
		}
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, skipped, ErrNoSamples
	}
	return samples, skipped, nil
}

func parseRecord(record []string) (model.Sample, error) {
	if len(record) != len(Header) {
		return model.Sample{}, fmt.Errorf("%w: expected %d columns, got %d", ErrMalformedRow, len(Header), len(record))
	}
	index, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: sample %q is not an integer", ErrMalformedRow, record[0])
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: timestamp_us %q is not an integer", ErrMalformedRow, record[1])
	}
	raw, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: raw %q is not an integer", ErrMalformedRow, record[2])
	}
	voltage, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: voltage_V %q is not a number", ErrMalformedRow, record[3])
	}
	return model.Sample{
		Index:       index,
		TimestampUs: ts,
		Raw:         raw,
		VoltageV:    voltage,
	}, nil
}

func looksNumeric(field string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	return err == nil
}

func checkHeader(record []string) error {
	if len(record) != len(Header) {
		return fmt.Errorf("%w: %v", ErrBadHeader, record)
	}
	for i, want := range Header {
		if !strings.EqualFold(strings.TrimSpace(record[i]), want) {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i+1, record[i], want)
		}
	}
	return nil
}
