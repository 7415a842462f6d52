package logfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/adccmp/internal/model"
)

// Write serializes samples with a header row in the format Parse reads.
func Write(w io.Writer, samples []model.Sample) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := make([]string, len(Header))
	for _, s := range samples {
		row[0] = strconv.Itoa(s.Index)
		row[1] = strconv.FormatInt(s.TimestampUs, 10)
		row[2] = strconv.Itoa(s.Raw)
		row[3] = strconv.FormatFloat(s.VoltageV, 'g', -1, 64)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", s.Index, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
