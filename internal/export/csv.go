package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Row is a flat record that can be written as one CSV line.
type Row interface {
	Header() []string
	Values() []string
}

// WriteCSV writes a header line followed by one line per row. The header is
// taken from the zero value of T, so it is written even when rows is empty.
func WriteCSV[T Row](w io.Writer, rows []T) error {
	writer := csv.NewWriter(w)

	var zero T
	if err := writer.Write(zero.Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row.Values()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
