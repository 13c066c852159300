package history

import (
	"io"

	"github.com/gocarina/gocsv"
)

// ExportCSV writes records as CSV with a header row.
func ExportCSV(w io.Writer, records []Record) error {
	return gocsv.Marshal(records, w)
}
