package catalog

import (
	"io"

	"github.com/gocarina/gocsv"
)

// ExportCSV writes products with a header row.
func ExportCSV(w io.Writer, products []Product) error {
	return gocsv.Marshal(products, w)
}
