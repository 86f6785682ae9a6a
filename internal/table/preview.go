package table

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

const previewTimeLayout = "2006-01-02 15:04:05"

// WritePreview prints the header and the first n rows of rec as aligned
// columns.
func WritePreview(w io.Writer, rec arrow.Record, n int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	names := make([]string, 0, rec.NumCols())
	for i := range int(rec.NumCols()) {
		names = append(names, rec.ColumnName(i))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(names, "\t")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rows := min(int64(n), rec.NumRows())
	for row := range int(rows) {
		cells := make([]string, 0, rec.NumCols())
		for col := range int(rec.NumCols()) {
			cells = append(cells, formatCell(rec.Column(col), row))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	return tw.Flush()
}

func formatCell(col arrow.Array, row int) string {
	switch c := col.(type) {
	case *array.Int64:
		return strconv.FormatInt(c.Value(row), 10)
	case *array.Timestamp:
		return timeAt(c, row).Format(previewTimeLayout)
	case *array.String:
		return c.Value(row)
	case *array.Boolean:
		return strconv.FormatBool(c.Value(row))
	default:
		return c.ValueStr(row)
	}
}

// timeAt reads a second-resolution timestamp cell as UTC.
func timeAt(c *array.Timestamp, row int) time.Time {
	return c.Value(row).ToTime(arrow.Second).UTC()
}
