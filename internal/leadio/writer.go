package leadio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ignite/lead-cleaner/internal/leadclean"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// WriteCSV writes a header and one record per row in canonical column order.
func WriteCSV(w io.Writer, rows []leadclean.NormalizedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(leadclean.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("write row %s: %w", r.LeadID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows as an indented JSON array of objects.
func WriteJSON(w io.Writer, rows []leadclean.NormalizedRow) error {
	if rows == nil {
		rows = []leadclean.NormalizedRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteRows dispatches on format.
func WriteRows(w io.Writer, format string, rows []leadclean.NormalizedRow) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteReport writes the run counters as indented JSON.
func WriteReport(w io.Writer, report leadclean.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// ContentType returns the MIME type for an output format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}
