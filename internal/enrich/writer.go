package enrich

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes a header and one record per post. Null user fields are
// written as empty cells.
func WriteCSV(w io.Writer, rows []EnrichedPost) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.PostID),
			r.Title,
			strconv.Itoa(r.UserID),
			deref(r.UserName),
			deref(r.UserEmail),
			strconv.Itoa(r.CommentsCount),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write post %d: %w", r.PostID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the posts as an indented JSON array.
func WriteJSON(w io.Writer, rows []EnrichedPost) error {
	if rows == nil {
		rows = []EnrichedPost{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteRows dispatches on format ("csv" or "json").
func WriteRows(w io.Writer, format string, rows []EnrichedPost) error {
	switch format {
	case "csv":
		return WriteCSV(w, rows)
	case "json":
		return WriteJSON(w, rows)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteReport writes the report as indented JSON.
func WriteReport(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
