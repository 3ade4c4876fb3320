// Package leadio reads raw lead rows from CSV and writes cleaned rows and
// run reports.
package leadio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/ignite/lead-cleaner/internal/leadclean"
)

// ErrMissingColumn is returned when the header lacks a canonical lead column.
var ErrMissingColumn = errors.New("missing lead column")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRows reads a CSV stream with a header row and returns every data row in
// input order. Malformed quoting is tolerated; structural CSV errors abort.
func ReadRows(r io.Reader) ([]leadclean.RawRow, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("read header: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapping, err := MapColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []leadclean.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, mapping.Row(record))
	}
	return rows, nil
}

// stripBOM drops a leading UTF-8 byte order mark.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if peeked, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(peeked, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}
