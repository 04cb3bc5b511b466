// Package export writes the current table view as a downloadable file.
//
// Both writers take the columns and records of a view in display order;
// callers pass the filtered and sorted rows from core.Service.View.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/decoder"
)

// WriteCSV writes a header line of column labels followed by one line per
// record. Null cells are empty and numbers use their shortest decimal form.
func WriteCSV(w io.Writer, columns []core.Column, records []decoder.Record) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(columns))
	for n, rec := range records {
		for i, c := range columns {
			row[i] = rec[c.Field].String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename builds an attachment name such as "alumni_20240115_093000.csv".
func Filename(title, ext string, now time.Time) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "_"), "_")
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), strings.TrimPrefix(ext, "."))
}
