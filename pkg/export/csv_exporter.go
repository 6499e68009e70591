package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Format selects the output encoding of a match sheet.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Render encodes data in the requested format.
func Render(data Dataset, format Format) ([]byte, error) {
	switch format {
	case FormatCSV, "":
		return renderCSV(data)
	case FormatPDF:
		return renderPDF(data)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func renderCSV(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
