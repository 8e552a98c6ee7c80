package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var utf8BOM = []byte("\xef\xbb\xbf")

func (p *Parser) readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectComma(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// detectComma guesses the separator from the header line. Spreadsheet exports
// in comma-decimal locales use ';'.
func detectComma(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	best, bestCount := ',', bytes.Count(header, []byte{','})
	for _, sep := range []rune{';', '\t'} {
		if n := bytes.Count(header, []byte(string(sep))); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}
