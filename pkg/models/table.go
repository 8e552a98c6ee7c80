package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrColumnNotFound = errors.New("column not found")

// RawTable is a sheet as read from the source file: a header row followed by
// data rows. Rows may be shorter than the header.
type RawTable struct {
	Header []string
	Rows   [][]string

	// skipped counts leading empty rows dropped before the header.
	skipped int
}

// NewRawTable splits rows into header and data, dropping leading empty rows.
func NewRawTable(rows [][]string) *RawTable {
	skipped := 0
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
		skipped++
	}
	if len(rows) == 0 {
		return &RawTable{skipped: skipped}
	}
	return &RawTable{Header: rows[0], Rows: rows[1:], skipped: skipped}
}

// Column returns the index of the header cell matching name.
func (t *RawTable) Column(name string) (int, bool) {
	name = strings.TrimSpace(name)
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	return -1, false
}

// Mapping names the source column feeding each target field.
type Mapping struct {
	EventDate   string `mapstructure:"event_date" yaml:"event_date"`
	Description string `mapstructure:"description" yaml:"description"`
	Volume      string `mapstructure:"volume" yaml:"volume"`
}

func DefaultMapping() Mapping {
	return Mapping{
		EventDate:   "Data",
		Description: "Opis",
		Volume:      "Objętość [ml]",
	}
}

// Transform selects the mapped columns and parses event dates. Any other
// column is discarded. Rows that are blank in every mapped column are skipped;
// any other row with an unparseable date fails the whole table.
func (m Mapping) Transform(t *RawTable, layouts []string) ([]*Record, error) {
	dateIdx, err := m.index(t, m.EventDate)
	if err != nil {
		return nil, err
	}
	descIdx, err := m.index(t, m.Description)
	if err != nil {
		return nil, err
	}
	volIdx, err := m.index(t, m.Volume)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		date, desc, vol := cell(row, dateIdx), cell(row, descIdx), cell(row, volIdx)
		if blank([]string{date, desc, vol}) {
			continue
		}

		record, err := NewRecord(desc).
			AtRow(t.skipped + i + 2).
			WithLayouts(layouts).
			SetDate(date).
			SetVolume(vol).
			Build()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (m Mapping) index(t *RawTable, name string) (int, error) {
	idx, ok := t.Column(name)
	if !ok {
		return -1, fmt.Errorf("%w: %q (header: %s)", ErrColumnNotFound, name, strings.Join(t.Header, ", "))
	}
	return idx, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
