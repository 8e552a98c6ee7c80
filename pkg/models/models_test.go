package models

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTransform(t *testing.T) {
	table := NewRawTable([][]string{
		{"", "", ""},
		{"Objętość [ml]", "Extra", "Data", "Opis"},
		{"250", "x", "2024-01-01", "coffee"},
		{"", "", "", ""},
		{"500.5", "y", "05.01.2024", ""},
		{"1e3", "z", "45301"},
	})

	records, err := DefaultMapping().Transform(table, DefaultDateLayouts)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	expected := []struct {
		date        string
		description string
		volume      string
		row         int
	}{
		{"2024-01-01", "coffee", "250", 3},
		{"2024-01-05", "", "500.5", 5},
		{"2024-01-10", "", "1e3", 6},
	}
	for i, exp := range expected {
		got := records[i]
		if got.Date() != exp.date || got.Description() != exp.description || got.Volume() != exp.volume || got.Row() != exp.row {
			t.Errorf("Record %d mismatch:\nExpected: %+v\nGot: date=%s description=%q volume=%s row=%d",
				i, exp, got.Date(), got.Description(), got.Volume(), got.Row())
		}
	}
}

func TestTransformMissingColumn(t *testing.T) {
	table := NewRawTable([][]string{
		{"Data", "Opis"},
		{"2024-01-01", "coffee"},
	})

	_, err := DefaultMapping().Transform(table, DefaultDateLayouts)
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("Expected ErrColumnNotFound, got %v", err)
	}
}

func TestTransformBadDateFailsTable(t *testing.T) {
	table := NewRawTable([][]string{
		{"Data", "Opis", "Objętość [ml]"},
		{"2024-01-01", "ok", "1"},
		{"yesterday", "bad", "2"},
	})

	_, err := DefaultMapping().Transform(table, DefaultDateLayouts)
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("Expected ErrInvalidDate, got %v", err)
	}
}

func TestCustomMapping(t *testing.T) {
	m := Mapping{EventDate: "when", Description: "what", Volume: "ml"}
	table := NewRawTable([][]string{
		{"ml", "what", "when"},
		{"3", "tea", "2024/02/03"},
	})

	records, err := m.Transform(table, []string{"2006/01/02"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(records) != 1 || records[0].Date() != "2024-02-03" {
		t.Fatalf("Unexpected records: %+v", records)
	}
}

func TestCoerce(t *testing.T) {
	r, err := NewRecord("tea").SetDate("2024-01-01").SetVolume(" 12.50 ").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	args, err := r.Args()
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	if len(args) != 3 {
		t.Fatalf("Expected 3 args, got %d", len(args))
	}
	if r.Volume() != "12.5" {
		t.Errorf("Expected volume 12.5, got %s", r.Volume())
	}

	blank, _ := NewRecord("").SetDate("2024-01-01").Build()
	if err := blank.Coerce(); err != nil {
		t.Fatalf("Coerce of blank volume failed: %v", err)
	}
	if blank.Volume() != "" {
		t.Errorf("Expected NULL volume, got %s", blank.Volume())
	}

	bad, _ := NewRecord("x").AtRow(7).SetDate("2024-01-01").SetVolume("a lot").Build()
	if err := bad.Coerce(); !errors.Is(err, ErrInvalidVolume) {
		t.Fatalf("Expected ErrInvalidVolume, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-05":          time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		"2024-01-05 13:45:00": time.Date(2024, 1, 5, 13, 45, 0, 0, time.UTC),
		"05.01.2024":          time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		"45292":               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, err := ParseDate(raw, DefaultDateLayouts)
		if err != nil {
			t.Errorf("ParseDate(%q) failed: %v", raw, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", raw, got, want)
		}
	}

	for _, raw := range []string{"", "2024.01", "2024.1", "0", "-3", "99999999"} {
		if _, err := ParseDate(raw, DefaultDateLayouts); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Expected ErrInvalidDate for %q, got %v", raw, err)
		}
	}
}

func TestTransformYearMonthDateFailsTable(t *testing.T) {
	jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	table := NewRawTable([][]string{
		{"Data", "Opis", "Objętość [ml]"},
		{"2024-01-01", "ok", "1"},
		{jan10.Format("2006.01"), "day lost", "2"},
	})

	_, err := DefaultMapping().Transform(table, DefaultDateLayouts)
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("Expected ErrInvalidDate, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("Expected the row number in %q", err.Error())
	}
}

func TestDescriptionPassedThrough(t *testing.T) {
	table := NewRawTable([][]string{
		{"Data", "Opis", "Objętość [ml]"},
		{"2024-01-01", "  lemon tea  ", "1"},
		{"2024-01-02", "   ", "2"},
		{"2024-01-03", "", "3"},
	})

	records, err := DefaultMapping().Transform(table, DefaultDateLayouts)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	expected := []struct {
		description string
		valid       bool
	}{
		{"  lemon tea  ", true},
		{"   ", true},
		{"", false},
	}
	for i, exp := range expected {
		args, err := records[i].Args()
		if err != nil {
			t.Fatalf("Args failed: %v", err)
		}
		got := args[1].(sql.NullString)
		if got.String != exp.description || got.Valid != exp.valid {
			t.Errorf("Record %d: expected description %q (valid=%v), got %q (valid=%v)",
				i, exp.description, exp.valid, got.String, got.Valid)
		}
	}
}

func TestCutoffAdmits(t *testing.T) {
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	var absent Cutoff
	if !absent.Admits(jan5) {
		t.Error("Absent cutoff must admit every record")
	}

	c := NewCutoff(jan5)
	if c.Admits(jan5) {
		t.Error("Cutoff must not admit a record dated exactly at the cutoff")
	}
	if !c.Admits(jan10) {
		t.Error("Cutoff must admit a newer record")
	}
	if c.String() != "2024-01-05" {
		t.Errorf("Unexpected cutoff string %s", c.String())
	}
}
