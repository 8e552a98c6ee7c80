package models

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidVolume = errors.New("invalid volume")
)

// DefaultDateLayouts are tried in order when a date cell holds text.
// Numeric cells are read as Excel serial dates.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006.01.02",
	"2006.01.02 15:04:05",
	"02.01.2006",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
}

// Excel serial range: 1900-01-01 through 9999-12-31.
const (
	minSerial = 1
	maxSerial = 2958465
)

// yearMonth matches date cells that lost their day, as legacy .xls readers
// render built-in date formats.
var yearMonth = regexp.MustCompile(`^\d{4}\.\d{1,2}$`)

// Record is a single consumption event ready to be appended to the store.
type Record struct {
	row         int
	eventDate   time.Time
	description sql.NullString
	rawVolume   string
	volume      sql.NullFloat64
	coerced     bool
}

type RecordBuilder struct {
	record  *Record
	layouts []string
	err     error
}

// NewRecord keeps the description as found in the cell. Only an empty cell
// becomes NULL.
func NewRecord(description string) *RecordBuilder {
	return &RecordBuilder{
		record: &Record{
			description: sql.NullString{String: description, Valid: description != ""},
		},
		layouts: DefaultDateLayouts,
	}
}

// AtRow records the 1-based source row, used in error messages.
func (b *RecordBuilder) AtRow(row int) *RecordBuilder {
	b.record.row = row
	return b
}

func (b *RecordBuilder) WithLayouts(layouts []string) *RecordBuilder {
	if len(layouts) > 0 {
		b.layouts = layouts
	}
	return b
}

func (b *RecordBuilder) SetDate(raw string) *RecordBuilder {
	if b.err != nil {
		return b
	}
	t, err := ParseDate(raw, b.layouts)
	if err != nil {
		b.err = err
		return b
	}
	b.record.eventDate = t
	return b
}

// SetVolume stores the raw cell; conversion happens in Coerce so that rows
// dropped by the cutoff never need a numeric volume.
func (b *RecordBuilder) SetVolume(raw string) *RecordBuilder {
	b.record.rawVolume = strings.TrimSpace(raw)
	return b
}

func (b *RecordBuilder) Build() (*Record, error) {
	if b.err != nil {
		if b.record.row > 0 {
			return nil, fmt.Errorf("row %d: %w", b.record.row, b.err)
		}
		return nil, b.err
	}
	return b.record, nil
}

// Coerce converts the raw volume to a float. Blank volumes become NULL.
func (r *Record) Coerce() error {
	if r.coerced {
		return nil
	}
	v, err := ParseVolume(r.rawVolume)
	if err != nil {
		if r.row > 0 {
			return fmt.Errorf("row %d: %w", r.row, err)
		}
		return err
	}
	r.volume = v
	r.coerced = true
	return nil
}

// Args returns the insert arguments in target column order.
func (r *Record) Args() ([]any, error) {
	if err := r.Coerce(); err != nil {
		return nil, err
	}
	return []any{r.eventDate, r.description, r.volume}, nil
}

func (r *Record) Row() int {
	return r.row
}

func (r *Record) EventDate() time.Time {
	return r.eventDate
}

func (r *Record) Date() string {
	return r.eventDate.Format("2006-01-02")
}

func (r *Record) Description() string {
	return r.description.String
}

// Volume returns the coerced volume, or the raw cell text when the record has
// not been coerced yet.
func (r *Record) Volume() string {
	if !r.coerced {
		return r.rawVolume
	}
	if !r.volume.Valid {
		return ""
	}
	return strconv.FormatFloat(r.volume.Float64, 'f', -1, 64)
}

// ParseDate parses a date cell using the given layouts, falling back to Excel
// serial numbers for numeric cells.
func ParseDate(raw string, layouts []string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if yearMonth.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q has no day", ErrInvalidDate, s)
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minSerial && serial <= maxSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func ParseVolume(raw string) (sql.NullFloat64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("%w: %q", ErrInvalidVolume, s)
	}
	return sql.NullFloat64{Float64: d.InexactFloat64(), Valid: true}, nil
}
