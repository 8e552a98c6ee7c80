package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/yurifrl/sheetload/pkg/config"
	"github.com/yurifrl/sheetload/pkg/csv"
	"github.com/yurifrl/sheetload/pkg/models"
)

const filterLayout = "2006-01-02"

type filters struct {
	startDate   string
	endDate     string
	description string
}

func parseFilterDate(flag, value string) (time.Time, error) {
	t, err := time.ParseInLocation(filterLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s must be YYYY-MM-DD, got %q", config.ErrInvalidConfig, flag, value)
	}
	return t, nil
}

func (f *filters) toFilterFunc() (csv.FilterFunc[*models.Record], error) {
	var start, end time.Time
	var err error
	if f.startDate != "" {
		if start, err = parseFilterDate("start", f.startDate); err != nil {
			return nil, err
		}
	}
	if f.endDate != "" {
		if end, err = parseFilterDate("end", f.endDate); err != nil {
			return nil, err
		}
	}
	needle := strings.ToLower(f.description)

	return func(r *models.Record) bool {
		day := r.EventDate().UTC().Truncate(24 * time.Hour)
		if !start.IsZero() && day.Before(start) {
			return false
		}
		if !end.IsZero() && day.After(end) {
			return false
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Description()), needle) {
			return false
		}
		return true
	}, nil
}
