package csv

import (
	"bytes"
	"encoding/csv"
)

type Record interface {
	Date() string
	Description() string
	Volume() string
}

type FilterFunc[T Record] func(T) bool

// Create renders records as CSV in target column order, keeping those
// accepted by filter (all of them when filter is nil).
func Create[T Record](records []T, filter FilterFunc[T]) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"event_date", "description", "volume"})
	for _, r := range records {
		if filter == nil || filter(r) {
			_ = w.Write([]string{r.Date(), r.Description(), r.Volume()})
		}
	}
	w.Flush()
	return buf.Bytes()
}
