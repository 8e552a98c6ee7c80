package models

import "time"

// Cutoff is the newest event_date already present in the store. The zero
// value is an absent cutoff, which admits every record.
type Cutoff struct {
	Time  time.Time
	Valid bool
}

func NewCutoff(t time.Time) Cutoff {
	return Cutoff{Time: t, Valid: true}
}

// Admits reports whether a record dated t is newer than the cutoff.
func (c Cutoff) Admits(t time.Time) bool {
	return !c.Valid || t.After(c.Time)
}

func (c Cutoff) String() string {
	if !c.Valid {
		return "none"
	}
	return c.Time.Format("2006-01-02")
}
