package importer

import "github.com/yurifrl/sheetload/pkg/models"

// Status is the outcome of checking one source record against the cutoff.
type Status int

const (
	Skipped Status = iota
	ToAppend
)

func (s Status) String() string {
	if s == ToAppend {
		return "append"
	}
	return "skipped"
}

type Entry struct {
	Record *models.Record
	Status Status
}

// Report holds every source record and whether it will be appended.
type Report struct {
	Cutoff   models.Cutoff
	Items    []Entry
	toAppend []*models.Record
}

// BuildReport keeps records strictly newer than the cutoff, or all of them
// when the cutoff is absent.
func BuildReport(records []*models.Record, cutoff models.Cutoff) *Report {
	items := make([]Entry, 0, len(records))
	toAppend := make([]*models.Record, 0, len(records))

	for _, r := range records {
		status := Skipped
		if cutoff.Admits(r.EventDate()) {
			status = ToAppend
			toAppend = append(toAppend, r)
		}
		items = append(items, Entry{Record: r, Status: status})
	}

	return &Report{Cutoff: cutoff, Items: items, toAppend: toAppend}
}

func (r *Report) SkippedCount() int {
	return len(r.Items) - len(r.toAppend)
}

func (r *Report) AppendCount() int {
	return len(r.toAppend)
}

// RecordsToAppend returns the filtered table in source order.
func (r *Report) RecordsToAppend() []*models.Record {
	return r.toAppend
}
