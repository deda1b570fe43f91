package models

import (
	"slices"
	"time"

	"github.com/araddon/dateparse"
)

// Source field names of a log document in the search backend.
const (
	FieldAPIName      = "api_name"
	FieldStatus       = "status"
	FieldResponseTime = "response_time"
	FieldError        = "error"
	FieldTimestamp    = "timestamp"
)

// SourceFields is the projection requested for every log document.
var SourceFields = []string{FieldAPIName, FieldStatus, FieldResponseTime, FieldError, FieldTimestamp}

// LogRecord is one API-call log entry as retrieved from the search backend.
// Only ID is guaranteed; every other field may be nil.
type LogRecord struct {
	ID           string  `json:"id"`                      // Backend document id, unique per retrieval
	APIName      *string `json:"api_name,omitempty"`      // Name of the called API
	Status       *string `json:"status,omitempty"`        // Status as reported by the caller
	ResponseTime *string `json:"response_time,omitempty"` // Response time in ms, stringified
	Error        *string `json:"error,omitempty"`         // Error text, if any
	Timestamp    *string `json:"timestamp,omitempty"`     // Raw timestamp as stored
}

// ParsedTimestamp parses the record's timestamp leniently. The second return
// value is false when the timestamp is missing or cannot be parsed.
func (r LogRecord) ParsedTimestamp() (time.Time, bool) {
	if r.Timestamp == nil || *r.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(*r.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SortByTimestampDesc orders records newest first. Records with a missing or
// unparsable timestamp count as the zero instant and end up last; equal keys
// keep their retrieval order.
func SortByTimestampDesc(records []LogRecord) {
	type keyed struct {
		rec LogRecord
		at  time.Time
		ok  bool
	}
	ks := make([]keyed, len(records))
	for i, r := range records {
		at, ok := r.ParsedTimestamp()
		ks[i] = keyed{rec: r, at: at, ok: ok}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.ok && b.ok:
			return b.at.Compare(a.at)
		case a.ok:
			return -1
		case b.ok:
			return 1
		}
		return 0
	})
	for i := range ks {
		records[i] = ks[i].rec
	}
}

// FilterByIDs keeps the records whose ID is in ids, preserving their order.
func FilterByIDs(records []LogRecord, ids []string) []LogRecord {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []LogRecord
	for _, r := range records {
		if _, ok := wanted[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// StringPtr is a helper for building optional record fields.
func StringPtr(s string) *string {
	return &s
}
