package models

// DisplayRow is a LogRecord with every field resolved to printable text.
type DisplayRow struct {
	APIName      string
	Status       string
	ResponseTime string
	Error        string
	Timestamp    string
}

// DisplayPolicy holds the text used for each absent field. Different
// audiences get different placeholders, so each output picks its own policy.
type DisplayPolicy struct {
	APIName      string
	Status       string
	ResponseTime string
	Error        string
	Timestamp    string
}

var (
	// TablePolicy is used by the PDF table and the index page.
	TablePolicy = DisplayPolicy{
		APIName:      "-",
		Status:       "-",
		ResponseTime: "-",
		Error:        "-",
		Timestamp:    "-",
	}
	// SummaryPolicy is used by the selected-logs email.
	SummaryPolicy = DisplayPolicy{
		APIName:      "Unknown API",
		Status:       "-",
		ResponseTime: "-",
		Error:        "None",
		Timestamp:    "-",
	}
)

// Apply resolves r against the policy.
func (p DisplayPolicy) Apply(r LogRecord) DisplayRow {
	return DisplayRow{
		APIName:      orDefault(r.APIName, p.APIName),
		Status:       orDefault(r.Status, p.Status),
		ResponseTime: orDefault(r.ResponseTime, p.ResponseTime),
		Error:        orDefault(r.Error, p.Error),
		Timestamp:    orDefault(r.Timestamp, p.Timestamp),
	}
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
