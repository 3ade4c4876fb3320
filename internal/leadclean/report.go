package leadclean

// Report holds the quality counters of one run.
type Report struct {
	RowsIn            int `json:"rows_in"`
	RowsOut           int `json:"rows_out"`
	DroppedEmptyRows  int `json:"dropped_empty_rows"`
	InvalidPhones     int `json:"invalid_phones"`
	InvalidEmails     int `json:"invalid_emails"`
	InvalidDates      int `json:"invalid_dates"`
	InvalidAmounts    int `json:"invalid_amounts"`
	DuplicatesRemoved int `json:"duplicates_removed"`
}

// Consistent reports whether every read row is accounted for as dropped,
// emitted or removed as a duplicate.
func (r Report) Consistent() bool {
	return r.RowsIn == r.DroppedEmptyRows+r.RowsOut+r.DuplicatesRemoved
}

// accumulator builds a Report stage by stage. It is owned by a single run.
type accumulator struct {
	report Report
}

func (a *accumulator) rowRead()    { a.report.RowsIn++ }
func (a *accumulator) rowDropped() { a.report.DroppedEmptyRows++ }

// normalized tallies empty fields of a row that survived the filter. Rows
// later removed as duplicates still count.
func (a *accumulator) normalized(r NormalizedRow) {
	if r.Phone == "" {
		a.report.InvalidPhones++
	}
	if r.Email == "" {
		a.report.InvalidEmails++
	}
	if r.CreatedAt == "" {
		a.report.InvalidDates++
	}
	if r.Amount == "" {
		a.report.InvalidAmounts++
	}
}

// finish sets the output counters and hands back the final report by value.
func (a *accumulator) finish(normalizedCount, outCount int) Report {
	a.report.RowsOut = outCount
	a.report.DuplicatesRemoved = normalizedCount - outCount
	return a.report
}
