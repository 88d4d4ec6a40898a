package domain

// ProgressEvent is one tagged update emitted while a check runs. The
// CheckID may be empty early on, before the backend has echoed the
// assignment back; the router resolves it through the session map.
type ProgressEvent struct {
	SessionID       SessionID
	CheckID         CheckID
	Status          Status
	TotalRefs       int
	ErrorsCount     int
	WarningsCount   int
	UnverifiedCount int
	ResultsDelta    []Result
}

// AsCheck projects the event onto a Check suitable for merging into a
// ledger entry.
func (e ProgressEvent) AsCheck() Check {
	return Check{
		ID:              e.CheckID,
		Status:          e.Status,
		TotalRefs:       e.TotalRefs,
		ErrorsCount:     e.ErrorsCount,
		WarningsCount:   e.WarningsCount,
		UnverifiedCount: e.UnverifiedCount,
		Results:         e.ResultsDelta,
	}
}
