package reconcile

import "time"

// RecordState classifies a record within one run.
type RecordState string

const (
	StateUnseen    RecordState = "unseen"
	StateProcessed RecordState = "processed"
	StateStale     RecordState = "stale"
	StateMissing   RecordState = "missing"
	StateOrphaned  RecordState = "orphaned"
)

// RecordFailure describes one record that could not be reconciled.
type RecordFailure struct {
	RecordID string
	Outcome  string
	Error    string
}

// Report summarizes a run.
type Report struct {
	Fetched          int
	Considered       int
	Created          int
	Updated          int
	Unchanged        int
	Missing          int
	Orphaned         int
	Collisions       int
	Requalified      int
	Invalid          int
	Failed           int
	PermissionDenied int
	Duration         time.Duration
	Failures         []RecordFailure
}

// Changed reports whether the run modified the library tree.
func (r Report) Changed() bool {
	return r.Created+r.Updated+r.Orphaned+r.Requalified > 0
}

// Problems is the number of records that need attention.
func (r Report) Problems() int {
	return r.Invalid + r.Failed + r.PermissionDenied
}
