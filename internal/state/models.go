package state

import "time"

// Entry is the persisted record of a successful projection, keyed by catalog
// record identifier.
type Entry struct {
	RecordID       string
	SourcePath     string
	ModTime        time.Time
	Filename       string
	LinkPath       string
	DescriptorPath string
	Collided       bool
	UpdatedAt      time.Time
}

// Claim records that a record identifier mapped to a bare filename.
type Claim struct {
	BareName string
	RecordID string
}

// Summary aggregates store contents for status output.
type Summary struct {
	Entries        int
	Collided       int
	ClaimedNames   int
	ContestedNames int
}
