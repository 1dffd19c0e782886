package journals

import (
	"time"

	"github.com/google/uuid"
)

// JournalStatus enumerates journal lifecycle values. Posted entries are
// immutable; corrections happen through void or reversing entries.
type JournalStatus string

const (
	JournalStatusPosted JournalStatus = "POSTED"
	JournalStatusVoid   JournalStatus = "VOID"
)

// JournalEntry captures posting metadata.
type JournalEntry struct {
	ID           int64
	OrgID        int64
	Number       int64
	EntryNumber  string
	PeriodID     int64
	Date         time.Time
	SourceModule string
	SourceID     uuid.UUID
	Memo         string
	TotalDebit   float64
	TotalCredit  float64
	PostedBy     int64
	PostedAt     time.Time
	Status       JournalStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// JournalLine stores debit or credit amount for an account.
type JournalLine struct {
	ID        int64
	JournalID int64
	AccountID int64
	Memo      string
	Debit     float64
	Credit    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
