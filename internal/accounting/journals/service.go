package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian/internal/accounting/periods"
	"github.com/meridian-erp/meridian/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian/internal/shared"
)

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// CacheInvalidator bumps read-side ledger caches after postings.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service coordinates posting, voiding, and reversing journal entries.
type Service struct {
	repo  Repository
	audit AuditPort
	cache CacheInvalidator
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort, cache CacheInvalidator) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns one page of journal entries, newest first, with pagination
// metadata.
func (s *Service) List(ctx context.Context, orgID int64, page, perPage int) ([]JournalEntry, internalShared.Pagination, error) {
	total, err := s.repo.Count(ctx, orgID)
	if err != nil {
		return nil, internalShared.Pagination{}, err
	}
	p := internalShared.NewPagination(page, perPage, total)
	entries, err := s.repo.List(ctx, orgID, p.PerPage, p.Offset())
	if err != nil {
		return nil, internalShared.Pagination{}, err
	}
	return entries, p, nil
}

// FindEntryNumberBySource returns the entry number already booked for a
// source document, if any.
func (s *Service) FindEntryNumberBySource(ctx context.Context, orgID int64, module string, ref uuid.UUID) (string, error) {
	return s.repo.FindEntryNumberBySource(ctx, orgID, module, ref)
}

// PostJournal validates and persists a new journal entry. The whole posting
// runs in one transaction: period check, entry and line inserts, source link
// and denormalized balance maintenance commit or roll back together.
func (s *Service) PostJournal(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, input.PeriodID)
		if err != nil {
			return err
		}
		if period.OrgID != input.OrgID {
			return shared.ErrInvalidPeriod
		}
		if period.Status == periods.PeriodStatusLocked {
			return shared.ErrPeriodLocked
		}
		if period.Status != periods.PeriodStatusOpen && period.Status != periods.PeriodStatusClosed {
			return shared.ErrInvalidPeriod
		}
		if input.Date.Before(period.StartDate) || input.Date.After(period.EndDate) {
			return shared.ErrDateOutOfRange
		}
		inserted, err := tx.InsertJournalEntry(ctx, input)
		if err != nil {
			return err
		}
		if err := tx.InsertJournalLines(ctx, inserted.ID, input.Lines); err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, input.OrgID, input.SourceModule, input.SourceID, inserted.ID); err != nil {
			if errors.Is(err, shared.ErrSourceConflict) {
				return shared.ErrSourceAlreadyLinked
			}
			return err
		}
		for _, line := range input.Lines {
			if err := tx.ApplyBalanceDelta(ctx, line.AccountID, line.Debit, line.Credit); err != nil {
				return err
			}
		}
		inserted.Lines = toJournalLines(inserted.ID, input.Lines, s.now())
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.bump(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			OrgID:    input.OrgID,
			ActorID:  input.PostedBy,
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"entry_number":  entry.EntryNumber,
				"source_module": input.SourceModule,
				"source_id":     input.SourceID.String(),
			},
			At: s.now(),
		})
	}
	return entry, nil
}

// VoidJournal marks an existing journal as VOID and backs its amounts out
// of the denormalized account balances.
func (s *Service) VoidJournal(ctx context.Context, input VoidInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, errors.New("accounting: entry id required")
	}
	var entry JournalEntry
	var lines []JournalLine
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, currLines, err := tx.GetJournalWithLines(ctx, input.OrgID, input.EntryID)
		if err != nil {
			return err
		}
		period, err := tx.GetPeriodForUpdate(ctx, current.PeriodID)
		if err != nil {
			return err
		}
		if period.Status == periods.PeriodStatusLocked {
			return shared.ErrPeriodLocked
		}
		if period.Status == periods.PeriodStatusClosed {
			return shared.ErrInvalidPeriod
		}
		if current.Status != JournalStatusPosted {
			return shared.ErrInvalidStatus
		}
		if err := tx.UpdateJournalStatus(ctx, current.ID, JournalStatusVoid); err != nil {
			return err
		}
		for _, line := range currLines {
			if err := tx.ApplyBalanceDelta(ctx, line.AccountID, line.Credit, line.Debit); err != nil {
				return err
			}
		}
		entry = current
		entry.Status = JournalStatusVoid
		lines = currLines
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	s.bump(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			OrgID:    input.OrgID,
			ActorID:  input.ActorID,
			Action:   "journal.void",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"reason": input.Reason,
			},
			At: s.now(),
		})
	}
	return entry, nil
}

// ReverseJournal creates a reversing journal entry with debits and credits
// swapped. When the original period is no longer open the reversal lands in
// the next open period.
func (s *Service) ReverseJournal(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, errors.New("accounting: entry id required")
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, lines, err := tx.GetJournalWithLines(ctx, input.OrgID, input.EntryID)
		if err != nil {
			return err
		}
		if original.Status != JournalStatusPosted {
			return shared.ErrInvalidStatus
		}
		period, err := tx.GetPeriodForUpdate(ctx, original.PeriodID)
		if err != nil {
			return err
		}
		targetPeriod := period
		targetDate := original.Date
		if input.TargetDate != nil {
			targetDate = *input.TargetDate
		}
		if period.Status != periods.PeriodStatusOpen {
			if period.Status == periods.PeriodStatusLocked && !input.Override {
				return shared.ErrPeriodLocked
			}
			next, err := tx.GetNextOpenPeriodAfter(ctx, input.OrgID, period.EndDate.AddDate(0, 0, 1))
			if err != nil {
				return err
			}
			targetPeriod = next
			targetDate = next.StartDate
		}
		if targetDate.Before(targetPeriod.StartDate) || targetDate.After(targetPeriod.EndDate) {
			return shared.ErrDateOutOfRange
		}
		posting := PostingInput{
			OrgID:        input.OrgID,
			PeriodID:     targetPeriod.ID,
			Date:         targetDate,
			SourceModule: original.SourceModule + ":REVERSAL",
			SourceID:     uuid.New(),
			Memo:         defaultReversalMemo(input.Memo, original.EntryNumber),
			PostedBy:     input.ActorID,
			Lines:        reverseLines(lines),
		}
		inserted, err := tx.InsertJournalEntry(ctx, posting)
		if err != nil {
			return err
		}
		if err := tx.InsertJournalLines(ctx, inserted.ID, posting.Lines); err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, input.OrgID, posting.SourceModule, posting.SourceID, inserted.ID); err != nil {
			return err
		}
		for _, line := range posting.Lines {
			if err := tx.ApplyBalanceDelta(ctx, line.AccountID, line.Debit, line.Credit); err != nil {
				return err
			}
		}
		reversal = inserted
		reversal.Lines = toJournalLines(inserted.ID, posting.Lines, s.now())
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.bump(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			OrgID:    input.OrgID,
			ActorID:  input.ActorID,
			Action:   "journal.reverse",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", input.EntryID),
			Meta: map[string]any{
				"reversal_id":     reversal.ID,
				"reversal_number": reversal.EntryNumber,
			},
			At: s.now(),
		})
	}
	return reversal, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func reverseLines(lines []JournalLine) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, PostingLineInput{
			AccountID: line.AccountID,
			Memo:      line.Memo,
			Debit:     line.Credit,
			Credit:    line.Debit,
		})
	}
	return out
}

func toJournalLines(entryID int64, lines []PostingLineInput, ts time.Time) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	now := ts
	for _, line := range lines {
		out = append(out, JournalLine{
			JournalID: entryID,
			AccountID: line.AccountID,
			Memo:      line.Memo,
			Debit:     line.Debit,
			Credit:    line.Credit,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}

func defaultReversalMemo(memo, entryNumber string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of %s", entryNumber)
}
