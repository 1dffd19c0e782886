package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// Service answers ledger queries: account ledgers with running balances and
// trial balances. Aggregates are recomputed from posted lines per query and
// cached under a version bumped on every posting.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// AccountLedger returns time-ordered ledger lines, each with the running
// balance of its account: balance[i] = balance[i-1] + debit[i] - credit[i].
func (s *Service) AccountLedger(ctx context.Context, q Query) ([]Line, error) {
	key, err := s.cache.BuildKey(ctx, append([]string{"ledger", "lines"}, cacheKeyParts(q)...)...)
	if err != nil {
		return nil, err
	}
	var lines []Line
	err = s.cache.FetchJSON(ctx, key, &lines, func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.ListRows(ctx, q)
		if err != nil {
			return nil, err
		}
		return accumulate(rows), nil
	})
	return lines, err
}

// TrialBalance aggregates per-account balances grouped by code prefix.
// Concurrent identical rebuilds collapse into one via singleflight.
func (s *Service) TrialBalance(ctx context.Context, orgID int64, from, to *time.Time) (TrialBalance, error) {
	key, err := s.cache.BuildKey(ctx, "ledger", "tb", strconv.FormatInt(orgID, 10), dateKey(from), dateKey(to))
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (interface{}, error) {
		result, err, _ := s.group.Do(key, func() (interface{}, error) {
			balances, err := s.repo.ListBalances(ctx, orgID, from, to)
			if err != nil {
				return nil, err
			}
			return BuildTrialBalance(balances), nil
		})
		return result, err
	})
	return tb, err
}

// accumulate computes running balances per account over rows already in
// deterministic ledger order.
func accumulate(rows []row) []Line {
	balances := make(map[int64]float64)
	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		balances[r.AccountID] += r.Debit - r.Credit
		lines = append(lines, Line{
			EntryID:      r.EntryID,
			EntryNumber:  r.EntryNumber,
			Date:         r.Date,
			SourceModule: r.SourceModule,
			Memo:         r.Memo,
			AccountID:    r.AccountID,
			AccountCode:  r.AccountCode,
			AccountName:  r.AccountName,
			Debit:        r.Debit,
			Credit:       r.Credit,
			Balance:      balances[r.AccountID],
		})
	}
	return lines
}

func cacheKeyParts(q Query) []string {
	parts := []string{strconv.FormatInt(q.OrgID, 10)}
	if q.AccountID != nil {
		parts = append(parts, fmt.Sprintf("acct%d", *q.AccountID))
	} else {
		parts = append(parts, "all")
	}
	parts = append(parts, dateKey(q.From), dateKey(q.To))
	return parts
}

func dateKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("20060102")
}
