package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubLedgerRepo struct {
	rows     []row
	balances []AccountBalance
	calls    int
}

func (r *stubLedgerRepo) ListRows(ctx context.Context, q Query) ([]row, error) {
	r.calls++
	return r.rows, nil
}

func (r *stubLedgerRepo) ListBalances(ctx context.Context, orgID int64, from, to *time.Time) ([]AccountBalance, error) {
	r.calls++
	return r.balances, nil
}

func testCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), client
}

func sampleRows() []row {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }
	return []row{
		{EntryID: 1, EntryNumber: "JE-AR-000001", Number: 1, LineID: 1, Date: day(1), AccountID: 100, AccountCode: "1000", AccountName: "Cash", Debit: 500},
		{EntryID: 2, EntryNumber: "JE-AR-000002", Number: 2, LineID: 3, Date: day(2), AccountID: 100, AccountCode: "1000", AccountName: "Cash", Credit: 200},
		{EntryID: 3, EntryNumber: "JE-AR-000003", Number: 3, LineID: 5, Date: day(3), AccountID: 100, AccountCode: "1000", AccountName: "Cash", Debit: 50},
	}
}

func TestAccountLedgerRunningBalance(t *testing.T) {
	cache, _ := testCache(t)
	repo := &stubLedgerRepo{rows: sampleRows()}
	service := NewService(repo, cache)

	lines, err := service.AccountLedger(context.Background(), Query{OrgID: 1})
	require.NoError(t, err)
	require.Len(t, lines, 3)

	// balance[i] = balance[i-1] + debit[i] - credit[i]
	require.Equal(t, 500.0, lines[0].Balance)
	require.Equal(t, 300.0, lines[1].Balance)
	require.Equal(t, 350.0, lines[2].Balance)
	for i, line := range lines {
		prev := 0.0
		if i > 0 {
			prev = lines[i-1].Balance
		}
		require.InDelta(t, prev+line.Debit-line.Credit, line.Balance, 1e-9)
	}
}

func TestAccountLedgerServesFromCacheUntilBump(t *testing.T) {
	cache, _ := testCache(t)
	repo := &stubLedgerRepo{rows: sampleRows()}
	service := NewService(repo, cache)
	ctx := context.Background()

	_, err := service.AccountLedger(ctx, Query{OrgID: 1})
	require.NoError(t, err)
	_, err = service.AccountLedger(ctx, Query{OrgID: 1})
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls, "second query must hit the cache")

	require.NoError(t, cache.Bump(ctx))

	_, err = service.AccountLedger(ctx, Query{OrgID: 1})
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls, "bump must invalidate cached aggregates")
}

func TestTrialBalanceTotalsBalance(t *testing.T) {
	cache, _ := testCache(t)
	repo := &stubLedgerRepo{balances: []AccountBalance{
		{Code: "1000", Name: "Cash", Type: "ASSET", Opening: 0, Debit: 700, Credit: 100},
		{Code: "4000", Name: "Sales Revenue", Type: "REVENUE", Opening: 0, Debit: 0, Credit: 600},
	}}
	service := NewService(repo, cache)

	tb, err := service.TrialBalance(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 700.0, tb.TotalDebit)
	require.Equal(t, 700.0, tb.TotalCredit)
	require.Len(t, tb.Groups, 2)
}
