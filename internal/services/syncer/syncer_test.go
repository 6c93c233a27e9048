package syncer

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finbase/nobisync/internal/domain"
)

type fakeExchange struct {
	wallets []domain.Wallet
	// history is newest-first per wallet id
	history   map[int64][]domain.Transaction
	failing   map[int64]error
	pageCalls map[int64]int
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		history:   make(map[int64][]domain.Transaction),
		failing:   make(map[int64]error),
		pageCalls: make(map[int64]int),
	}
}

func (f *fakeExchange) ListWallets(ctx context.Context, apiKey string) ([]domain.Wallet, error) {
	return f.wallets, nil
}

func (f *fakeExchange) TransactionPage(ctx context.Context, apiKey string, walletID int64, page, pageSize int) ([]domain.Transaction, bool, error) {
	f.pageCalls[walletID]++
	if err := f.failing[walletID]; err != nil {
		return nil, false, err
	}

	history := f.history[walletID]
	start := (page - 1) * pageSize
	if start >= len(history) {
		return nil, false, nil
	}
	end := min(start+pageSize, len(history))
	return history[start:end], end < len(history), nil
}

func tx(id int64, currency string, balance float64) domain.Transaction {
	return domain.Transaction{
		Type:      domain.TransactionBuy,
		AssetName: currency,
		Quantity:  domain.NewAmountFromFloat(1),
		Balance:   domain.NewAmountFromFloat(balance),
		Meta:      domain.TransactionMeta{ExchangeID: id, Currency: currency},
	}
}

func ids(txs []domain.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.Meta.ExchangeID)
	}
	return out
}

var btcAsset = domain.KnownAsset{Name: "btc", Type: domain.AssetTypeToken, Aliases: []string{"بیت‌کوین"}}

func request(lastRecords ...domain.Transaction) Request {
	return Request{
		Metadata:        domain.IntegrationMetadata{"apiKey": "secret"},
		SupportedAssets: []domain.KnownAsset{btcAsset},
		LastRecords:     lastRecords,
	}
}

func TestSync_StopsAtCursor(t *testing.T) {
	ex := newFakeExchange()
	ex.wallets = []domain.Wallet{{ID: 1, Currency: "btc", Balance: "5"}}
	// three pages of two at page size 2, cursor id 6 sits on page 2
	ex.history[1] = []domain.Transaction{
		tx(10, "btc", 5), tx(9, "btc", 4),
		tx(7, "btc", 3), tx(6, "btc", 2),
		tx(5, "btc", 1), tx(4, "btc", 0.5),
	}

	s := New(ex, ex, 2, 1, zap.NewNop())

	cursor := tx(6, "btc", 2)
	cursor.Balance = domain.NewAmountFromFloat(99) // force the balance shortcut off

	got, err := s.Sync(context.Background(), request(cursor))
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 9, 7}, ids(got), "only ids above the cursor, cursor itself excluded")
	assert.Equal(t, 2, ex.pageCalls[1], "pagination must stop on the page containing the cursor")
}

func TestSync_IsIdempotent(t *testing.T) {
	ex := newFakeExchange()
	ex.wallets = []domain.Wallet{{ID: 1, Currency: "btc", Balance: "5"}}
	ex.history[1] = []domain.Transaction{tx(30, "btc", 5), tx(20, "btc", 3), tx(10, "btc", 1)}

	s := New(ex, ex, 2, 1, zap.NewNop())

	cursor := tx(10, "btc", -1)
	first, err := s.Sync(context.Background(), request(cursor))
	require.NoError(t, err)
	second, err := s.Sync(context.Background(), request(cursor))
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, []int64{30, 20}, ids(first))
}

func TestSync_ColdStartDrainsAllPages(t *testing.T) {
	ex := newFakeExchange()
	ex.wallets = []domain.Wallet{{ID: 1, Currency: "btc", Balance: "5"}}
	ex.history[1] = []domain.Transaction{
		tx(5, "btc", 5), tx(4, "btc", 4), tx(3, "btc", 3), tx(2, "btc", 2), tx(1, "btc", 1),
	}

	s := New(ex, ex, 2, 1, zap.NewNop())

	got, err := s.Sync(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(got))
	assert.Equal(t, 3, ex.pageCalls[1])
}

func TestSync_SkipsWalletWithUnchangedBalance(t *testing.T) {
	ex := newFakeExchange()
	ex.wallets = []domain.Wallet{{ID: 1, Currency: "btc", Balance: "5.25"}}
	ex.history[1] = []domain.Transaction{tx(5, "btc", 5.25)}

	s := New(ex, ex, 2, 1, zap.NewNop())

	got, err := s.Sync(context.Background(), request(tx(5, "btc", 5.25)))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, ex.pageCalls[1], "no remote calls for an unchanged wallet")
}

func TestSync_WalletFailureIsIsolated(t *testing.T) {
	ex := newFakeExchange()
	ex.wallets = []domain.Wallet{
		{ID: 1, Currency: "btc", Balance: "5"},
		{ID: 2, Currency: "بیت‌کوین", Balance: "7"},
	}
	ex.history[2] = []domain.Transaction{tx(42, "btc", 7)}
	ex.failing[1] = errors.New("boom")

	s := New(ex, ex, 2, 2, zap.NewNop())

	got, err := s.Sync(context.Background(), request())
	require.Error(t, err)

	var serr *domain.SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, int64(1), serr.WalletID)

	assert.Equal(t, []int64{42}, ids(got), "the healthy wallet still syncs")
}

func TestSync_MissingAPIKeyIsFatal(t *testing.T) {
	s := New(newFakeExchange(), newFakeExchange(), 2, 1, zap.NewNop())

	_, err := s.Sync(context.Background(), Request{
		Metadata:        domain.IntegrationMetadata{},
		SupportedAssets: []domain.KnownAsset{btcAsset},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSync_IncrementalRunsCoverOneShot(t *testing.T) {
	full := []domain.Transaction{
		tx(50, "btc", 9), tx(40, "btc", 7), tx(30, "btc", 5), tx(20, "btc", 3), tx(10, "btc", 1),
	}

	oneShot := func() []int64 {
		ex := newFakeExchange()
		ex.wallets = []domain.Wallet{{ID: 1, Currency: "btc", Balance: "9"}}
		ex.history[1] = full
		s := New(ex, ex, 2, 1, zap.NewNop())
		got, err := s.Sync(context.Background(), request(tx(10, "btc", -1)))
		require.NoError(t, err)
		return ids(got)
	}()

	// replay history in two stages, using each run's newest transaction as
	// the next cursor
	var incremental []int64
	cursor := tx(10, "btc", -1)
	for _, visible := range [][]domain.Transaction{full[2:], full} {
		ex := newFakeExchange()
		ex.wallets = []domain.Wallet{{ID: 1, Currency: "btc", Balance: "9"}}
		ex.history[1] = visible
		s := New(ex, ex, 2, 1, zap.NewNop())

		got, err := s.Sync(context.Background(), request(cursor))
		require.NoError(t, err)
		if len(got) > 0 {
			incremental = append(ids(got), incremental...)
			cursor = got[0]
			cursor.Balance = domain.NewAmountFromFloat(-1)
		}
	}

	assert.ElementsMatch(t, oneShot, incremental)
}
