// Package syncer implements incremental transaction synchronization: it
// paginates each wallet's history backward from now until the caller's last
// known transaction id is reached.
package syncer

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/finbase/nobisync/internal/assets"
	"github.com/finbase/nobisync/internal/domain"
)

const (
	defaultPageSize           = 100
	defaultMaxParallelWallets = 4
)

// WalletLister lists a user's wallets.
type WalletLister interface {
	ListWallets(ctx context.Context, apiKey string) ([]domain.Wallet, error)
}

// TransactionPager fetches one page of a wallet's history, newest first.
type TransactionPager interface {
	TransactionPage(ctx context.Context, apiKey string, walletID int64, page, pageSize int) ([]domain.Transaction, bool, error)
}

// Request carries everything one sync run needs from the caller. LastRecords
// holds the newest previously-seen transaction per asset; its exchange id is
// the cursor pagination stops at.
type Request struct {
	Metadata        domain.IntegrationMetadata `json:"metadata"`
	SupportedAssets []domain.KnownAsset        `json:"supportedAssets"`
	LastRecords     []domain.Transaction       `json:"lastRecords"`
}

// Syncer paginates wallet histories down to the caller's cursors. Wallets
// are synced concurrently; pagination within one wallet is sequential.
type Syncer struct {
	wallets            WalletLister
	pages              TransactionPager
	pageSize           int
	maxParallelWallets int
	logger             *zap.Logger
}

// New creates a sync engine. Non-positive pageSize or parallelism fall back
// to the defaults.
func New(wallets WalletLister, pages TransactionPager, pageSize, maxParallelWallets int, logger *zap.Logger) *Syncer {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if maxParallelWallets <= 0 {
		maxParallelWallets = defaultMaxParallelWallets
	}

	return &Syncer{
		wallets:            wallets,
		pages:              pages,
		pageSize:           pageSize,
		maxParallelWallets: maxParallelWallets,
		logger:             logger,
	}
}

// Sync returns all transactions newer than the caller's cursors, newest
// first per wallet. A wallet whose pagination fails contributes a SyncError
// to the returned error but never aborts sibling wallets, so the result may
// be partial even when err is non-nil.
func (s *Syncer) Sync(ctx context.Context, req Request) ([]domain.Transaction, error) {
	apiKey, err := req.Metadata.APIKey()
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("sync_run", uuid.NewString()))

	for _, warning := range assets.Validate(req.SupportedAssets) {
		log.Warn("asset list problem", zap.String("warning", warning))
	}

	wallets, err := s.wallets.ListWallets(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	type target struct {
		wallet   domain.Wallet
		cursorID int64
	}

	var targets []target
	for _, wallet := range wallets {
		asset, ok := assets.Resolve(wallet.Currency, req.SupportedAssets)
		if !ok {
			continue
		}

		last, hasLast := lastRecordFor(req.LastRecords, asset, wallet.Currency)
		if hasLast && balanceUnchanged(wallet.Balance, last.Balance) {
			// Known approximation: equal balances can hide transaction
			// pairs that net to zero, but they let us skip the wallet
			// without any remote calls.
			log.Debug("wallet balance unchanged, skipping",
				zap.Int64("wallet", wallet.ID),
				zap.String("currency", wallet.Currency))
			continue
		}

		var cursorID int64
		if hasLast {
			cursorID = last.Meta.ExchangeID
		}
		targets = append(targets, target{wallet: wallet, cursorID: cursorID})
	}

	results := make([][]domain.Transaction, len(targets))

	var (
		mu      sync.Mutex
		syncErr error
	)

	g := &errgroup.Group{}
	g.SetLimit(s.maxParallelWallets)
	for i, tgt := range targets {
		i, tgt := i, tgt
		g.Go(func() error {
			txs, err := s.syncWallet(ctx, apiKey, tgt.wallet, tgt.cursorID)
			if err != nil {
				mu.Lock()
				syncErr = multierr.Append(syncErr, err)
				mu.Unlock()
				log.Error("wallet sync failed",
					zap.Int64("wallet", tgt.wallet.ID),
					zap.String("currency", tgt.wallet.Currency),
					zap.Error(err))
				return nil
			}
			results[i] = txs
			return nil
		})
	}
	_ = g.Wait()

	// reassemble in wallet listing order, not completion order
	var out []domain.Transaction
	for _, txs := range results {
		out = append(out, txs...)
	}

	log.Info("sync finished",
		zap.Int("wallets", len(targets)),
		zap.Int("transactions", len(out)))

	return out, syncErr
}

// syncWallet pages through one wallet's history, newest first, until the
// cursor transaction is reached or the exchange reports no further pages.
// The cursor transaction itself is excluded from the result.
func (s *Syncer) syncWallet(ctx context.Context, apiKey string, wallet domain.Wallet, cursorID int64) ([]domain.Transaction, error) {
	var acc []domain.Transaction
	fetched := 0

	for {
		page := fetched/s.pageSize + 1

		txs, hasNext, err := s.pages.TransactionPage(ctx, apiKey, wallet.ID, page, s.pageSize)
		if err != nil {
			return nil, &domain.SyncError{WalletID: wallet.ID, Currency: wallet.Currency, Err: err}
		}
		fetched += len(txs)

		for _, tx := range txs {
			if cursorID != 0 && tx.Meta.ExchangeID <= cursorID {
				return acc, nil
			}
			acc = append(acc, tx)
		}

		if !hasNext || len(txs) == 0 {
			return acc, nil
		}
	}
}

// lastRecordFor finds the caller's newest known transaction for the asset a
// wallet resolved to.
func lastRecordFor(records []domain.Transaction, asset domain.KnownAsset, currency string) (domain.Transaction, bool) {
	for _, record := range records {
		if strings.EqualFold(record.AssetName, asset.Name) ||
			strings.EqualFold(record.AssetName, currency) ||
			strings.EqualFold(record.Meta.Currency, currency) {
			return record, true
		}
	}
	return domain.Transaction{}, false
}

// balanceUnchanged compares the wallet's raw balance string against the last
// record's balance exactly.
func balanceUnchanged(raw string, last domain.Amount) bool {
	current, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	return current.Equal(last.Decimal())
}
