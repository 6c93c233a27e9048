// Package nobitex adapts the Nobitex REST API to the capability interfaces
// the sync and enrichment services consume.
package nobitex

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/finbase/nobisync/internal/assets"
	"github.com/finbase/nobisync/internal/clients"
	"github.com/finbase/nobisync/internal/domain"
)

const quoteCurrency = "usdt"

// createdAtLayouts are tried in order when parsing transaction timestamps;
// some history rows come back without a zone offset.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// Adapter exposes balance listing, market snapshots, transaction pages and
// candle series for one Nobitex account.
type Adapter struct {
	client       *clients.Nobitex
	rules        assets.PriceTable
	candleWindow time.Duration
	logger       *zap.Logger
}

// Option configures the adapter.
type Option func(*Adapter)

// WithCandleWindow caps the span of a single UDF request; longer ranges are
// split into windows of this size.
func WithCandleWindow(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.candleWindow = d
		}
	}
}

// New creates an adapter on top of the REST client.
func New(client *clients.Nobitex, rules assets.PriceTable, logger *zap.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		client:       client,
		rules:        rules,
		candleWindow: defaultCandleWindow,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func authHeader(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Token " + apiKey}
}

// ListWallets returns the user's wallets with raw balance strings.
func (a *Adapter) ListWallets(ctx context.Context, apiKey string) ([]domain.Wallet, error) {
	var resp walletsResponse
	err := a.client.Call(ctx, "/users/wallets/list", clients.CallOptions{
		Headers: authHeader(apiKey),
	}, &resp)
	if err != nil {
		return nil, err
	}

	wallets := make([]domain.Wallet, 0, len(resp.Wallets))
	for _, w := range resp.Wallets {
		wallets = append(wallets, domain.Wallet{
			ID:       w.ID,
			Currency: w.Currency,
			Balance:  w.Balance,
		})
	}

	return wallets, nil
}

// FetchUserBalances lists the user's holdings as parsed amounts.
func (a *Adapter) FetchUserBalances(ctx context.Context, apiKey string) ([]domain.Balance, error) {
	wallets, err := a.ListWallets(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	balances := make([]domain.Balance, 0, len(wallets))
	for _, w := range wallets {
		quantity, err := domain.ParseAmount(w.Balance)
		if err != nil {
			return nil, err
		}
		balances = append(balances, domain.Balance{Name: w.Currency, Quantity: quantity})
	}

	return balances, nil
}

// FetchAssetValues returns the last traded price of each requested asset
// against USDT.
func (a *Adapter) FetchAssetValues(ctx context.Context, requested []string) ([]domain.AssetValue, error) {
	var resp statsResponse
	err := a.client.Call(ctx, "/market/stats", clients.CallOptions{
		Query: url.Values{
			"srcCurrency": {strings.Join(requested, ",")},
			"dstCurrency": {quoteCurrency},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	values := make([]domain.AssetValue, 0, len(resp.Stats))
	for pair, stats := range resp.Stats {
		src, _, _ := strings.Cut(pair, "-")

		value := domain.AssetValue{Name: src}
		if latest, err := strconv.ParseFloat(stats.Latest, 64); err == nil {
			value.Value = &latest
		}
		values = append(values, value)
	}

	return values, nil
}

// TransactionPage fetches one page of a wallet's history, newest first, and
// normalizes each row. The second result reports whether more pages exist.
func (a *Adapter) TransactionPage(ctx context.Context, apiKey string, walletID int64, page, pageSize int) ([]domain.Transaction, bool, error) {
	var resp transactionsResponse
	err := a.client.Call(ctx, "/users/wallets/transactions/list", clients.CallOptions{
		Query: url.Values{
			"wallet":   {strconv.FormatInt(walletID, 10)},
			"page":     {strconv.Itoa(page)},
			"pageSize": {strconv.Itoa(pageSize)},
		},
		Headers: authHeader(apiKey),
	}, &resp)
	if err != nil {
		return nil, false, err
	}

	txs := make([]domain.Transaction, 0, len(resp.Transactions))
	for _, payload := range resp.Transactions {
		tx, err := a.formatTransaction(payload)
		if err != nil {
			return nil, false, err
		}
		txs = append(txs, tx)
	}

	return txs, resp.HasNext, nil
}

// formatTransaction maps one history row onto the normalized transaction
// value, refining the type and unit-price hint from the description.
func (a *Adapter) formatTransaction(payload transactionPayload) (domain.Transaction, error) {
	createdAt, err := parseCreatedAt(payload.CreatedAt)
	if err != nil {
		return domain.Transaction{}, errors.Wrapf(err, "transaction %d has malformed created_at %q", payload.ID, payload.CreatedAt)
	}

	signDerived := domain.TransactionBuy
	if strings.HasPrefix(payload.Amount, "-") {
		signDerived = domain.TransactionSell
	}

	quantity, err := domain.ParseAmount(strings.TrimPrefix(payload.Amount, "-"))
	if err != nil {
		return domain.Transaction{}, err
	}
	balance, err := domain.ParseAmount(payload.Balance)
	if err != nil {
		return domain.Transaction{}, err
	}

	assetName := payload.Currency
	if rule, ok := a.rules.Rule(payload.Currency); ok {
		assetName = rule.BaseAsset
	}

	unitPrice, unit := ExtractUnitPrice(payload.Description)

	return domain.Transaction{
		Time:      createdAt,
		Type:      ClassifyType(payload.Description, signDerived),
		AssetName: assetName,
		Quantity:  quantity,
		Balance:   balance,
		Meta: domain.TransactionMeta{
			ExchangeID:  payload.ID,
			Currency:    payload.Currency,
			Description: payload.Description,
			UnitPrice:   unitPrice,
			Unit:        unit,
		},
	}, nil
}

func parseCreatedAt(raw string) (time.Time, error) {
	var err error
	for _, layout := range createdAtLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
