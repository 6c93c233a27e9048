// Package enricher attaches historical prices to synced transactions, either
// from a static pricing rule or from a nearest-timestamp candle lookup.
package enricher

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/finbase/nobisync/internal/assets"
	"github.com/finbase/nobisync/internal/domain"
)

const (
	// priceLookupWindow is how far before the transaction time the
	// per-transaction candle lookup reaches.
	priceLookupWindow = 60 * time.Second

	minuteResolution = "1"
	dayResolution    = "D"

	// bulkSpanPadding widens the candle span around a batch so boundary
	// transactions still find a daily candle.
	bulkSpanPadding = 24 * time.Hour

	maxParallelSeries = 4
)

// CandleFetcher fetches an OHLCV series for a market symbol over [from, to).
type CandleFetcher interface {
	FetchCandles(ctx context.Context, symbol, resolution string, from, to int64) ([]domain.Candle, error)
}

// Enricher prices transactions. Lookup failures always degrade to a nil
// price; enrichment never fails a batch.
type Enricher struct {
	candles CandleFetcher
	rules   assets.PriceTable
	logger  *zap.Logger
}

// New creates an enricher over the given candle source and pricing rules.
func New(candles CandleFetcher, rules assets.PriceTable, logger *zap.Logger) *Enricher {
	return &Enricher{candles: candles, rules: rules, logger: logger}
}

// Enrich returns a copy of tx with its price attached. Rule order: no rule
// (or no market symbol) yields a nil price, a root rule yields exactly 1,
// anything else prices from the candle closest to the transaction time.
func (e *Enricher) Enrich(ctx context.Context, tx domain.Transaction) domain.Transaction {
	rule, ok := e.rules.Rule(tx.Meta.Currency)
	if !ok || (!rule.IsRoot && rule.Symbol == "") {
		return tx.WithPrice(nil)
	}

	if rule.IsRoot {
		one := 1.0
		return tx.WithPrice(&one)
	}

	to := tx.Time.Unix()
	from := to - int64(priceLookupWindow.Seconds())

	candles, err := e.candles.FetchCandles(ctx, rule.Symbol, minuteResolution, from, to)
	if err != nil || len(candles) == 0 {
		e.absorb(rule.Symbol, err)
		return tx.WithPrice(nil)
	}

	price, ok := applyRule(rule, candles[len(candles)-1].Close)
	if !ok {
		return tx.WithPrice(nil)
	}
	return tx.WithPrice(&price)
}

// EnrichBatch prices a whole batch with one daily candle series per distinct
// market symbol, assigning each transaction the candle nearest to its
// timestamp. A failed series degrades its transactions to nil prices.
func (e *Enricher) EnrichBatch(ctx context.Context, txs []domain.Transaction) []domain.Transaction {
	type span struct{ from, to int64 }

	spans := make(map[string]span)
	for _, tx := range txs {
		rule, ok := e.rules.Rule(tx.Meta.Currency)
		if !ok || rule.IsRoot || rule.Symbol == "" {
			continue
		}

		ts := tx.Time.Unix()
		sp, seen := spans[rule.Symbol]
		if !seen {
			spans[rule.Symbol] = span{from: ts, to: ts}
			continue
		}
		sp.from = min(sp.from, ts)
		sp.to = max(sp.to, ts)
		spans[rule.Symbol] = sp
	}

	type seriesResult struct {
		symbol  string
		candles []domain.Candle
	}

	p := pool.NewWithResults[seriesResult]().WithMaxGoroutines(maxParallelSeries)
	padding := int64(bulkSpanPadding.Seconds())
	for symbol, sp := range spans {
		symbol, sp := symbol, sp
		p.Go(func() seriesResult {
			candles, err := e.candles.FetchCandles(ctx, symbol, dayResolution, sp.from-padding, sp.to+padding)
			if err != nil {
				e.absorb(symbol, err)
				return seriesResult{symbol: symbol}
			}
			return seriesResult{symbol: symbol, candles: candles}
		})
	}

	series := make(map[string][]domain.Candle, len(spans))
	for _, result := range p.Wait() {
		series[result.symbol] = result.candles
	}

	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		rule, ok := e.rules.Rule(tx.Meta.Currency)
		switch {
		case !ok || (!rule.IsRoot && rule.Symbol == ""):
			out = append(out, tx.WithPrice(nil))
		case rule.IsRoot:
			one := 1.0
			out = append(out, tx.WithPrice(&one))
		default:
			candle, found := nearestCandle(series[rule.Symbol], tx.Time.Unix())
			if !found {
				out = append(out, tx.WithPrice(nil))
				continue
			}
			price, priced := applyRule(rule, candle.Close)
			if !priced {
				out = append(out, tx.WithPrice(nil))
				continue
			}
			out = append(out, tx.WithPrice(&price))
		}
	}

	return out
}

// applyRule turns a candle close into a price. An inverted pair with a zero
// close cannot be priced.
func applyRule(rule assets.PriceRule, close float64) (float64, bool) {
	if rule.IsInverted {
		if close == 0 {
			return 0, false
		}
		return (1 / close) * rule.Multiplier, true
	}
	return close * rule.Multiplier, true
}

// nearestCandle picks the candle whose timestamp is closest to ts. Candles
// arrive in ascending order, so on an exact tie the earlier candle wins.
func nearestCandle(candles []domain.Candle, ts int64) (domain.Candle, bool) {
	var (
		best     domain.Candle
		bestDist int64
		found    bool
	)

	for _, candle := range candles {
		dist := candle.Time - ts
		if dist < 0 {
			dist = -dist
		}
		if !found || dist < bestDist {
			best, bestDist, found = candle, dist, true
		}
	}

	return best, found
}

func (e *Enricher) absorb(symbol string, err error) {
	if err == nil {
		return
	}
	e.logger.Warn("price lookup failed, degrading to null price",
		zap.Error(&domain.EnrichmentError{Symbol: symbol, Err: err}))
}
