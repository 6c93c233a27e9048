package nobitex

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/finbase/nobisync/internal/clients"
	"github.com/finbase/nobisync/internal/domain"
)

// defaultCandleWindow caps one UDF request; the endpoint rejects long spans.
const defaultCandleWindow = 48 * time.Hour

const (
	udfStatusOK     = "ok"
	udfStatusNoData = "no_data"
)

// FetchCandles returns the OHLCV series for symbol over [from, to), ordered
// by ascending time. Spans longer than the candle window are split into
// sequential sub-requests and concatenated; any sub-request failure fails
// the whole call.
func (a *Adapter) FetchCandles(ctx context.Context, symbol, resolution string, from, to int64) ([]domain.Candle, error) {
	window := int64(a.candleWindow.Seconds())

	var candles []domain.Candle
	for start := from; start < to; start += window {
		end := min(start+window, to)

		chunk, err := a.fetchCandleWindow(ctx, symbol, resolution, start, end)
		if err != nil {
			return nil, err
		}
		candles = append(candles, chunk...)
	}

	a.logger.Debug("fetched candle series",
		zap.String("symbol", symbol),
		zap.String("resolution", resolution),
		zap.Int("candles", len(candles)))

	return candles, nil
}

func (a *Adapter) fetchCandleWindow(ctx context.Context, symbol, resolution string, from, to int64) ([]domain.Candle, error) {
	var resp udfResponse
	err := a.client.Call(ctx, "/market/udf/history", clients.CallOptions{
		Query: url.Values{
			"symbol":     {symbol},
			"resolution": {resolution},
			"from":       {strconv.FormatInt(from, 10)},
			"to":         {strconv.FormatInt(to, 10)},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.S == udfStatusNoData {
		return nil, nil
	}
	if resp.S != udfStatusOK {
		return nil, &domain.RemoteError{
			Path: "/market/udf/history",
			Err:  errors.Errorf("udf status %q for symbol %s", resp.S, symbol),
		}
	}

	n := len(resp.T)
	if len(resp.O) != n || len(resp.H) != n || len(resp.L) != n || len(resp.C) != n || len(resp.V) != n {
		return nil, &domain.RemoteError{
			Path: "/market/udf/history",
			Err:  errors.Errorf("udf arrays have mismatched lengths for symbol %s", symbol),
		}
	}

	candles := make([]domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		candles = append(candles, domain.Candle{
			Time:   resp.T[i],
			Open:   resp.O[i],
			High:   resp.H[i],
			Low:    resp.L[i],
			Close:  resp.C[i],
			Volume: resp.V[i],
		})
	}

	return candles, nil
}
