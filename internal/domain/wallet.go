package domain

// Wallet is a user wallet as listed by the exchange. Balance stays a raw
// decimal string until it goes through ParseAmount.
type Wallet struct {
	ID       int64
	Currency string
	Balance  string
}

// Candle is one OHLCV sample at a fixed time resolution.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
