package nobitex

// Wire types for the Nobitex REST API.

type walletsResponse struct {
	Status  string          `json:"status"`
	Wallets []walletPayload `json:"wallets"`
}

type walletPayload struct {
	ID             int64  `json:"id"`
	Currency       string `json:"currency"`
	Balance        string `json:"balance"`
	BlockedBalance string `json:"blockedBalance"`
	ActiveBalance  string `json:"activeBalance"`
}

type transactionsResponse struct {
	Status       string               `json:"status"`
	Transactions []transactionPayload `json:"transactions"`
	HasNext      bool                 `json:"hasNext"`
}

type transactionPayload struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Balance     string `json:"balance"`
}

type statsResponse struct {
	Status string                `json:"status"`
	Stats  map[string]assetStats `json:"stats"`
}

type assetStats struct {
	IsClosed bool   `json:"isClosed"`
	Latest   string `json:"latest"`
	DayLow   string `json:"dayLow"`
	DayHigh  string `json:"dayHigh"`
	DayOpen  string `json:"dayOpen"`
	DayClose string `json:"dayClose"`
}

// udfResponse is the TradingView-style UDF history payload: parallel arrays
// of timestamps and OHLCV values.
type udfResponse struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	C []float64 `json:"c"`
	V []float64 `json:"v"`
}
