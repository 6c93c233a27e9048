package domain

import "time"

// TransactionType is the refined classification of an exchange transaction.
type TransactionType string

const (
	TransactionBuy        TransactionType = "buy"
	TransactionSell       TransactionType = "sell"
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// TransactionMeta carries exchange-specific details of a transaction.
// ExchangeID doubles as the sync cursor: pagination stops once the id of the
// newest previously-seen transaction is reached.
type TransactionMeta struct {
	ExchangeID  int64    `json:"nobitex_id"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Unit        string   `json:"unit,omitempty"`
}

// Transaction is a normalized exchange transaction. Values are immutable once
// built; enrichment produces a copy with Price populated.
type Transaction struct {
	Time      time.Time       `json:"time"`
	Type      TransactionType `json:"type"`
	AssetName string          `json:"asset_name"`
	Quantity  Amount          `json:"quantity"`
	Price     *float64        `json:"price"`
	Balance   Amount          `json:"balance"`
	Meta      TransactionMeta `json:"meta"`
}

// WithPrice returns a copy of the transaction with the price attached.
func (t Transaction) WithPrice(price *float64) Transaction {
	t.Price = price
	return t
}
