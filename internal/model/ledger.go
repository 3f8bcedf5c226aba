package model

import "math/big"

// Deposit adds Amount isu to a room at Time (milliseconds).
type Deposit struct {
	Time   int64
	Amount *big.Int
}

// Purchase is the Ordinal-th unit of ItemID bought in a room at Time.
type Purchase struct {
	ItemID  int
	Ordinal int
	Time    int64
}

// LedgerStats summarizes a ledger store.
type LedgerStats struct {
	Rooms     int64 `json:"rooms"`
	Deposits  int64 `json:"deposits"`
	Purchases int64 `json:"purchases"`
}
