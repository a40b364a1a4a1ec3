package model

import "time"

// Transaction is one entry in a wallet's history.
type Transaction struct {
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	Type         string  `json:"type"` // received, sent
	Counterparty string  `json:"counterparty,omitempty"`
}

// Wallet is the view of a funds account returned by the wallet provider.
// The core never constructs transactions; it only selects which view
// (real or decoy) an authentication unlocks.
type Wallet struct {
	Address      string        `json:"address"`
	Balance      float64       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

// TransferIntent signals the wallet subsystem to move real funds to a
// safe address. The core only emits the intent; executing the transfer
// is the wallet subsystem's concern.
type TransferIntent struct {
	Username    string    `json:"username"`
	ToAddress   string    `json:"to_address"`
	RequestedAt time.Time `json:"requested_at"`
}
