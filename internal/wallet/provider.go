// Package wallet provides the funds-holding collaborator interface and
// an in-memory implementation seeded at enrollment.
package wallet

import (
	"github.com/duressd/duressd/pkg/model"
)

// Provider is the wallet subsystem as seen by the core. The core never
// constructs or broadcasts transactions; it selects a view and, on a
// dead-man trigger, emits a transfer intent.
type Provider interface {
	// Wallet returns the balance, address and transaction history for
	// the selected view.
	Wallet(username string, sel model.WalletSelector) (*model.Wallet, error)

	// RequestTransfer hands a safe-address transfer intent to the
	// wallet subsystem. The core only guarantees the intent was
	// accepted, not that any transfer completed.
	RequestTransfer(intent model.TransferIntent) error
}
