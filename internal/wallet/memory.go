package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/duressd/duressd/pkg/errclass"
	"github.com/duressd/duressd/pkg/logging"
	"github.com/duressd/duressd/pkg/model"
	"github.com/duressd/duressd/pkg/nameutil"
)

// MemoryProvider keeps real and decoy wallet views in memory. Transfer
// intents are recorded and logged; execution is out of scope.
type MemoryProvider struct {
	mu      sync.RWMutex
	wallets map[string]map[model.WalletSelector]*model.Wallet
	intents []model.TransferIntent
	log     *logging.Logger
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider(log *logging.Logger) *MemoryProvider {
	if log == nil {
		log = logging.NewLogger(logging.LevelInfo)
	}
	return &MemoryProvider{
		wallets: make(map[string]map[model.WalletSelector]*model.Wallet),
		log:     log,
	}
}

// Seed creates the real and decoy views for an identity with the given
// balances. Addresses are derived deterministically per view so repeat
// seeds produce stable output.
func (m *MemoryProvider) Seed(username string, realBalance, decoyBalance float64) {
	key := nameutil.Normalize(username)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[key] = map[model.WalletSelector]*model.Wallet{
		model.WalletReal: {
			Address: deriveAddress(key, model.WalletReal),
			Balance: realBalance,
		},
		model.WalletDecoy: {
			Address: deriveAddress(key, model.WalletDecoy),
			Balance: decoyBalance,
			Transactions: []model.Transaction{
				{Date: "2023-12-20", Amount: decoyBalance, Type: "received"},
			},
		},
	}
}

// Wallet returns the selected view for an identity.
func (m *MemoryProvider) Wallet(username string, sel model.WalletSelector) (*model.Wallet, error) {
	key := nameutil.Normalize(username)

	m.mu.RLock()
	defer m.mu.RUnlock()
	views, ok := m.wallets[key]
	if !ok {
		return nil, errclass.ErrWalletNotFound.WithMessagef("no wallets for %s", key)
	}
	w, ok := views[sel]
	if !ok {
		return nil, errclass.ErrWalletNotFound.WithMessagef("no %s wallet for %s", sel, key)
	}

	// Return a copy so callers cannot mutate the stored view.
	out := *w
	out.Transactions = append([]model.Transaction(nil), w.Transactions...)
	return &out, nil
}

// RequestTransfer records the intent. The in-memory provider does not
// execute transfers; it keeps the intent for inspection and logs it.
func (m *MemoryProvider) RequestTransfer(intent model.TransferIntent) error {
	m.mu.Lock()
	m.intents = append(m.intents, intent)
	m.mu.Unlock()

	m.log.Warn("safe-address transfer requested", map[string]any{
		"username": intent.Username,
		"to":       intent.ToAddress,
	})
	return nil
}

// TransferIntents returns all recorded intents, newest last.
func (m *MemoryProvider) TransferIntents() []model.TransferIntent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.TransferIntent(nil), m.intents...)
}

// deriveAddress produces a shielded-style address string from the
// username and selector.
func deriveAddress(username string, sel model.WalletSelector) string {
	sum := sha256.Sum256([]byte(username + ":" + string(sel)))
	return "zs1" + hex.EncodeToString(sum[:])[:40]
}
