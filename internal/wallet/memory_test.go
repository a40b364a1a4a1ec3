package wallet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duressd/duressd/pkg/errclass"
	"github.com/duressd/duressd/pkg/model"
)

func TestSeedAndSelect(t *testing.T) {
	p := NewMemoryProvider(nil)
	p.Seed("demo", 25.75, 0.5)

	real, err := p.Wallet("demo", model.WalletReal)
	require.NoError(t, err)
	assert.Equal(t, 25.75, real.Balance)
	assert.NotEmpty(t, real.Address)

	decoy, err := p.Wallet("demo", model.WalletDecoy)
	require.NoError(t, err)
	assert.Equal(t, 0.5, decoy.Balance)
	assert.NotEqual(t, real.Address, decoy.Address)
}

func TestWallet_Unknown(t *testing.T) {
	p := NewMemoryProvider(nil)
	_, err := p.Wallet("ghost", model.WalletReal)
	assert.ErrorIs(t, err, errclass.ErrWalletNotFound)
}

func TestWallet_ReturnsCopy(t *testing.T) {
	p := NewMemoryProvider(nil)
	p.Seed("demo", 10, 1)

	w, err := p.Wallet("demo", model.WalletDecoy)
	require.NoError(t, err)
	w.Transactions = append(w.Transactions, model.Transaction{Amount: 999})

	again, err := p.Wallet("demo", model.WalletDecoy)
	require.NoError(t, err)
	assert.Len(t, again.Transactions, 1)
}

func TestRequestTransfer(t *testing.T) {
	p := NewMemoryProvider(nil)
	intent := model.TransferIntent{
		Username:    "demo",
		ToAddress:   "zs1safe",
		RequestedAt: time.Now(),
	}
	require.NoError(t, p.RequestTransfer(intent))

	got := p.TransferIntents()
	require.Len(t, got, 1)
	assert.Equal(t, "zs1safe", got[0].ToAddress)
}

func TestAddressesAreStable(t *testing.T) {
	p := NewMemoryProvider(nil)
	p.Seed("demo", 10, 1)
	first, _ := p.Wallet("demo", model.WalletReal)

	p.Seed("demo", 20, 2)
	second, _ := p.Wallet("demo", model.WalletReal)
	assert.Equal(t, first.Address, second.Address)
}
