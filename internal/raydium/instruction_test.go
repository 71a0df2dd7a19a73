package raydium

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
)

func testKeys() *PoolKeys {
	return &PoolKeys{
		ID:           solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"),
		ProgramID:    solana.MustPublicKeyFromBase58(ammV4Addr),
		Authority:    solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"),
		VaultA:       solana.MustPublicKeyFromBase58("DQyrAcCrDXQ7NeoqGgDCZwBvWDcYmFCjSb9JtteuvPpz"),
		VaultB:       solana.MustPublicKeyFromBase58("HLmqeL62xR1QoZ1HKKbXRrdN1p3phKpxRMb2VVopvBBz"),
		MintA:        solana.MustPublicKeyFromBase58(wsolAddr),
		MintB:        solana.MustPublicKeyFromBase58(usdcAddr),
		OpenOrders:   solana.MustPublicKeyFromBase58("HRk9CMrpq7Jn9sh7mzxE8CChHG8dneX9p475QKz4Fsfc"),
		TargetOrders: solana.MustPublicKeyFromBase58("CZza3Ej4Mc58MnxWA385itCC9jCo3L1D7zc3LKy1bZMR"),
	}
}

func testAccounts() SwapAccounts {
	return SwapAccounts{
		Owner:           solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"),
		UserSource:      solana.MustPublicKeyFromBase58("7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs"),
		UserDestination: solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"),
		TokenProgramIn:  solana.TokenProgramID,
		TokenProgramOut: solana.TokenProgramID,
	}
}

func TestStandardSwapExactIn(t *testing.T) {
	keys := testKeys()
	acc := testAccounts()

	build, err := BuildSwapExactIn(amm.Standard, keys, keys.MintA, 10_000, 9_900, acc)
	require.NoError(t, err)
	require.Len(t, build.Instructions, 1)
	assert.Empty(t, build.ExtraSigners)

	ix := build.Instructions[0]
	assert.Equal(t, keys.ProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 17)
	assert.Equal(t, byte(9), data[0])
	assert.Equal(t, uint64(10_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(9_900), binary.LittleEndian.Uint64(data[9:17]))

	metas := ix.Accounts()
	require.Len(t, metas, 10)
	// Selling mint A: vault A is the in-vault.
	assert.Equal(t, keys.VaultA, metas[5].PublicKey)
	assert.Equal(t, keys.VaultB, metas[6].PublicKey)
	assert.True(t, metas[9].IsSigner)
	assert.Equal(t, acc.Owner, metas[9].PublicKey)
}

func TestStandardSwapExactOut(t *testing.T) {
	keys := testKeys()

	build, err := BuildSwapExactOut(amm.Standard, keys, keys.MintB, 5_000, 5_100, testAccounts())
	require.NoError(t, err)

	data, err := build.Instructions[0].Data()
	require.NoError(t, err)
	require.Len(t, data, 17)
	assert.Equal(t, byte(11), data[0])
	assert.Equal(t, uint64(5_100), binary.LittleEndian.Uint64(data[1:9]))  // max in
	assert.Equal(t, uint64(5_000), binary.LittleEndian.Uint64(data[9:17])) // exact out

	// Selling mint B: vault orientation flips.
	metas := build.Instructions[0].Accounts()
	assert.Equal(t, keys.VaultB, metas[5].PublicKey)
	assert.Equal(t, keys.VaultA, metas[6].PublicKey)
}

func TestConcentratedSwap(t *testing.T) {
	keys := testKeys()
	keys.ProgramID = solana.MustPublicKeyFromBase58(clmmAddr)
	keys.AmmConfig = solana.MustPublicKeyFromBase58("9iFER3bpjf1PTTCQCfTRu17EJgvsxo9pVyA9QWwEuX4x")
	require.NoError(t, DeriveConcentratedAccounts(keys))

	acc := testAccounts()
	acc.Aux = []solana.PublicKey{keys.ExBitmap}

	build, err := BuildSwapExactIn(amm.Concentrated, keys, keys.MintA, 10_000, 9_900, acc)
	require.NoError(t, err)

	ix := build.Instructions[0]
	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 41)
	assert.Equal(t, clmmSwapDiscriminator[:], data[:8])
	assert.Equal(t, uint64(10_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(9_900), binary.LittleEndian.Uint64(data[16:24]))
	// sqrt price limit zeroed, base-input flag set.
	assert.Equal(t, make([]byte, 16), data[24:40])
	assert.Equal(t, byte(1), data[40])

	metas := ix.Accounts()
	require.Len(t, metas, 10) // 9 fixed + bitmap extension
	assert.True(t, metas[0].IsSigner)
	assert.Equal(t, keys.ObservationID, metas[7].PublicKey)
	assert.Equal(t, keys.ExBitmap, metas[9].PublicKey)
}

func TestConcentratedSwapExactOut_BaseInputFlag(t *testing.T) {
	keys := testKeys()
	keys.ProgramID = solana.MustPublicKeyFromBase58(clmmAddr)
	require.NoError(t, DeriveConcentratedAccounts(keys))

	build, err := BuildSwapExactOut(amm.Concentrated, keys, keys.MintA, 5_000, 5_100, testAccounts())
	require.NoError(t, err)

	data, err := build.Instructions[0].Data()
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), binary.LittleEndian.Uint64(data[8:16]))  // anchored output
	assert.Equal(t, uint64(5_100), binary.LittleEndian.Uint64(data[16:24])) // max input
	assert.Equal(t, byte(0), data[40])
}

func TestDeriveConcentratedAccounts(t *testing.T) {
	keys := testKeys()
	keys.ProgramID = solana.MustPublicKeyFromBase58(clmmAddr)
	require.True(t, keys.ObservationID.IsZero())

	require.NoError(t, DeriveConcentratedAccounts(keys))
	assert.False(t, keys.ObservationID.IsZero())
	assert.False(t, keys.ExBitmap.IsZero())

	// Idempotent: already-known accounts are kept.
	obs := keys.ObservationID
	require.NoError(t, DeriveConcentratedAccounts(keys))
	assert.Equal(t, obs, keys.ObservationID)
}

func TestBuildValidation(t *testing.T) {
	keys := testKeys()
	acc := testAccounts()

	_, err := BuildSwapExactIn(amm.Standard, nil, keys.MintA, 10_000, 9_900, acc)
	assert.Error(t, err)

	_, err = BuildSwapExactIn(amm.Standard, keys, keys.MintA, 0, 0, acc)
	assert.Error(t, err)

	foreign := solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263")
	_, err = BuildSwapExactIn(amm.Standard, keys, foreign, 10_000, 9_900, acc)
	assert.Error(t, err)

	acc.Owner = solana.PublicKey{}
	_, err = BuildSwapExactIn(amm.Standard, keys, keys.MintA, 10_000, 9_900, acc)
	assert.Error(t, err)
}
