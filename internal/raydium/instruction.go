package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
)

// Standard-pool instruction discriminators (AMM program).
const (
	ixSwapBaseIn  = 9
	ixSwapBaseOut = 11
)

// Concentrated-pool swap discriminator: anchor sighash of "global:swap".
var clmmSwapDiscriminator = [8]byte{0xf8, 0xc6, 0x9e, 0x91, 0xe1, 0x75, 0x87, 0xc8}

// SwapAccounts carries the trader-side accounts a builder needs on top of the
// pool keys.
type SwapAccounts struct {
	Owner           solana.PublicKey
	UserSource      solana.PublicKey
	UserDestination solana.PublicKey
	TokenProgramIn  solana.PublicKey
	TokenProgramOut solana.PublicKey

	// Aux holds pool-type-specific extra accounts (tick arrays for
	// concentrated pools); ignored by the standard builder.
	Aux []solana.PublicKey
}

// SwapBuild is the result of an instruction builder: the trade instructions
// plus any extra signers the transaction needs beyond the owner.
type SwapBuild struct {
	Instructions []solana.Instruction
	ExtraSigners []solana.PrivateKey
}

// BuildSwapExactIn builds the sell-anchored trade: spend exactly amountIn,
// receive at least minAmountOut.
func BuildSwapExactIn(
	kind amm.Kind,
	keys *PoolKeys,
	inputMint solana.PublicKey,
	amountIn, minAmountOut uint64,
	acc SwapAccounts,
) (*SwapBuild, error) {
	if err := validateBuild(keys, amountIn, acc); err != nil {
		return nil, err
	}

	switch kind {
	case amm.Standard:
		data := make([]byte, 17)
		data[0] = ixSwapBaseIn
		binary.LittleEndian.PutUint64(data[1:9], amountIn)
		binary.LittleEndian.PutUint64(data[9:17], minAmountOut)
		return standardSwap(keys, inputMint, acc, data)
	case amm.Concentrated:
		return concentratedSwap(keys, inputMint, acc, amountIn, minAmountOut, true)
	default:
		return nil, fmt.Errorf("unsupported pool kind %q", kind)
	}
}

// BuildSwapExactOut builds the buy-anchored trade: receive exactly amountOut,
// spend at most maxAmountIn.
func BuildSwapExactOut(
	kind amm.Kind,
	keys *PoolKeys,
	inputMint solana.PublicKey,
	amountOut, maxAmountIn uint64,
	acc SwapAccounts,
) (*SwapBuild, error) {
	if err := validateBuild(keys, amountOut, acc); err != nil {
		return nil, err
	}

	switch kind {
	case amm.Standard:
		data := make([]byte, 17)
		data[0] = ixSwapBaseOut
		binary.LittleEndian.PutUint64(data[1:9], maxAmountIn)
		binary.LittleEndian.PutUint64(data[9:17], amountOut)
		return standardSwap(keys, inputMint, acc, data)
	case amm.Concentrated:
		return concentratedSwap(keys, inputMint, acc, amountOut, maxAmountIn, false)
	default:
		return nil, fmt.Errorf("unsupported pool kind %q", kind)
	}
}

func validateBuild(keys *PoolKeys, amount uint64, acc SwapAccounts) error {
	if keys == nil {
		return fmt.Errorf("pool keys are required")
	}
	if amount == 0 {
		return fmt.Errorf("swap amount must be > 0")
	}
	if acc.Owner.IsZero() || acc.UserSource.IsZero() || acc.UserDestination.IsZero() {
		return fmt.Errorf("owner and user token accounts are required")
	}
	return nil
}

// vaults orients the pool vaults for the trade direction.
func (k *PoolKeys) vaults(inputMint solana.PublicKey) (in, out solana.PublicKey, err error) {
	switch {
	case k.MintA.Equals(inputMint):
		return k.VaultA, k.VaultB, nil
	case k.MintB.Equals(inputMint):
		return k.VaultB, k.VaultA, nil
	default:
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("input mint %s does not match pool %s", inputMint, k.ID)
	}
}

// standardSwap lays out the constant-product AMM swap instruction.
// Account order:
// 0. token_program
// 1. pool id (amm state, writable)
// 2. pool authority
// 3. open_orders (writable)
// 4. target_orders (writable)
// 5. vault_in (writable)
// 6. vault_out (writable)
// 7. user_source (writable)
// 8. user_destination (writable)
// 9. owner (signer)
func standardSwap(keys *PoolKeys, inputMint solana.PublicKey, acc SwapAccounts, data []byte) (*SwapBuild, error) {
	vaultIn, vaultOut, err := keys.vaults(inputMint)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: acc.TokenProgramIn, IsSigner: false, IsWritable: false},
		{PublicKey: keys.ID, IsSigner: false, IsWritable: true},
		{PublicKey: keys.Authority, IsSigner: false, IsWritable: false},
		{PublicKey: keys.OpenOrders, IsSigner: false, IsWritable: true},
		{PublicKey: keys.TargetOrders, IsSigner: false, IsWritable: true},
		{PublicKey: vaultIn, IsSigner: false, IsWritable: true},
		{PublicKey: vaultOut, IsSigner: false, IsWritable: true},
		{PublicKey: acc.UserSource, IsSigner: false, IsWritable: true},
		{PublicKey: acc.UserDestination, IsSigner: false, IsWritable: true},
		{PublicKey: acc.Owner, IsSigner: true, IsWritable: false},
	}

	ix := solana.NewInstruction(keys.ProgramID, accounts, data)
	return &SwapBuild{Instructions: []solana.Instruction{ix}}, nil
}

// concentratedSwap lays out the CLMM swap instruction. amount is the anchored
// side (input when baseInput, output otherwise) and threshold is the bound.
// Account order:
// 0. owner (signer)
// 1. amm_config
// 2. pool state (writable)
// 3. user input token account (writable)
// 4. user output token account (writable)
// 5. input vault (writable)
// 6. output vault (writable)
// 7. observation state (writable)
// 8. token_program
// 9+. tick arrays and bitmap extension (writable)
func concentratedSwap(
	keys *PoolKeys,
	inputMint solana.PublicKey,
	acc SwapAccounts,
	amount, threshold uint64,
	baseInput bool,
) (*SwapBuild, error) {
	if keys.ObservationID.IsZero() {
		return nil, fmt.Errorf("pool %s: concentrated pool without observation account", keys.ID)
	}

	vaultIn, vaultOut, err := keys.vaults(inputMint)
	if err != nil {
		return nil, err
	}

	// disc(8) + amount(8) + other_amount_threshold(8) +
	// sqrt_price_limit_x64(16, zero = no limit) + is_base_input(1)
	data := make([]byte, 8+8+8+16+1)
	copy(data[0:8], clmmSwapDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:16], amount)
	binary.LittleEndian.PutUint64(data[16:24], threshold)
	if baseInput {
		data[40] = 1
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: acc.Owner, IsSigner: true, IsWritable: false},
		{PublicKey: keys.AmmConfig, IsSigner: false, IsWritable: false},
		{PublicKey: keys.ID, IsSigner: false, IsWritable: true},
		{PublicKey: acc.UserSource, IsSigner: false, IsWritable: true},
		{PublicKey: acc.UserDestination, IsSigner: false, IsWritable: true},
		{PublicKey: vaultIn, IsSigner: false, IsWritable: true},
		{PublicKey: vaultOut, IsSigner: false, IsWritable: true},
		{PublicKey: keys.ObservationID, IsSigner: false, IsWritable: true},
		{PublicKey: acc.TokenProgramIn, IsSigner: false, IsWritable: false},
	}
	for _, aux := range acc.Aux {
		accounts = append(accounts, &solana.AccountMeta{PublicKey: aux, IsSigner: false, IsWritable: true})
	}

	ix := solana.NewInstruction(keys.ProgramID, accounts, data)
	return &SwapBuild{Instructions: []solana.Instruction{ix}}, nil
}

// DeriveConcentratedAccounts fills in the observation and bitmap-extension
// PDAs for a concentrated pool when the aggregator omitted them.
func DeriveConcentratedAccounts(keys *PoolKeys) error {
	if keys == nil {
		return fmt.Errorf("pool keys are required")
	}

	if keys.ObservationID.IsZero() {
		obs, _, err := solana.FindProgramAddress(
			[][]byte{[]byte("observation"), keys.ID.Bytes()},
			keys.ProgramID,
		)
		if err != nil {
			return fmt.Errorf("derive observation for %s: %w", keys.ID, err)
		}
		keys.ObservationID = obs
	}

	if keys.ExBitmap.IsZero() {
		bitmap, _, err := solana.FindProgramAddress(
			[][]byte{[]byte("pool_tick_array_bitmap_extension"), keys.ID.Bytes()},
			keys.ProgramID,
		)
		if err != nil {
			return fmt.Errorf("derive bitmap extension for %s: %w", keys.ID, err)
		}
		keys.ExBitmap = bitmap
	}

	return nil
}
