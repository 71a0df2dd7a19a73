package executor

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/quote"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

const feeBpsDenominator = 10_000

// FeeCollector skims a remotely-configured fee from the received amount after
// a successful swap. Collection is strictly best-effort: a user whose swap
// confirmed has their tokens, and no fee problem may turn that into a failure.
type FeeCollector struct {
	pools  PoolService
	chain  ChainReader
	wallet TxWallet
	logger *logrus.Logger
}

func NewFeeCollector(pools PoolService, chain ChainReader, wallet TxWallet, logger *logrus.Logger) *FeeCollector {
	if logger == nil {
		logger = logrus.New()
	}
	return &FeeCollector{pools: pools, chain: chain, wallet: wallet, logger: logger}
}

// FeeAmount computes the skim for a received amount: floor(raw * bps / 10000).
func FeeAmount(received uint64, bps uint16) uint64 {
	return received / feeBpsDenominator * uint64(bps) +
		received % feeBpsDenominator * uint64(bps) / feeBpsDenominator
}

// Collect runs the skim for a completed quote and returns the amount actually
// transferred, zero when collection was skipped or failed.
func (f *FeeCollector) Collect(ctx context.Context, q quote.Quote) uint64 {
	paid, err := f.collect(ctx, q)
	if err != nil {
		f.logger.WithError(err).Warn("fee collection failed; swap outcome unaffected")
		return 0
	}
	return paid
}

func (f *FeeCollector) collect(ctx context.Context, q quote.Quote) (uint64, error) {
	settings, err := f.pools.FetchSwapSettings(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch fee settings: %w", err)
	}
	if settings == nil || settings.FeeBps == 0 || settings.Receiver == "" {
		return 0, nil
	}

	receiver, err := solana.PublicKeyFromBase58(settings.Receiver)
	if err != nil {
		return 0, fmt.Errorf("invalid fee receiver %q: %w", settings.Receiver, err)
	}

	fee := FeeAmount(q.AmountOut, settings.FeeBps)
	if fee == 0 {
		return 0, nil
	}

	ixs, err := f.transferInstructions(ctx, q.BuyAsset, receiver, fee)
	if err != nil {
		return 0, err
	}

	tx, err := f.wallet.BuildTransaction(ctx, ixs, false)
	if err != nil {
		return 0, err
	}
	if err := f.wallet.Sign(tx); err != nil {
		return 0, err
	}
	sig, err := f.wallet.Send(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("submit fee transfer: %w", err)
	}
	if err := f.wallet.Confirm(ctx, sig); err != nil {
		return 0, fmt.Errorf("confirm fee transfer %s: %w", sig, err)
	}

	f.logger.WithFields(logrus.Fields{
		"signature": sig,
		"amount":    fee,
		"mint":      q.BuyAsset.Mint.String(),
	}).Info("fee collected")
	return fee, nil
}

// transferInstructions builds the fee movement in the received asset. Native
// SOL moves as lamports; token fees go ATA-to-ATA under the mint's program,
// creating the receiver's ATA when it does not exist.
func (f *FeeCollector) transferInstructions(ctx context.Context, asset token.Asset, receiver solana.PublicKey, fee uint64) ([]solana.Instruction, error) {
	owner := f.wallet.PublicKey()

	if asset.IsNative() {
		return []solana.Instruction{token.NewSystemTransferIx(owner, receiver, fee)}, nil
	}

	program, err := token.DetectProgram(ctx, f.chain, asset.Mint)
	if err != nil {
		return nil, err
	}
	mint := asset.SettleMint()

	source, _, err := token.FindAssociatedTokenAddress(owner, mint, program)
	if err != nil {
		return nil, fmt.Errorf("derive source ata: %w", err)
	}
	dest, _, err := token.FindAssociatedTokenAddress(receiver, mint, program)
	if err != nil {
		return nil, fmt.Errorf("derive receiver ata: %w", err)
	}

	var ixs []solana.Instruction
	exists, err := f.chain.AccountExists(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("check receiver ata: %w", err)
	}
	if !exists {
		ixs = append(ixs, token.NewCreateAssociatedTokenAccountIx(owner, dest, receiver, mint, program))
	}

	ixs = append(ixs, token.NewTransferCheckedIx(source, mint, dest, owner, fee, asset.Decimals, program))
	return ixs, nil
}
