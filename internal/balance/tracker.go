package balance

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/rpc"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// Tracker reports per-mint balances for one owner. It is consulted by the
// quote orchestrator to gate trade eligibility and never mutates anything.
type Tracker struct {
	rpc    *rpc.Client
	owner  solana.PublicKey
	logger *logrus.Logger
}

func NewTracker(rpcClient *rpc.Client, owner solana.PublicKey, logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Tracker{rpc: rpcClient, owner: owner, logger: logger}
}

func (t *Tracker) Owner() solana.PublicKey { return t.owner }

// GetBalance returns the owner's raw base-unit balance of the asset. Native
// SOL reads lamports directly; token assets read the owner's ATA under the
// token program that governs the mint. A missing ATA is a zero balance.
func (t *Tracker) GetBalance(ctx context.Context, asset token.Asset) (uint64, error) {
	if asset.IsNative() {
		lamports, err := t.rpc.GetBalance(ctx, t.owner, "confirmed")
		if err != nil {
			return 0, fmt.Errorf("native balance: %w", err)
		}
		return lamports, nil
	}

	program, err := token.DetectProgram(ctx, t.rpc, asset.Mint)
	if err != nil {
		return 0, err
	}

	ata, _, err := token.FindAssociatedTokenAddress(t.owner, asset.SettleMint(), program)
	if err != nil {
		return 0, fmt.Errorf("derive ata for %s: %w", asset.Mint, err)
	}

	raw, err := t.rpc.GetTokenAccountBalance(ctx, ata)
	if err != nil {
		return 0, fmt.Errorf("token balance for %s: %w", asset.Mint, err)
	}

	t.logger.WithFields(logrus.Fields{
		"mint":    asset.Mint.String(),
		"balance": raw,
	}).Debug("fetched token balance")

	return raw, nil
}
