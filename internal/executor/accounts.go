package executor

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/umair-farooq/solana-swap-engine/internal/quote"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// preparedAccount is one side's resolved token account.
type preparedAccount struct {
	address solana.PublicKey
	program solana.PublicKey
	created bool
}

// preparation bundles everything account setup produced: the resolved source
// and destination accounts plus the instructions that must bracket the swap.
type preparation struct {
	sell    preparedAccount
	buy     preparedAccount
	setup   []solana.Instruction
	cleanup []solana.Instruction
}

// prepareAccounts resolves the trader's token accounts for both sides of the
// trade and emits the setup/cleanup instructions the transaction needs:
// missing ATAs are created, native SOL is wrapped for the trade amount, and a
// wrapped-SOL account created here is closed again so the balance settles back
// as lamports.
func (e *Executor) prepareAccounts(ctx context.Context, q quote.Quote) (*preparation, error) {
	owner := e.wallet.PublicKey()
	prep := &preparation{}

	sell, err := e.resolveTokenAccount(ctx, owner, q.SellAsset)
	if err != nil {
		return nil, fmt.Errorf("sell side: %w", err)
	}
	prep.sell = sell.account
	prep.setup = append(prep.setup, sell.setup...)

	buy, err := e.resolveTokenAccount(ctx, owner, q.BuyAsset)
	if err != nil {
		return nil, fmt.Errorf("buy side: %w", err)
	}
	prep.buy = buy.account
	prep.setup = append(prep.setup, buy.setup...)

	// Wrap native SOL for the full amount the trade may spend. For a
	// buy-anchored trade that is the slippage-adjusted maximum input; the
	// close below returns whatever the pool did not take.
	if q.SellAsset.IsNative() {
		wrap := q.AmountIn
		if q.InputSide == quote.Buy && q.BoundAmount > wrap {
			wrap = q.BoundAmount
		}
		prep.setup = append(prep.setup,
			token.NewSystemTransferIx(owner, sell.account.address, wrap),
			token.NewSyncNativeIx(sell.account.address, sell.account.program),
		)
	}

	// Unwind wrapped-SOL accounts this transaction created. Pre-existing
	// wSOL accounts are the user's to manage.
	if q.SellAsset.IsNative() && sell.account.created {
		prep.cleanup = append(prep.cleanup,
			token.NewCloseAccountIx(sell.account.address, owner, owner, sell.account.program))
	}
	if q.BuyAsset.IsNative() && buy.account.created {
		prep.cleanup = append(prep.cleanup,
			token.NewCloseAccountIx(buy.account.address, owner, owner, buy.account.program))
	}

	return prep, nil
}

type resolvedAccount struct {
	account preparedAccount
	setup   []solana.Instruction
}

// resolveTokenAccount derives the owner's ATA for an asset under the token
// program that actually governs the mint, and emits a create instruction if
// the account does not exist yet.
func (e *Executor) resolveTokenAccount(ctx context.Context, owner solana.PublicKey, asset token.Asset) (*resolvedAccount, error) {
	program, err := token.DetectProgram(ctx, e.chain, asset.Mint)
	if err != nil {
		return nil, err
	}

	mint := asset.SettleMint()
	ata, _, err := token.FindAssociatedTokenAddress(owner, mint, program)
	if err != nil {
		return nil, fmt.Errorf("derive ata for %s: %w", asset.Mint, err)
	}

	exists, err := e.chain.AccountExists(ctx, ata)
	if err != nil {
		return nil, fmt.Errorf("check ata %s: %w", ata, err)
	}

	out := &resolvedAccount{
		account: preparedAccount{address: ata, program: program, created: !exists},
	}
	if !exists {
		out.setup = append(out.setup,
			token.NewCreateAssociatedTokenAccountIx(owner, ata, owner, mint, program))
	}
	return out, nil
}
