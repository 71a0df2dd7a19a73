package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
	"github.com/umair-farooq/solana-swap-engine/internal/quote"
	"github.com/umair-farooq/solana-swap-engine/internal/raydium"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// PoolService supplies the execution-time pool data. The pool is always
// re-fetched right before building the transaction so the trade runs against
// current reserves, not the reserves the quote was displayed with.
type PoolService interface {
	FetchPoolByID(ctx context.Context, id string) (*amm.Pool, error)
	FetchPoolKeys(ctx context.Context, id string) (*raydium.PoolKeys, error)
	FetchSwapSettings(ctx context.Context) (*raydium.SwapSettings, error)
}

// ChainReader covers the on-chain reads execution needs.
type ChainReader interface {
	token.AccountOwnerGetter
	AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// TxWallet builds, signs, submits and confirms transactions.
type TxWallet interface {
	PublicKey() solana.PublicKey
	BuildTransaction(ctx context.Context, instructions []solana.Instruction, versioned bool) (*solana.Transaction, error)
	Sign(tx *solana.Transaction, extra ...solana.PrivateKey) error
	Send(ctx context.Context, tx *solana.Transaction) (string, error)
	Confirm(ctx context.Context, signature string) error
}

// Status is the terminal outcome of an execution attempt.
type Status string

const (
	Succeeded Status = "Succeeded"
	Failed    Status = "Failed"
	// Unconfirmed: the transaction was broadcast but its fate is unknown.
	// Funds may or may not have moved; never resubmit automatically.
	Unconfirmed Status = "Unconfirmed"
)

// Result describes one finished execution attempt.
type Result struct {
	Status    Status    `json:"status"`
	Signature string    `json:"signature,omitempty"`
	Err       string    `json:"error,omitempty"`
	PoolID    string    `json:"poolId"`
	AmountIn  uint64    `json:"amountIn"`
	AmountOut uint64    `json:"amountOut"`
	FeePaid   uint64    `json:"feePaid"`
	At        time.Time `json:"at"`
}

// Executor turns an executable quote into an on-chain swap.
type Executor struct {
	pools  PoolService
	chain  ChainReader
	wallet TxWallet
	fees   *FeeCollector
	logger *logrus.Logger
}

func New(pools PoolService, chain ChainReader, wallet TxWallet, fees *FeeCollector, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		pools:  pools,
		chain:  chain,
		wallet: wallet,
		fees:   fees,
		logger: logger,
	}
}

// Execute runs the full swap sequence for a quote: refresh the pool, fetch its
// execution accounts, prepare the trader's token accounts, build the trade
// instruction for the quote's anchored side, then sign, submit once and
// confirm. After a confirmed swap the optional fee skim runs; its failure
// never changes the swap outcome.
func (e *Executor) Execute(ctx context.Context, q quote.Quote) (*Result, error) {
	res := &Result{
		Status:    Failed,
		AmountIn:  q.AmountIn,
		AmountOut: q.AmountOut,
		At:        time.Now().UTC(),
	}

	if q.Pool == nil {
		return res, quote.ErrNoPool
	}
	if q.AmountIn == 0 || q.AmountOut == 0 {
		return res, quote.ErrNoAmount
	}
	res.PoolID = q.Pool.ID

	pool, err := e.pools.FetchPoolByID(ctx, q.Pool.ID)
	if err != nil {
		return res, fmt.Errorf("refresh pool %s: %w", q.Pool.ID, err)
	}
	if pool == nil {
		return res, fmt.Errorf("pool %s no longer exists", q.Pool.ID)
	}
	if !pool.Contains(q.SellAsset, q.BuyAsset) {
		return res, fmt.Errorf("pool %s no longer contains the traded pair", pool.ID)
	}

	keys, err := e.pools.FetchPoolKeys(ctx, pool.ID)
	if err != nil {
		return res, fmt.Errorf("fetch pool keys: %w", err)
	}
	if pool.Kind == amm.Concentrated {
		if err := raydium.DeriveConcentratedAccounts(keys); err != nil {
			return res, err
		}
	}

	prep, err := e.prepareAccounts(ctx, q)
	if err != nil {
		return res, err
	}

	acc := raydium.SwapAccounts{
		Owner:           e.wallet.PublicKey(),
		UserSource:      prep.sell.address,
		UserDestination: prep.buy.address,
		TokenProgramIn:  prep.sell.program,
		TokenProgramOut: prep.buy.program,
	}
	if pool.Kind == amm.Concentrated {
		acc.Aux = []solana.PublicKey{keys.ExBitmap}
	}

	var build *raydium.SwapBuild
	switch q.InputSide {
	case quote.Buy:
		build, err = raydium.BuildSwapExactOut(pool.Kind, keys, q.SellAsset.QueryMint(), q.AmountOut, q.BoundAmount, acc)
	default:
		build, err = raydium.BuildSwapExactIn(pool.Kind, keys, q.SellAsset.QueryMint(), q.AmountIn, q.BoundAmount, acc)
	}
	if err != nil {
		return res, fmt.Errorf("build swap instruction: %w", err)
	}

	instructions := make([]solana.Instruction, 0, len(prep.setup)+len(build.Instructions)+len(prep.cleanup))
	instructions = append(instructions, prep.setup...)
	instructions = append(instructions, build.Instructions...)
	instructions = append(instructions, prep.cleanup...)

	versioned := len(build.ExtraSigners) > 0
	tx, err := e.wallet.BuildTransaction(ctx, instructions, versioned)
	if err != nil {
		return res, err
	}
	if err := e.wallet.Sign(tx, build.ExtraSigners...); err != nil {
		return res, err
	}

	sig, err := e.wallet.Send(ctx, tx)
	if err != nil {
		return res, fmt.Errorf("submit swap: %w", err)
	}
	res.Signature = sig

	e.logger.WithFields(logrus.Fields{
		"signature": sig,
		"pool":      pool.ID,
		"side":      string(q.InputSide),
	}).Info("swap submitted")

	if err := e.wallet.Confirm(ctx, sig); err != nil {
		res.Status = Unconfirmed
		res.Err = err.Error()
		return res, fmt.Errorf("confirm swap %s: %w", sig, err)
	}

	res.Status = Succeeded
	if e.fees != nil {
		res.FeePaid = e.fees.Collect(ctx, q)
	}
	return res, nil
}
