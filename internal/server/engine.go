package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/umair-farooq/solana-swap-engine/internal/executor"
	"github.com/umair-farooq/solana-swap-engine/internal/models"
	"github.com/umair-farooq/solana-swap-engine/internal/quote"
	"github.com/umair-farooq/solana-swap-engine/internal/risk"
	"github.com/umair-farooq/solana-swap-engine/internal/storage"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// TradeParams is a validated trade request.
type TradeParams struct {
	Sell        token.Asset
	Buy         token.Asset
	Side        quote.Side
	Amount      uint64
	SlippageBps uint16
}

// Engine bundles the quoting and execution machinery behind the HTTP surface.
type Engine struct {
	pools       quote.PoolFetcher
	balances    quote.BalanceGetter
	exec        *executor.Executor
	store       storage.SwapStore
	risk        *risk.Manager
	wallet      string
	debouncer   *quote.Debouncer
	slippageBps uint16
}

func NewEngine(
	pools quote.PoolFetcher,
	balances quote.BalanceGetter,
	exec *executor.Executor,
	store storage.SwapStore,
	walletAddress string,
	debounce time.Duration,
	slippageBps uint16,
) *Engine {
	if slippageBps == 0 {
		slippageBps = 100
	}
	return &Engine{
		pools:       pools,
		balances:    balances,
		exec:        exec,
		store:       store,
		wallet:      walletAddress,
		debouncer:   quote.NewDebouncer(debounce),
		slippageBps: slippageBps,
	}
}

// WithRisk attaches a risk manager; trades failing its checks are rejected
// before any transaction is built.
func (e *Engine) WithRisk(m *risk.Manager) *Engine {
	e.risk = m
	return e
}

func (e *Engine) WalletAddress() string { return e.wallet }

func (e *Engine) AcceptSubmission() bool { return e.debouncer.Accept() }

// Quote runs a stateless pricing pass for the request.
func (e *Engine) Quote(ctx context.Context, p TradeParams) (*quote.Quote, error) {
	bps := p.SlippageBps
	if bps == 0 {
		bps = e.slippageBps
	}
	return quote.PriceOnce(ctx, e.pools, p.Sell, p.Buy, p.Side, p.Amount, bps)
}

// Swap prices the request, gates it on balance, and executes. A record of the
// attempt is returned even on failure so the serving layer can persist it.
func (e *Engine) Swap(ctx context.Context, p TradeParams) (*executor.Result, *SwapRecordEnvelope, error) {
	if e.exec == nil {
		return nil, nil, fmt.Errorf("execution is not configured (no wallet)")
	}

	q, err := e.Quote(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	if e.balances != nil {
		bal, err := e.balances.GetBalance(ctx, q.SellAsset)
		if err != nil {
			return nil, nil, fmt.Errorf("balance check: %w", err)
		}
		if q.AmountIn > bal {
			return nil, nil, quote.ErrInsufficientBalance
		}
	}

	if e.risk != nil {
		if err := e.risk.CheckTrade(q); err != nil {
			return nil, nil, fmt.Errorf("risk check: %w", err)
		}
	}

	res, execErr := e.exec.Execute(ctx, *q)
	if execErr == nil && e.risk != nil {
		e.risk.RecordTrade(q)
	}
	record := e.buildRecord(q, res)
	return res, record, execErr
}

// SwapRecordEnvelope pairs the persisted record with the execution price for
// the price cache.
type SwapRecordEnvelope struct {
	Record *models.SwapRecord
	Price  float64
}

func (e *Engine) buildRecord(q *quote.Quote, res *executor.Result) *SwapRecordEnvelope {
	if res == nil {
		return nil
	}

	record := &models.SwapRecord{
		Signature:    res.Signature,
		Timestamp:    res.At,
		Wallet:       e.wallet,
		Pair:         fmt.Sprintf("%s/%s", q.SellAsset.Symbol, q.BuyAsset.Symbol),
		SellMint:     q.SellAsset.Mint.String(),
		BuyMint:      q.BuyAsset.Mint.String(),
		SellDecimals: q.SellAsset.Decimals,
		BuyDecimals:  q.BuyAsset.Decimals,
		Side:         string(q.InputSide),
		AmountIn:     res.AmountIn,
		AmountOut:    res.AmountOut,
		FeePaid:      res.FeePaid,
		PoolID:       res.PoolID,
		PriceImpact:  q.PriceImpact,
		SlippageBps:  q.SlippageBps,
		Status:       string(res.Status),
	}
	if q.Pool != nil {
		record.PoolKind = string(q.Pool.Kind)
	}

	return &SwapRecordEnvelope{
		Record: record,
		Price:  executionPrice(q),
	}
}

// executionPrice computes the human-unit price (buy per sell) realized by the
// quote, for the display cache only.
func executionPrice(q *quote.Quote) float64 {
	if q.AmountIn == 0 || q.AmountOut == 0 {
		return 0
	}
	in := decimal.NewFromUint64(q.AmountIn).Shift(-int32(q.SellAsset.Decimals))
	out := decimal.NewFromUint64(q.AmountOut).Shift(-int32(q.BuyAsset.Decimals))
	if in.IsZero() {
		return 0
	}
	f, _ := out.Div(in).Float64()
	return f
}

// --- request parsing and response shaping ---

func (h *Handlers) parseTradeParams(c echo.Context) (TradeParams, error) {
	return buildTradeParams(
		c.QueryParam("inputMint"),
		c.QueryParam("outputMint"),
		c.QueryParam("amount"),
		c.QueryParam("side"),
		c.QueryParam("slippageBps"),
	)
}

func tradeParamsFromSwapRequest(req SwapRequest) (TradeParams, error) {
	var bps string
	if req.SlippageBps > 0 {
		bps = strconv.FormatUint(uint64(req.SlippageBps), 10)
	}
	return buildTradeParams(req.InputMint, req.OutputMint, req.Amount, req.Side, bps)
}

func buildTradeParams(inputMint, outputMint, amount, side, slippageBps string) (TradeParams, error) {
	var p TradeParams

	sell, err := parseAsset(inputMint)
	if err != nil {
		return p, fmt.Errorf("invalid inputMint: %w", err)
	}
	buy, err := parseAsset(outputMint)
	if err != nil {
		return p, fmt.Errorf("invalid outputMint: %w", err)
	}
	if sell.Same(buy) {
		return p, fmt.Errorf("inputMint and outputMint must differ")
	}

	amt, err := strconv.ParseUint(strings.TrimSpace(amount), 10, 64)
	if err != nil || amt == 0 {
		return p, fmt.Errorf("amount must be a positive integer in base units")
	}

	s := quote.Sell
	switch strings.TrimSpace(side) {
	case "", "Sell":
	case "Buy":
		s = quote.Buy
	default:
		return p, fmt.Errorf("side must be Sell or Buy")
	}

	var bps uint16
	if v := strings.TrimSpace(slippageBps); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil || n >= 10_000 {
			return p, fmt.Errorf("slippageBps must be in [0, 10000)")
		}
		bps = uint16(n)
	}

	p.Sell = sell
	p.Buy = buy
	p.Side = s
	p.Amount = amt
	p.SlippageBps = bps
	return p, nil
}

// parseAsset accepts a base58 mint address or the literal "SOL" for native.
func parseAsset(s string) (token.Asset, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return token.Asset{}, fmt.Errorf("required")
	}
	if strings.EqualFold(s, "SOL") {
		return token.SOL, nil
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return token.Asset{}, fmt.Errorf("not a valid mint address")
	}
	if pk.Equals(token.NativeMint) {
		return token.SOL, nil
	}
	return token.Asset{Mint: pk}, nil
}

func quoteResponse(q *quote.Quote) QuoteResponse {
	resp := QuoteResponse{
		SellAsset:   assetView(q.SellAsset),
		BuyAsset:    assetView(q.BuyAsset),
		Side:        string(q.InputSide),
		AmountIn:    q.AmountIn,
		AmountOut:   q.AmountOut,
		BoundAmount: q.BoundAmount,
		SlippageBps: q.SlippageBps,
		PriceImpact: q.PriceImpact,
	}
	if q.SellAsset.Decimals > 0 || q.SellAsset.Symbol != "" {
		resp.AmountInUI = q.SellAsset.FromRaw(q.AmountIn)
	}
	if q.BuyAsset.Decimals > 0 || q.BuyAsset.Symbol != "" {
		resp.AmountOutUI = q.BuyAsset.FromRaw(q.AmountOut)
	}
	if q.Pool != nil {
		resp.PoolID = q.Pool.ID
		resp.PoolKind = string(q.Pool.Kind)
	}
	return resp
}

func assetView(a token.Asset) AssetView {
	return AssetView{Mint: a.Mint.String(), Symbol: a.Symbol, Decimals: a.Decimals}
}

func swapResponse(r *executor.Result) SwapResponse {
	return SwapResponse{
		Status:    string(r.Status),
		Signature: r.Signature,
		AmountIn:  r.AmountIn,
		AmountOut: r.AmountOut,
		FeePaid:   r.FeePaid,
		PoolID:    r.PoolID,
	}
}
