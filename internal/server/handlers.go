package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/flags"
	"github.com/umair-farooq/solana-swap-engine/internal/quote"
	"github.com/umair-farooq/solana-swap-engine/internal/storage"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Cache    storage.SwapCache // Redis-backed recent-swaps cache (optional)
	Flags    *flags.Store      // Redis-backed feature flags store (optional)
	Engine   *Engine           // Quoting and execution engine
	DevMode  bool              // Enable detailed error responses in development
	Logger   *logrus.Logger    // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true}
	if h.Engine != nil {
		resp.Wallet = h.Engine.WalletAddress()
	}
	return c.JSON(http.StatusOK, resp)
}

// Quote prices a trade without executing it.
// Query: inputMint, outputMint, amount (raw base units), side, slippageBps.
func (h *Handlers) Quote(c echo.Context) error {
	req, err := h.parseTradeParams(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, err.Error(), nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	q, err := h.Engine.Quote(ctx, req)
	if err != nil {
		return h.quoteError(c, err)
	}
	return c.JSON(http.StatusOK, quoteResponse(q))
}

// Swap prices and executes a trade. Execution is refused while the kill
// switch is set, and duplicate submissions inside the debounce window are
// rejected with 429.
func (h *Handlers) Swap(c echo.Context) error {
	var body SwapRequest
	if err := c.Bind(&body); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	req, err := tradeParamsFromSwapRequest(body)
	if err != nil {
		return h.err(c, http.StatusBadRequest, err.Error(), nil)
	}

	if h.Flags != nil && h.Flags.ExecutionDisabled(c.Request().Context()) {
		return h.err(c, http.StatusServiceUnavailable, "swap execution is disabled", nil)
	}
	if !h.Engine.AcceptSubmission() {
		return h.err(c, http.StatusTooManyRequests, "duplicate submission ignored", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 120*time.Second)
	defer cancel()

	res, record, err := h.Engine.Swap(ctx, req)
	if record != nil {
		h.recordSwap(record)
	}
	if err != nil {
		if res != nil && res.Signature != "" {
			// Broadcast but unconfirmed: the caller must see the signature.
			return c.JSON(http.StatusAccepted, swapResponse(res))
		}
		return h.quoteError(c, err)
	}
	return c.JSON(http.StatusOK, swapResponse(res))
}

// RecentSwaps returns the most recent executed swaps with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-200)
func (h *Handlers) RecentSwaps(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusBadRequest, "cache is not configured", nil)
	}

	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentSwaps(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Price returns the last observed execution price for a pair, e.g. SOL/USDC.
func (h *Handlers) Price(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusBadRequest, "cache is not configured", nil)
	}

	pair := strings.TrimSpace(c.Param("pair"))
	if pair == "" {
		return h.err(c, http.StatusBadRequest, "invalid pair", nil)
	}
	pair = strings.ToUpper(pair)

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	price, err := h.Cache.GetPrice(ctx, pair)
	if err != nil {
		return h.err(c, http.StatusNotFound, "no price for pair", nil)
	}
	return c.JSON(http.StatusOK, PriceResponse{Pair: pair, Price: price})
}

// quoteError maps quoting failures onto HTTP statuses. Missing liquidity and
// unsatisfiable amounts are client-visible conditions, not server faults.
func (h *Handlers) quoteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, quote.ErrNoPool):
		return h.err(c, http.StatusNotFound, "no pool found for pair", nil)
	case errors.Is(err, quote.ErrNoAmount):
		return h.err(c, http.StatusBadRequest, "trade amount missing", nil)
	case errors.Is(err, quote.ErrInsufficientBalance):
		return h.err(c, http.StatusUnprocessableEntity, "insufficient balance", nil)
	case errors.Is(err, quote.ErrUnpriced):
		return h.err(c, http.StatusUnprocessableEntity, "price unavailable", nil)
	default:
		h.Logger.WithError(err).Error("trade request failed")
		return h.err(c, http.StatusBadGateway, "trade failed", map[string]any{"err": err.Error()})
	}
}

// recordSwap persists and publishes an executed swap, best-effort.
func (h *Handlers) recordSwap(record *SwapRecordEnvelope) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if h.Cache != nil {
		if err := h.Cache.AddRecentSwap(ctx, record.Record); err != nil {
			h.Logger.WithError(err).Warn("failed to cache swap")
		}
		if err := h.Cache.PublishSwap(ctx, record.Record); err != nil {
			h.Logger.WithError(err).Warn("failed to publish swap")
		}
		if record.Price > 0 {
			if err := h.Cache.UpdatePrice(ctx, record.Record.Pair, record.Price); err != nil {
				h.Logger.WithError(err).Warn("failed to update cached price")
			}
		}
	}
	if h.Engine.store != nil {
		if err := h.Engine.store.InsertSwap(ctx, record.Record); err != nil {
			h.Logger.WithError(err).Warn("failed to persist swap")
		}
	}
}

// FlagsUpsert creates or updates a feature flag with the given key and value
// Validates key format and returns the created/updated flag
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates an existing feature flag with the given key
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a feature flag by its key
// Returns 404 if flag doesn't exist
func (h *Handlers) FlagsGet(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsList returns all feature flags in the system
func (h *Handlers) FlagsList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete removes a feature flag by its key
// Returns 204 No Content on successful deletion
func (h *Handlers) FlagsDelete(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
