package raydium

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// Client talks to the pool-aggregation HTTP API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api-v3.raydium.io"
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("aggregator http %d", e.StatusCode)
	}
	return fmt.Sprintf("aggregator http %d: %s", e.StatusCode, b)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode aggregator response: %w", err)
	}
	return nil
}

// FetchPoolsByMints returns the pools containing both mints, best liquidity
// first, already normalized into the tagged pool union.
func (c *Client) FetchPoolsByMints(ctx context.Context, mintA, mintB solana.PublicKey, page int) ([]*amm.Pool, error) {
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("mint1", mintA.String())
	q.Set("mint2", mintB.String())
	q.Set("poolType", "all")
	q.Set("poolSortField", "liquidity")
	q.Set("sortType", "desc")
	q.Set("pageSize", "10")
	q.Set("page", fmt.Sprintf("%d", page))

	var resp poolsByMintResponse
	if err := c.get(ctx, "/pools/info/mint", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("aggregator reported failure for pools by mints")
	}

	pools := make([]*amm.Pool, 0, len(resp.Data.Data))
	for _, raw := range resp.Data.Data {
		p, err := normalizePool(raw)
		if err != nil {
			// A malformed entry must not poison the whole page.
			continue
		}
		pools = append(pools, p)
	}
	return pools, nil
}

// FetchBestPool returns the top-liquidity pool for the pair, or nil when the
// pair has no liquidity anywhere. Absence is a normal state, not an error.
func (c *Client) FetchBestPool(ctx context.Context, mintA, mintB solana.PublicKey) (*amm.Pool, error) {
	pools, err := c.FetchPoolsByMints(ctx, mintA, mintB, 1)
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, nil
	}
	return pools[0], nil
}

// FetchPoolByID fetches a single pool by its id.
func (c *Client) FetchPoolByID(ctx context.Context, id string) (*amm.Pool, error) {
	q := url.Values{}
	q.Set("ids", id)

	var resp poolsByIDResponse
	if err := c.get(ctx, "/pools/info/ids", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return nil, nil
	}
	return normalizePool(resp.Data[0])
}

// FetchPoolKeys fetches the execution accounts for a pool.
func (c *Client) FetchPoolKeys(ctx context.Context, id string) (*PoolKeys, error) {
	q := url.Values{}
	q.Set("ids", id)

	var resp poolKeysResponse
	if err := c.get(ctx, "/pools/key/ids", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return nil, fmt.Errorf("no pool keys for %s", id)
	}
	return parsePoolKeys(resp.Data[0])
}

// FetchSwapSettings retrieves the remotely-configured fee policy. Both fields
// must be present for fee collection to run at all.
func (c *Client) FetchSwapSettings(ctx context.Context) (*SwapSettings, error) {
	var out SwapSettings
	if err := c.get(ctx, "/main/swap-settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssetFromMint builds a token.Asset from an aggregator mint descriptor.
func assetFromMint(m apiMint) (token.Asset, error) {
	pk, err := solana.PublicKeyFromBase58(m.Address)
	if err != nil {
		return token.Asset{}, fmt.Errorf("invalid mint %q: %w", m.Address, err)
	}
	return token.Asset{
		Mint:     pk,
		Symbol:   m.Symbol,
		Decimals: m.Decimals,
		Image:    m.LogoURI,
	}, nil
}
