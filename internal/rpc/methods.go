package rpc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment string) (uint64, error) {
	var resp struct {
		Result struct {
			Value uint64 `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		pubkey.String(),
		map[string]any{"commitment": commitment},
	}

	if err := c.Call(ctx, "getBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getBalance error: %s", resp.Error.Message)
	}
	return resp.Result.Value, nil
}

// GetTokenAccountBalance returns the raw token balance held by an account.
// A missing account is reported as a zero balance, not an error: an owner who
// never received the mint simply has no ATA yet.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var resp struct {
		Result struct {
			Value *TokenAmount `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		account.String(),
		map[string]any{"commitment": "confirmed"},
	}

	if err := c.Call(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getTokenAccountBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		// "could not find account" is a normal state for fresh owners.
		if resp.Error.Code == -32602 {
			return 0, nil
		}
		return 0, fmt.Errorf("getTokenAccountBalance error: %s", resp.Error.Message)
	}
	if resp.Result.Value == nil {
		return 0, nil
	}

	amount, err := strconv.ParseUint(resp.Result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", resp.Result.Value.Amount, err)
	}
	return amount, nil
}

// GetAccountInfo fetches account metadata; returns nil when the account does
// not exist.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*AccountInfo, error) {
	var resp struct {
		Result struct {
			Value *AccountInfo `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		pubkey.String(),
		map[string]any{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}

	if err := c.Call(ctx, "getAccountInfo", params, &resp); err != nil {
		return nil, fmt.Errorf("getAccountInfo RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getAccountInfo error: %s", resp.Error.Message)
	}
	return resp.Result.Value, nil
}

// AccountExists checks if an account exists on-chain.
func (c *Client) AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error) {
	info, err := c.GetAccountInfo(ctx, pubkey)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// GetAccountOwner returns the program that owns an account. Used to detect
// which token program governs a mint.
func (c *Client) GetAccountOwner(ctx context.Context, pubkey solana.PublicKey) (solana.PublicKey, error) {
	info, err := c.GetAccountInfo(ctx, pubkey)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if info == nil {
		return solana.PublicKey{}, fmt.Errorf("account %s does not exist", pubkey)
	}
	owner, err := solana.PublicKeyFromBase58(info.Owner)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid owner for %s: %w", pubkey, err)
	}
	return owner, nil
}

// GetLatestBlockhash fetches the most recent blockhash with commitment level
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment string) (solana.Hash, error) {
	if commitment == "" {
		commitment = "processed"
	}

	var resp struct {
		Result struct {
			Value Blockhash `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		map[string]any{"commitment": commitment},
	}

	if err := c.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	if resp.Error != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash error: %s", resp.Error.Message)
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// SendTransaction submits a base64-serialized signed transaction. Exactly one
// attempt: retrying a broadcast could execute the trade twice.
func (c *Client) SendTransaction(ctx context.Context, encodedTx string, skipPreflight bool, preflightCommitment string) (string, error) {
	params := []any{
		encodedTx,
		map[string]any{
			"encoding":            "base64",
			"skipPreflight":       skipPreflight,
			"preflightCommitment": preflightCommitment,
		},
	}

	var resp struct {
		Result string    `json:"result"`
		Error  *RPCError `json:"error"`
	}

	if err := c.CallOnce(ctx, "sendTransaction", params, &resp); err != nil {
		return "", fmt.Errorf("sendTransaction RPC failed: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("sendTransaction error: code=%d, message=%s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// GetSignatureStatus returns the confirmation status for one signature, or
// nil if the cluster has not seen it yet.
func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	var resp struct {
		Result struct {
			Value []*SignatureStatus `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		[]string{signature},
		map[string]any{"searchTransactionHistory": true},
	}

	if err := c.Call(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getSignatureStatuses error: %s", resp.Error.Message)
	}
	if len(resp.Result.Value) == 0 {
		return nil, nil
	}
	return resp.Result.Value[0], nil
}
