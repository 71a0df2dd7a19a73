package wallet

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

// BuildTransaction assembles a transaction from instructions with a fresh
// blockhash and the wallet as fee payer. When versioned is set, the message is
// encoded in the v0 format (required for multi-signer builds and address
// table lookups); otherwise the legacy single-signature format is used.
func (w *Wallet) BuildTransaction(ctx context.Context, instructions []solana.Instruction, versioned bool) (*solana.Transaction, error) {
	recent, err := w.rpc.GetLatestBlockhash(ctx, w.cfg.PreflightCommitment)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent,
		solana.TransactionPayer(w.pub),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if versioned {
		tx.Message.SetVersion(solana.MessageVersionV0)
	}

	return tx, nil
}

// Sign signs a transaction with the wallet key plus any extra signers a
// builder handed back.
func (w *Wallet) Sign(tx *solana.Transaction, extra ...solana.PrivateKey) error {
	keys := map[solana.PublicKey]*solana.PrivateKey{
		w.pub: &w.priv,
	}
	for i := range extra {
		k := extra[i]
		keys[k.PublicKey()] = &k
	}

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return keys[key]
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// Send serializes and submits a signed transaction. Submission is never
// retried; a duplicate broadcast could execute a trade twice.
func (w *Wallet) Send(ctx context.Context, tx *solana.Transaction) (string, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(txBytes)
	return w.rpc.SendTransaction(ctx, encoded, w.cfg.SkipPreflight, w.cfg.PreflightCommitment)
}

// Confirm polls signature status with a bounded attempt count and exponential
// backoff. Once the attempts are exhausted the transaction's fate is unknown;
// the caller must not assume funds moved.
func (w *Wallet) Confirm(ctx context.Context, signature string) error {
	backoff := 500 * time.Millisecond
	maxBackoff := 4 * time.Second

	for attempt := 0; attempt < w.cfg.ConfirmAttempts; attempt++ {
		status, err := w.rpc.GetSignatureStatus(ctx, signature)
		if err != nil {
			return fmt.Errorf("failed to check signature: %w", err)
		}

		if status != nil {
			if status.Err != nil {
				return fmt.Errorf("transaction failed on-chain: %v", status.Err)
			}
			if commitmentReached(status.ConfirmationStatus, w.cfg.ConfirmCommitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return fmt.Errorf("confirmation not reached after %d attempts", w.cfg.ConfirmAttempts)
}

func commitmentReached(status, want string) bool {
	switch want {
	case "processed":
		return status != ""
	case "confirmed":
		return status == "confirmed" || status == "finalized"
	case "finalized":
		return status == "finalized"
	default:
		return status != ""
	}
}
