package token

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// The two mutually incompatible token programs. Every instruction touching a
// mint must target the program the mint was created under.
var (
	TokenProgramID     = solana.TokenProgramID
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	associatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// AccountOwnerGetter fetches the owning program of an on-chain account.
// Implemented by the RPC client.
type AccountOwnerGetter interface {
	GetAccountOwner(ctx context.Context, account solana.PublicKey) (solana.PublicKey, error)
}

// DetectProgram resolves which token program governs a mint by inspecting the
// mint account's owner. Native SOL maps to the classic token program since its
// wrapped mint lives there.
func DetectProgram(ctx context.Context, rpc AccountOwnerGetter, mint solana.PublicKey) (solana.PublicKey, error) {
	if mint.Equals(NativeMint) || mint.Equals(WrappedSOLMint) {
		return TokenProgramID, nil
	}

	owner, err := rpc.GetAccountOwner(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("detect token program for %s: %w", mint, err)
	}

	switch owner {
	case TokenProgramID, Token2022ProgramID:
		return owner, nil
	default:
		return solana.PublicKey{}, fmt.Errorf("mint %s is owned by %s, not a token program", mint, owner)
	}
}

// FindAssociatedTokenAddress derives the ATA PDA for (owner, mint) under the
// given token program. Seeds: [owner, token_program, mint].
func FindAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			tokenProgram.Bytes(),
			mint.Bytes(),
		},
		associatedTokenProgramID,
	)
}
