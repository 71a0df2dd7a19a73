package wallet

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrivateKeyBase58(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), parsed.PublicKey())

	// Whitespace is tolerated.
	parsed, err = ParsePrivateKey("  " + key.String() + "\n")
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), parsed.PublicKey())
}

func TestParsePrivateKeyJSONArray(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	parts := make([]string, len(key))
	for i, b := range key {
		parts[i] = fmt.Sprintf("%d", b)
	}
	jsonKey := "[" + strings.Join(parts, ",") + "]"

	parsed, err := ParsePrivateKey(jsonKey)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), parsed.PublicKey())
}

func TestParsePrivateKeyRejections(t *testing.T) {
	cases := []string{
		"",
		"not-base58-0OIl",
		"[1,2,3]",        // wrong length
		"[1,2,300]",      // byte out of range
		"[not, numbers]", // invalid json
		"3yZe7d",         // valid base58, wrong length
	}
	for _, s := range cases {
		_, err := ParsePrivateKey(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestNewValidation(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = New(Config{PrivateKey: key.String()})
	assert.Error(t, err) // missing RPC URL

	_, err = New(Config{RPCURL: "http://localhost:8899"})
	assert.Error(t, err) // missing key

	w, err := New(Config{RPCURL: "http://localhost:8899", PrivateKey: key.String()})
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey())
	assert.Equal(t, key.PublicKey().String(), w.Address())
}

func TestCommitmentReached(t *testing.T) {
	assert.True(t, commitmentReached("processed", "processed"))
	assert.True(t, commitmentReached("confirmed", "confirmed"))
	assert.True(t, commitmentReached("finalized", "confirmed"))
	assert.False(t, commitmentReached("processed", "confirmed"))
	assert.False(t, commitmentReached("confirmed", "finalized"))
	assert.False(t, commitmentReached("", "processed"))
}

func TestSignProducesVerifiableSignature(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := New(Config{RPCURL: "http://localhost:8899", PrivateKey: key.String()})
	require.NoError(t, err)

	dest, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(solana.SystemProgramID,
				solana.AccountMetaSlice{
					solana.NewAccountMeta(w.PublicKey(), true, true),
					solana.NewAccountMeta(dest.PublicKey(), true, false),
				},
				[]byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}),
		},
		solana.Hash{},
		solana.TransactionPayer(w.PublicKey()),
	)
	require.NoError(t, err)

	require.NoError(t, w.Sign(tx))
	require.NotEmpty(t, tx.Signatures)
	assert.NoError(t, tx.VerifySignatures())
}
