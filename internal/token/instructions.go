package token

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// NewCreateAssociatedTokenAccountIx builds an ATA-program create instruction.
// Account order (ATA program):
// 0. payer (signer, writable)
// 1. ata (writable)
// 2. owner (read-only)
// 3. mint (read-only)
// 4. system_program
// 5. token_program (classic or 2022, must match the mint)
// 6. rent_sysvar
func NewCreateAssociatedTokenAccountIx(
	payer solana.PublicKey,
	ata solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	tokenProgram solana.PublicKey,
) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: tokenProgram, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SysVarRentPubkey, IsSigner: false, IsWritable: false},
	}

	// ATA create instruction data is empty.
	return solana.NewInstruction(associatedTokenProgramID, accounts, nil)
}

// NewSystemTransferIx builds a SystemProgram lamport transfer.
func NewSystemTransferIx(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	// SystemProgram layout: u32 instruction index (2 = Transfer), u64 lamports.
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	accounts := []*solana.AccountMeta{
		{PublicKey: from, IsSigner: true, IsWritable: true},
		{PublicKey: to, IsSigner: false, IsWritable: true},
	}
	return solana.NewInstruction(solana.SystemProgramID, accounts, data)
}

// NewSyncNativeIx builds a SyncNative instruction (token instruction 17),
// refreshing a wSOL account's token balance from its lamports.
func NewSyncNativeIx(nativeAccount, tokenProgram solana.PublicKey) solana.Instruction {
	data := []byte{17}
	accounts := []*solana.AccountMeta{
		{PublicKey: nativeAccount, IsSigner: false, IsWritable: true},
	}
	return solana.NewInstruction(tokenProgram, accounts, data)
}

// NewCloseAccountIx builds a CloseAccount instruction (token instruction 9).
func NewCloseAccountIx(account, destination, owner, tokenProgram solana.PublicKey) solana.Instruction {
	data := []byte{9}
	accounts := []*solana.AccountMeta{
		{PublicKey: account, IsSigner: false, IsWritable: true},
		{PublicKey: destination, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(tokenProgram, accounts, data)
}

// NewTransferCheckedIx builds a TransferChecked instruction (token
// instruction 12). TransferChecked is used instead of plain Transfer because
// Token-2022 rejects the unchecked form for some mints.
func NewTransferCheckedIx(
	source, mint, destination, owner solana.PublicKey,
	amount uint64,
	decimals uint8,
	tokenProgram solana.PublicKey,
) solana.Instruction {
	data := make([]byte, 1+8+1)
	data[0] = 12
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals

	accounts := []*solana.AccountMeta{
		{PublicKey: source, IsSigner: false, IsWritable: true},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: destination, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(tokenProgram, accounts, data)
}
