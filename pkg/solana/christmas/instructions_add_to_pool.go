package christmas

import (
	"bytes"
	"crypto/ed25519"

	"github.com/christmas-web3/christmas-server/pkg/solana"
)

var AddToPoolInstructionDiscriminator = instructionDiscriminator("add_to_pool")

const (
	AddToPoolInstructionArgsSize = 8 // amount
)

type AddToPoolInstructionArgs struct {
	Amount uint64
}

type AddToPoolInstructionAccounts struct {
	UserAccount           ed25519.PublicKey
	ChristmasAccount      ed25519.PublicKey
	UserTokenAccount      ed25519.PublicKey
	ChristmasTokenAccount ed25519.PublicKey
	Mint                  ed25519.PublicKey
	Signer                ed25519.PublicKey
}

func NewAddToPoolInstruction(
	accounts *AddToPoolInstructionAccounts,
	args *AddToPoolInstructionArgs,
) solana.Instruction {
	var offset int

	data := make([]byte, 8+AddToPoolInstructionArgsSize)

	putDiscriminator(data, AddToPoolInstructionDiscriminator, &offset)
	putUint64(data, args.Amount, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		Data: data,

		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.UserAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.ChristmasAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.UserTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.ChristmasTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Signer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

type DecompiledAddToPool struct {
	Args     AddToPoolInstructionArgs
	Accounts AddToPoolInstructionAccounts

	IsSignedByUser bool
}

func DecompileAddToPool(ixn solana.Instruction) (*DecompiledAddToPool, error) {
	if !bytes.Equal(ixn.Program, PROGRAM_ADDRESS) {
		return nil, ErrInvalidProgram
	}
	if len(ixn.Data) != 8+AddToPoolInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}
	if !bytes.HasPrefix(ixn.Data, AddToPoolInstructionDiscriminator) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(ixn.Accounts) != 8 {
		return nil, ErrInvalidInstructionData
	}

	var decompiled DecompiledAddToPool

	offset := 8
	getUint64(ixn.Data, &decompiled.Args.Amount, &offset)

	decompiled.Accounts = AddToPoolInstructionAccounts{
		UserAccount:           ixn.Accounts[0].PublicKey,
		ChristmasAccount:      ixn.Accounts[1].PublicKey,
		UserTokenAccount:      ixn.Accounts[2].PublicKey,
		ChristmasTokenAccount: ixn.Accounts[3].PublicKey,
		Mint:                  ixn.Accounts[4].PublicKey,
		Signer:                ixn.Accounts[5].PublicKey,
	}
	decompiled.IsSignedByUser = ixn.Accounts[5].IsSigner

	return &decompiled, nil
}
