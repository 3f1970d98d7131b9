package christmas

import (
	"bytes"
	"crypto/ed25519"

	"github.com/christmas-web3/christmas-server/pkg/solana"
)

var MintTokenToMarketplaceInstructionDiscriminator = instructionDiscriminator("mint_token_to_marketplace")

type MintTokenToMarketplaceInstructionArgs struct {
	NumTokens   uint64
	Bump        uint8
	Description string
}

type MintTokenToMarketplaceInstructionAccounts struct {
	Mint                    ed25519.PublicKey
	TokenAccount            ed25519.PublicKey
	MarketplaceTokenAccount ed25519.PublicKey
	Signer                  ed25519.PublicKey
}

func NewMintTokenToMarketplaceInstruction(
	accounts *MintTokenToMarketplaceInstructionAccounts,
	args *MintTokenToMarketplaceInstructionArgs,
) solana.Instruction {
	var offset int

	data := make([]byte, 8+8+1+4+len(args.Description))

	putDiscriminator(data, MintTokenToMarketplaceInstructionDiscriminator, &offset)
	putUint64(data, args.NumTokens, &offset)
	putUint8(data, args.Bump, &offset)
	putString(data, args.Description, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		Data: data,

		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Mint,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.TokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MarketplaceTokenAccount,
				IsWritable: true,
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
			{
				PublicKey:  SPL_ASSOCIATED_TOKEN_ACCOUNT_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSVAR_RENT_PUBKEY,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

type DecompiledMintTokenToMarketplace struct {
	Args     MintTokenToMarketplaceInstructionArgs
	Accounts MintTokenToMarketplaceInstructionAccounts

	IsSignedByMint bool
	IsSignedByUser bool
}

func DecompileMintTokenToMarketplace(ixn solana.Instruction) (*DecompiledMintTokenToMarketplace, error) {
	if !bytes.Equal(ixn.Program, PROGRAM_ADDRESS) {
		return nil, ErrInvalidProgram
	}
	if len(ixn.Data) < 8+8+1+4 {
		return nil, ErrInvalidInstructionData
	}
	if !bytes.HasPrefix(ixn.Data, MintTokenToMarketplaceInstructionDiscriminator) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(ixn.Accounts) != 8 {
		return nil, ErrInvalidInstructionData
	}

	var decompiled DecompiledMintTokenToMarketplace

	offset := 8
	getUint64(ixn.Data, &decompiled.Args.NumTokens, &offset)
	getUint8(ixn.Data, &decompiled.Args.Bump, &offset)

	var length uint32
	getUint32(ixn.Data, &length, &offset)
	if len(ixn.Data) != offset+int(length) {
		return nil, ErrInvalidInstructionData
	}
	decompiled.Args.Description = string(ixn.Data[offset:])

	decompiled.Accounts = MintTokenToMarketplaceInstructionAccounts{
		Mint:                    ixn.Accounts[0].PublicKey,
		TokenAccount:            ixn.Accounts[1].PublicKey,
		MarketplaceTokenAccount: ixn.Accounts[2].PublicKey,
		Signer:                  ixn.Accounts[3].PublicKey,
	}
	decompiled.IsSignedByMint = ixn.Accounts[0].IsSigner
	decompiled.IsSignedByUser = ixn.Accounts[3].IsSigner

	return &decompiled, nil
}
