package christmas

import (
	"bytes"
	"crypto/ed25519"

	"github.com/christmas-web3/christmas-server/pkg/solana"
)

var ClaimTokenFromMarketInstructionDiscriminator = instructionDiscriminator("claim_token_from_market")

const (
	ClaimTokenFromMarketInstructionArgsSize = 8 // amount
)

type ClaimTokenFromMarketInstructionArgs struct {
	Amount uint64
}

type ClaimTokenFromMarketInstructionAccounts struct {
	Mint                    ed25519.PublicKey
	ToTokenAccount          ed25519.PublicKey
	MarketplaceTokenVault   ed25519.PublicKey
	MarketplaceTokenAccount ed25519.PublicKey
	Signer                  ed25519.PublicKey
}

func NewClaimTokenFromMarketInstruction(
	accounts *ClaimTokenFromMarketInstructionAccounts,
	args *ClaimTokenFromMarketInstructionArgs,
) solana.Instruction {
	var offset int

	data := make([]byte, 8+ClaimTokenFromMarketInstructionArgsSize)

	putDiscriminator(data, ClaimTokenFromMarketInstructionDiscriminator, &offset)
	putUint64(data, args.Amount, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		Data: data,

		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Mint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.ToTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MarketplaceTokenVault,
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
		},
	}
}

type DecompiledClaimTokenFromMarket struct {
	Args     ClaimTokenFromMarketInstructionArgs
	Accounts ClaimTokenFromMarketInstructionAccounts

	IsSignedByClaimant bool
}

func DecompileClaimTokenFromMarket(ixn solana.Instruction) (*DecompiledClaimTokenFromMarket, error) {
	if !bytes.Equal(ixn.Program, PROGRAM_ADDRESS) {
		return nil, ErrInvalidProgram
	}
	if len(ixn.Data) != 8+ClaimTokenFromMarketInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}
	if !bytes.HasPrefix(ixn.Data, ClaimTokenFromMarketInstructionDiscriminator) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(ixn.Accounts) != 8 {
		return nil, ErrInvalidInstructionData
	}

	var decompiled DecompiledClaimTokenFromMarket

	offset := 8
	getUint64(ixn.Data, &decompiled.Args.Amount, &offset)

	decompiled.Accounts = ClaimTokenFromMarketInstructionAccounts{
		Mint:                    ixn.Accounts[0].PublicKey,
		ToTokenAccount:          ixn.Accounts[1].PublicKey,
		MarketplaceTokenVault:   ixn.Accounts[2].PublicKey,
		MarketplaceTokenAccount: ixn.Accounts[3].PublicKey,
		Signer:                  ixn.Accounts[4].PublicKey,
	}
	decompiled.IsSignedByClaimant = ixn.Accounts[4].IsSigner

	return &decompiled, nil
}
