package christmas

import (
	"crypto/ed25519"

	"github.com/christmas-web3/christmas-server/pkg/solana"
)

var (
	UserAccountPrefix      = []byte("user_account")
	ChristmasAccountPrefix = []byte("christmas_account")
	MarketplaceTokenPrefix = []byte("mpt_pda")
)

type GetUserAccountAddressArgs struct {
	Owner ed25519.PublicKey
}

// GetUserAccountAddress derives the address of the UserAccount record that
// tracks an owner's contributions.
func GetUserAccountAddress(args *GetUserAccountAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		UserAccountPrefix,
		args.Owner,
	)
}

// GetChristmasAccountAddress derives the address of the singleton pool
// account. There is exactly one per program deployment.
func GetChristmasAccountAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		ChristmasAccountPrefix,
	)
}

type GetMarketplaceTokenAddressArgs struct {
	Owner ed25519.PublicKey
	Mint  ed25519.PublicKey
}

// GetMarketplaceTokenAddress derives the address of the marketplace token
// record for an (owner, mint) pair. The returned bump is canonical and must
// match any caller-asserted bump exactly.
func GetMarketplaceTokenAddress(args *GetMarketplaceTokenAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		MarketplaceTokenPrefix,
		args.Owner,
		args.Mint,
	)
}
