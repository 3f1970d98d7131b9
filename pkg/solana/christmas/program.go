package christmas

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

// Program errors surfaced by instruction handlers. Every one of these aborts
// the instruction atomically with zero partial effects.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAddressMismatch    = errors.New("account address does not match derivation")
	ErrBumpMismatch       = errors.New("bump does not match derivation")
	ErrDuplicateRecord    = errors.New("record already exists")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrUnauthorized       = errors.New("missing required signature")
	ErrMintMismatch       = errors.New("mint does not match")
	ErrDescriptionTooLong = errors.New("description exceeds capacity")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("5ZohsZtvVnjLy7TZDuujXneojE8dq27Y4mrsq3e8eKTZ")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID                       = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
	SPL_TOKEN_PROGRAM_ID                    = ed25519.PublicKey(mustBase58Decode("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"))
	SPL_ASSOCIATED_TOKEN_ACCOUNT_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"))

	SYSVAR_RENT_PUBKEY = ed25519.PublicKey(mustBase58Decode("SysvarRent111111111111111111111111111111111"))
)

// accountDiscriminator computes the 8-byte discriminator the program writes
// at the start of every account it owns.
func accountDiscriminator(name string) []byte {
	hashed := sha256.Sum256([]byte("account:" + name))
	return hashed[:8]
}

// instructionDiscriminator computes the 8-byte method discriminator prefixed
// to instruction data.
func instructionDiscriminator(name string) []byte {
	hashed := sha256.Sum256([]byte("global:" + name))
	return hashed[:8]
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
