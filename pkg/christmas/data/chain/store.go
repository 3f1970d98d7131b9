package chain

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound     = errors.New("program account not found")
	ErrAccountExists       = errors.New("program account already exists")
	ErrInvalidAccountSize  = errors.New("data does not match account size")
	ErrMintNotFound        = errors.New("mint not found")
	ErrMintExists          = errors.New("mint already exists")
	ErrTokenAccountNotFound = errors.New("token account not found")
	ErrTokenAccountExists  = errors.New("token account already exists")
	ErrInsufficientFunds   = errors.New("insufficient token balance")
	ErrUnauthorized        = errors.New("authority is not authorized")
	ErrMintMismatch        = errors.New("token account mint mismatch")
	ErrSupplyOverflow      = errors.New("token supply overflow")
)

// Store models the account environment and token custody facility the
// program executes against. Addresses are base58 encoded.
type Store interface {
	// GetAccount gets a program account record by its address.
	// ErrAccountNotFound is returned if no record exists.
	GetAccount(ctx context.Context, address string) (*AccountRecord, error)

	// GetAccountsByDataSize gets all program account records whose data is
	// exactly the provided byte size, in no particular order. An empty
	// result is a valid outcome.
	GetAccountsByDataSize(ctx context.Context, size int) ([]*AccountRecord, error)

	// GetMint gets a mint record by its address. ErrMintNotFound is
	// returned if no record exists.
	GetMint(ctx context.Context, address string) (*MintRecord, error)

	// GetTokenAccount gets a token account record by its address.
	// ErrTokenAccountNotFound is returned if no record exists.
	GetTokenAccount(ctx context.Context, address string) (*TokenAccountRecord, error)

	// ExecuteTransition runs fn as a single atomic state transition. All
	// effects applied through the Transition are committed if fn returns
	// nil, and discarded entirely otherwise.
	ExecuteTransition(ctx context.Context, fn func(tx Transition) error) error
}

// Transition is the mutable view of chain state inside a single atomic
// state transition.
type Transition interface {
	// GetAccount gets a program account record by its address, observing
	// any writes already applied within this transition.
	GetAccount(ctx context.Context, address string) (*AccountRecord, error)

	// CreateAccount creates a program account with zeroed data of the exact
	// requested size. ErrAccountExists is returned if the address is taken.
	CreateAccount(ctx context.Context, address string, size int) (*AccountRecord, error)

	// PutAccount overwrites an existing program account's data. The new
	// data must match the account's allocated size exactly, else
	// ErrInvalidAccountSize is returned.
	PutAccount(ctx context.Context, record *AccountRecord) error

	// GetMint gets a mint record by its address.
	GetMint(ctx context.Context, address string) (*MintRecord, error)

	// CreateMint creates a new mint with zero supply, controlled by the
	// provided authority. ErrMintExists is returned on duplicates.
	CreateMint(ctx context.Context, address, authority string, decimals uint8) (*MintRecord, error)

	// GetTokenAccount gets a token account record by its address.
	GetTokenAccount(ctx context.Context, address string) (*TokenAccountRecord, error)

	// CreateTokenAccount creates a zero-balance token account for the
	// (owner, mint) pair. ErrTokenAccountExists is returned on duplicates,
	// ErrMintNotFound if the mint does not exist.
	CreateTokenAccount(ctx context.Context, address, mint, owner string) (*TokenAccountRecord, error)

	// MintTo mints amount new tokens into the token account. The authority
	// must be the mint's authority, else ErrUnauthorized is returned.
	MintTo(ctx context.Context, tokenAccount, authority string, amount uint64) error

	// Transfer moves amount tokens between two accounts of the same mint.
	// The authority must be the source account's owner. ErrInsufficientFunds
	// is returned if the source balance is short.
	Transfer(ctx context.Context, source, dest, authority string, amount uint64) error
}
