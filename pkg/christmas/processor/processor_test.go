package processor

import (
	"context"
	"crypto/ed25519"
	"math"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain/memory"
	"github.com/christmas-web3/christmas-server/pkg/solana"
	"github.com/christmas-web3/christmas-server/pkg/solana/christmas"
	"github.com/christmas-web3/christmas-server/pkg/solana/token"
	"github.com/christmas-web3/christmas-server/pkg/testutil"
)

type testEnv struct {
	ctx       context.Context
	data      chain.Store
	processor *Processor
}

func setup(t *testing.T) *testEnv {
	data := memory.New()
	return &testEnv{
		ctx:       context.Background(),
		data:      data,
		processor: New(data),
	}
}

// fundTokenAccount mints amount tokens of mint into wallet's associated
// token account, creating the mint and the token account as needed. The
// authority controls the mint.
func fundTokenAccount(t *testing.T, env *testEnv, wallet, mint, authority ed25519.PublicKey, amount uint64) ed25519.PublicKey {
	tokenAccount, err := token.GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)

	require.NoError(t, env.data.ExecuteTransition(env.ctx, func(tx chain.Transition) error {
		if _, err := tx.GetMint(env.ctx, base58.Encode(mint)); err == chain.ErrMintNotFound {
			if _, err := tx.CreateMint(env.ctx, base58.Encode(mint), base58.Encode(authority), 0); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if _, err := tx.GetTokenAccount(env.ctx, base58.Encode(tokenAccount)); err == chain.ErrTokenAccountNotFound {
			if _, err := tx.CreateTokenAccount(env.ctx, base58.Encode(tokenAccount), base58.Encode(mint), base58.Encode(wallet)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return tx.MintTo(env.ctx, base58.Encode(tokenAccount), base58.Encode(authority), amount)
	}))

	return tokenAccount
}

func getTokenBalance(t *testing.T, env *testEnv, address ed25519.PublicKey) uint64 {
	record, err := env.data.GetTokenAccount(env.ctx, base58.Encode(address))
	if err == chain.ErrTokenAccountNotFound {
		return 0
	}
	require.NoError(t, err)
	return record.Amount
}

func getUserAccountState(t *testing.T, env *testEnv, owner ed25519.PublicKey) *christmas.UserAccount {
	address, _, err := christmas.GetUserAccountAddress(&christmas.GetUserAccountAddressArgs{
		Owner: owner,
	})
	require.NoError(t, err)

	record, err := env.data.GetAccount(env.ctx, base58.Encode(address))
	if err == chain.ErrAccountNotFound {
		return nil
	}
	require.NoError(t, err)

	var state christmas.UserAccount
	require.NoError(t, state.Unmarshal(record.Data))
	return &state
}

func getChristmasAccountState(t *testing.T, env *testEnv) *christmas.ChristmasAccount {
	address, _, err := christmas.GetChristmasAccountAddress()
	require.NoError(t, err)

	record, err := env.data.GetAccount(env.ctx, base58.Encode(address))
	if err == chain.ErrAccountNotFound {
		return nil
	}
	require.NoError(t, err)

	var state christmas.ChristmasAccount
	require.NoError(t, state.Unmarshal(record.Data))
	return &state
}

func getAddToPoolInstruction(t *testing.T, signer, mint ed25519.PublicKey, amount uint64) solana.Instruction {
	userAccount, _, err := christmas.GetUserAccountAddress(&christmas.GetUserAccountAddressArgs{
		Owner: signer,
	})
	require.NoError(t, err)

	christmasAccount, _, err := christmas.GetChristmasAccountAddress()
	require.NoError(t, err)

	userTokenAccount, err := token.GetAssociatedAccount(signer, mint)
	require.NoError(t, err)

	christmasTokenAccount, err := token.GetAssociatedAccount(christmasAccount, mint)
	require.NoError(t, err)

	return christmas.NewAddToPoolInstruction(
		&christmas.AddToPoolInstructionAccounts{
			UserAccount:           userAccount,
			ChristmasAccount:      christmasAccount,
			UserTokenAccount:      userTokenAccount,
			ChristmasTokenAccount: christmasTokenAccount,
			Mint:                  mint,
			Signer:                signer,
		},
		&christmas.AddToPoolInstructionArgs{
			Amount: amount,
		},
	)
}

func getMintTokenToMarketplaceInstruction(t *testing.T, signer, mint ed25519.PublicKey, numTokens uint64, description string) solana.Instruction {
	marketplaceTokenAccount, bump, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: signer,
		Mint:  mint,
	})
	require.NoError(t, err)

	tokenAccount, err := token.GetAssociatedAccount(marketplaceTokenAccount, mint)
	require.NoError(t, err)

	return christmas.NewMintTokenToMarketplaceInstruction(
		&christmas.MintTokenToMarketplaceInstructionAccounts{
			Mint:                    mint,
			TokenAccount:            tokenAccount,
			MarketplaceTokenAccount: marketplaceTokenAccount,
			Signer:                  signer,
		},
		&christmas.MintTokenToMarketplaceInstructionArgs{
			NumTokens:   numTokens,
			Bump:        bump,
			Description: description,
		},
	)
}

func getClaimTokenFromMarketInstruction(t *testing.T, claimant, owner, mint ed25519.PublicKey, amount uint64) solana.Instruction {
	marketplaceTokenAccount, _, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: owner,
		Mint:  mint,
	})
	require.NoError(t, err)

	vault, err := token.GetAssociatedAccount(marketplaceTokenAccount, mint)
	require.NoError(t, err)

	toTokenAccount, err := token.GetAssociatedAccount(claimant, mint)
	require.NoError(t, err)

	return christmas.NewClaimTokenFromMarketInstruction(
		&christmas.ClaimTokenFromMarketInstructionAccounts{
			Mint:                    mint,
			ToTokenAccount:          toTokenAccount,
			MarketplaceTokenVault:   vault,
			MarketplaceTokenAccount: marketplaceTokenAccount,
			Signer:                  claimant,
		},
		&christmas.ClaimTokenFromMarketInstructionArgs{
			Amount: amount,
		},
	)
}

func TestProcess_Dispatch(t *testing.T) {
	env := setup(t)

	err := env.processor.Process(env.ctx, solana.Instruction{
		Program: testutil.NewRandomKey(t),
		Data:    christmas.SayHelloInstructionDiscriminator,
	})
	assert.Equal(t, christmas.ErrInvalidProgram, errors.Cause(err))

	err = env.processor.Process(env.ctx, solana.Instruction{
		Program: christmas.PROGRAM_ADDRESS,
		Data:    []byte{1, 2, 3},
	})
	assert.Equal(t, christmas.ErrInvalidInstructionData, errors.Cause(err))

	err = env.processor.Process(env.ctx, solana.Instruction{
		Program: christmas.PROGRAM_ADDRESS,
		Data:    []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	})
	assert.Equal(t, solana.ErrIncorrectInstruction, errors.Cause(err))

	assert.NoError(t, env.processor.Process(env.ctx, christmas.NewSayHelloInstruction()))
}

func TestAddToPool_HappyPath(t *testing.T) {
	env := setup(t)

	mintAuthority := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)

	user1 := testutil.NewRandomKey(t)
	user2 := testutil.NewRandomKey(t)

	userTokenAccount1 := fundTokenAccount(t, env, user1, mint, mintAuthority, 1000)
	userTokenAccount2 := fundTokenAccount(t, env, user2, mint, mintAuthority, 1000)

	require.NoError(t, env.processor.Process(env.ctx, getAddToPoolInstruction(t, user1, mint, 100)))
	require.NoError(t, env.processor.Process(env.ctx, getAddToPoolInstruction(t, user1, mint, 50)))
	require.NoError(t, env.processor.Process(env.ctx, getAddToPoolInstruction(t, user2, mint, 25)))

	userState1 := getUserAccountState(t, env, user1)
	require.NotNil(t, userState1)
	assert.True(t, userState1.IsInitialized)
	assert.EqualValues(t, 150, userState1.TotalAmountContributed)

	userState2 := getUserAccountState(t, env, user2)
	require.NotNil(t, userState2)
	assert.EqualValues(t, 25, userState2.TotalAmountContributed)

	poolState := getChristmasAccountState(t, env)
	require.NotNil(t, poolState)
	assert.True(t, poolState.IsInitialized)
	assert.Equal(t, mint, poolState.Mint)
	assert.Equal(t, userState1.TotalAmountContributed+userState2.TotalAmountContributed, poolState.TotalAmountContributed)

	christmasAccount, _, err := christmas.GetChristmasAccountAddress()
	require.NoError(t, err)
	christmasTokenAccount, err := token.GetAssociatedAccount(christmasAccount, mint)
	require.NoError(t, err)

	assert.EqualValues(t, 175, getTokenBalance(t, env, christmasTokenAccount))
	assert.EqualValues(t, 850, getTokenBalance(t, env, userTokenAccount1))
	assert.EqualValues(t, 975, getTokenBalance(t, env, userTokenAccount2))
}

func TestAddToPool_ZeroAmount(t *testing.T) {
	env := setup(t)

	mint := testutil.NewRandomKey(t)
	user := testutil.NewRandomKey(t)

	err := env.processor.Process(env.ctx, getAddToPoolInstruction(t, user, mint, 0))
	assert.Equal(t, christmas.ErrInvalidArgument, errors.Cause(err))
	assert.Nil(t, getUserAccountState(t, env, user))
	assert.Nil(t, getChristmasAccountState(t, env))
}

func TestAddToPool_MissingSignature(t *testing.T) {
	env := setup(t)

	mint := testutil.NewRandomKey(t)
	user := testutil.NewRandomKey(t)

	ixn := getAddToPoolInstruction(t, user, mint, 100)
	ixn.Accounts[5].IsSigner = false

	err := env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrUnauthorized, errors.Cause(err))
	assert.Nil(t, getUserAccountState(t, env, user))
}

func TestAddToPool_SpoofedAccounts(t *testing.T) {
	env := setup(t)

	mintAuthority := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)
	user := testutil.NewRandomKey(t)

	userTokenAccount := fundTokenAccount(t, env, user, mint, mintAuthority, 1000)

	// Each derivable account is individually checked against its
	// re-derivation
	for _, index := range []int{0, 1, 2, 3} {
		ixn := getAddToPoolInstruction(t, user, mint, 100)
		ixn.Accounts[index].PublicKey = testutil.NewRandomKey(t)

		err := env.processor.Process(env.ctx, ixn)
		assert.Equal(t, christmas.ErrAddressMismatch, errors.Cause(err))
	}

	assert.Nil(t, getUserAccountState(t, env, user))
	assert.Nil(t, getChristmasAccountState(t, env))
	assert.EqualValues(t, 1000, getTokenBalance(t, env, userTokenAccount))
}

func TestAddToPool_MintMismatch(t *testing.T) {
	env := setup(t)

	mintAuthority := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)
	otherMint := testutil.NewRandomKey(t)
	user := testutil.NewRandomKey(t)

	fundTokenAccount(t, env, user, mint, mintAuthority, 1000)
	otherTokenAccount := fundTokenAccount(t, env, user, otherMint, mintAuthority, 1000)

	require.NoError(t, env.processor.Process(env.ctx, getAddToPoolInstruction(t, user, mint, 100)))

	err := env.processor.Process(env.ctx, getAddToPoolInstruction(t, user, otherMint, 100))
	assert.Equal(t, christmas.ErrMintMismatch, errors.Cause(err))

	poolState := getChristmasAccountState(t, env)
	require.NotNil(t, poolState)
	assert.Equal(t, mint, poolState.Mint)
	assert.EqualValues(t, 100, poolState.TotalAmountContributed)
	assert.EqualValues(t, 1000, getTokenBalance(t, env, otherTokenAccount))
}

func TestAddToPool_Overflow(t *testing.T) {
	env := setup(t)

	mintAuthority := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)
	user := testutil.NewRandomKey(t)

	userTokenAccount := fundTokenAccount(t, env, user, mint, mintAuthority, 1000)

	userAccount, _, err := christmas.GetUserAccountAddress(&christmas.GetUserAccountAddressArgs{
		Owner: user,
	})
	require.NoError(t, err)

	seeded := christmas.UserAccount{
		IsInitialized:          true,
		TotalAmountContributed: math.MaxUint64 - 5,
	}
	require.NoError(t, env.data.ExecuteTransition(env.ctx, func(tx chain.Transition) error {
		record, err := tx.CreateAccount(env.ctx, base58.Encode(userAccount), christmas.UserAccountSize)
		if err != nil {
			return err
		}
		record.Data = seeded.Marshal()
		return tx.PutAccount(env.ctx, record)
	}))

	err = env.processor.Process(env.ctx, getAddToPoolInstruction(t, user, mint, 10))
	assert.Equal(t, christmas.ErrArithmeticOverflow, errors.Cause(err))

	userState := getUserAccountState(t, env, user)
	require.NotNil(t, userState)
	assert.Equal(t, seeded.TotalAmountContributed, userState.TotalAmountContributed)
	assert.Nil(t, getChristmasAccountState(t, env))
	assert.EqualValues(t, 1000, getTokenBalance(t, env, userTokenAccount))
}

func TestAddToPool_InsufficientFunds(t *testing.T) {
	env := setup(t)

	mintAuthority := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)
	user := testutil.NewRandomKey(t)

	userTokenAccount := fundTokenAccount(t, env, user, mint, mintAuthority, 5)

	err := env.processor.Process(env.ctx, getAddToPoolInstruction(t, user, mint, 10))
	assert.Equal(t, christmas.ErrInsufficientFunds, errors.Cause(err))

	// The lazily created records from the failed transition must not leak
	assert.Nil(t, getUserAccountState(t, env, user))
	assert.Nil(t, getChristmasAccountState(t, env))
	assert.EqualValues(t, 5, getTokenBalance(t, env, userTokenAccount))
}

func TestMintTokenToMarketplace_HappyPath(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)

	require.NoError(t, env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, owner, mint, 100, "hand knit sweater")))

	marketplaceTokenAccount, bump, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: owner,
		Mint:  mint,
	})
	require.NoError(t, err)

	record, err := env.data.GetAccount(env.ctx, base58.Encode(marketplaceTokenAccount))
	require.NoError(t, err)

	var state christmas.MarketplaceTokenAccount
	require.NoError(t, state.Unmarshal(record.Data))
	assert.Equal(t, owner, state.Owner)
	assert.Equal(t, mint, state.Mint)
	assert.Equal(t, bump, state.Bump)
	assert.Equal(t, "hand knit sweater", state.Description)

	vault, err := token.GetAssociatedAccount(marketplaceTokenAccount, mint)
	require.NoError(t, err)
	assert.EqualValues(t, 100, getTokenBalance(t, env, vault))

	mintRecord, err := env.data.GetMint(env.ctx, base58.Encode(mint))
	require.NoError(t, err)
	assert.EqualValues(t, 100, mintRecord.Supply)
	assert.EqualValues(t, 0, mintRecord.Decimals)
}

func TestMintTokenToMarketplace_Duplicate(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)

	require.NoError(t, env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, owner, mint, 100, "wooden train")))

	err := env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, owner, mint, 50, "wooden train"))
	assert.Equal(t, christmas.ErrDuplicateRecord, errors.Cause(err))

	marketplaceTokenAccount, _, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: owner,
		Mint:  mint,
	})
	require.NoError(t, err)

	vault, err := token.GetAssociatedAccount(marketplaceTokenAccount, mint)
	require.NoError(t, err)
	assert.EqualValues(t, 100, getTokenBalance(t, env, vault))
}

func TestMintTokenToMarketplace_Validation(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)

	err := env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, owner, mint, 0, "nothing"))
	assert.Equal(t, christmas.ErrInvalidArgument, errors.Cause(err))

	ixn := getMintTokenToMarketplaceInstruction(t, owner, mint, 100, "toy")
	ixn.Accounts[0].IsSigner = false
	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrUnauthorized, errors.Cause(err))

	ixn = getMintTokenToMarketplaceInstruction(t, owner, mint, 100, "toy")
	ixn.Accounts[3].IsSigner = false
	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrUnauthorized, errors.Cause(err))

	ixn = getMintTokenToMarketplaceInstruction(t, owner, mint, 100, "toy")
	ixn.Accounts[2].PublicKey = testutil.NewRandomKey(t)
	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrAddressMismatch, errors.Cause(err))

	ixn = getMintTokenToMarketplaceInstruction(t, owner, mint, 100, "toy")
	ixn.Accounts[1].PublicKey = testutil.NewRandomKey(t)
	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrAddressMismatch, errors.Cause(err))

	err = env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, owner, mint, 100, strings.Repeat("x", christmas.MaxDescriptionLength+1)))
	assert.Equal(t, christmas.ErrDescriptionTooLong, errors.Cause(err))

	marketplaceTokenAccount, _, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: owner,
		Mint:  mint,
	})
	require.NoError(t, err)

	_, err = env.data.GetAccount(env.ctx, base58.Encode(marketplaceTokenAccount))
	assert.Equal(t, chain.ErrAccountNotFound, err)
}

func TestMintTokenToMarketplace_BumpMismatch(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)

	marketplaceTokenAccount, bump, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: owner,
		Mint:  mint,
	})
	require.NoError(t, err)

	vault, err := token.GetAssociatedAccount(marketplaceTokenAccount, mint)
	require.NoError(t, err)

	ixn := christmas.NewMintTokenToMarketplaceInstruction(
		&christmas.MintTokenToMarketplaceInstructionAccounts{
			Mint:                    mint,
			TokenAccount:            vault,
			MarketplaceTokenAccount: marketplaceTokenAccount,
			Signer:                  owner,
		},
		&christmas.MintTokenToMarketplaceInstructionArgs{
			NumTokens:   100,
			Bump:        bump + 1,
			Description: "toy",
		},
	)

	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrBumpMismatch, errors.Cause(err))

	_, err = env.data.GetAccount(env.ctx, base58.Encode(marketplaceTokenAccount))
	assert.Equal(t, chain.ErrAccountNotFound, err)
}

func TestClaimTokenFromMarket_HappyPath(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomKey(t)
	claimant := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)

	require.NoError(t, env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, owner, mint, 100, "rocking horse")))

	require.NoError(t, env.processor.Process(env.ctx, getClaimTokenFromMarketInstruction(t, claimant, owner, mint, 30)))

	marketplaceTokenAccount, _, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: owner,
		Mint:  mint,
	})
	require.NoError(t, err)

	vault, err := token.GetAssociatedAccount(marketplaceTokenAccount, mint)
	require.NoError(t, err)

	claimantTokenAccount, err := token.GetAssociatedAccount(claimant, mint)
	require.NoError(t, err)

	assert.EqualValues(t, 70, getTokenBalance(t, env, vault))
	assert.EqualValues(t, 30, getTokenBalance(t, env, claimantTokenAccount))

	require.NoError(t, env.processor.Process(env.ctx, getClaimTokenFromMarketInstruction(t, claimant, owner, mint, 70)))

	assert.EqualValues(t, 0, getTokenBalance(t, env, vault))
	assert.EqualValues(t, 100, getTokenBalance(t, env, claimantTokenAccount))
}

func TestClaimTokenFromMarket_InsufficientFunds(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomKey(t)
	claimant := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)

	require.NoError(t, env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, owner, mint, 10, "candle")))

	err := env.processor.Process(env.ctx, getClaimTokenFromMarketInstruction(t, claimant, owner, mint, 50))
	assert.Equal(t, christmas.ErrInsufficientFunds, errors.Cause(err))

	marketplaceTokenAccount, _, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: owner,
		Mint:  mint,
	})
	require.NoError(t, err)

	vault, err := token.GetAssociatedAccount(marketplaceTokenAccount, mint)
	require.NoError(t, err)

	claimantTokenAccount, err := token.GetAssociatedAccount(claimant, mint)
	require.NoError(t, err)

	assert.EqualValues(t, 10, getTokenBalance(t, env, vault))
	assert.EqualValues(t, 0, getTokenBalance(t, env, claimantTokenAccount))
}

func TestClaimTokenFromMarket_Validation(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomKey(t)
	claimant := testutil.NewRandomKey(t)
	mint := testutil.NewRandomKey(t)
	otherMint := testutil.NewRandomKey(t)

	require.NoError(t, env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, owner, mint, 100, "snow globe")))

	err := env.processor.Process(env.ctx, getClaimTokenFromMarketInstruction(t, claimant, owner, mint, 0))
	assert.Equal(t, christmas.ErrInvalidArgument, errors.Cause(err))

	ixn := getClaimTokenFromMarketInstruction(t, claimant, owner, mint, 10)
	ixn.Accounts[4].IsSigner = false
	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrUnauthorized, errors.Cause(err))

	// Record for a different mint does not exist
	err = env.processor.Process(env.ctx, getClaimTokenFromMarketInstruction(t, claimant, owner, otherMint, 10))
	assert.Equal(t, chain.ErrAccountNotFound, errors.Cause(err))

	// Supplied mint disagrees with the record
	ixn = getClaimTokenFromMarketInstruction(t, claimant, owner, mint, 10)
	ixn.Accounts[0].PublicKey = otherMint
	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrMintMismatch, errors.Cause(err))

	// Spoofed custody and destination accounts
	ixn = getClaimTokenFromMarketInstruction(t, claimant, owner, mint, 10)
	ixn.Accounts[2].PublicKey = testutil.NewRandomKey(t)
	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrAddressMismatch, errors.Cause(err))

	ixn = getClaimTokenFromMarketInstruction(t, claimant, owner, mint, 10)
	ixn.Accounts[1].PublicKey = testutil.NewRandomKey(t)
	err = env.processor.Process(env.ctx, ixn)
	assert.Equal(t, christmas.ErrAddressMismatch, errors.Cause(err))

	marketplaceTokenAccount, _, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: owner,
		Mint:  mint,
	})
	require.NoError(t, err)

	vault, err := token.GetAssociatedAccount(marketplaceTokenAccount, mint)
	require.NoError(t, err)
	assert.EqualValues(t, 100, getTokenBalance(t, env, vault))
}

func TestEndToEnd(t *testing.T) {
	env := setup(t)

	mintAuthority := testutil.NewRandomKey(t)
	poolMint := testutil.NewRandomKey(t)

	maker := testutil.NewRandomKey(t)
	claimant := testutil.NewRandomKey(t)

	fundTokenAccount(t, env, maker, poolMint, mintAuthority, 500)

	// The same user contributes to the pool and lists a token
	require.NoError(t, env.processor.Process(env.ctx, getAddToPoolInstruction(t, maker, poolMint, 200)))

	listingMint := testutil.NewRandomKey(t)
	require.NoError(t, env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, maker, listingMint, 10, "sled")))

	require.NoError(t, env.processor.Process(env.ctx, getClaimTokenFromMarketInstruction(t, claimant, maker, listingMint, 4)))

	userState := getUserAccountState(t, env, maker)
	require.NotNil(t, userState)
	assert.EqualValues(t, 200, userState.TotalAmountContributed)

	poolState := getChristmasAccountState(t, env)
	require.NotNil(t, poolState)
	assert.Equal(t, poolMint, poolState.Mint)
	assert.EqualValues(t, 200, poolState.TotalAmountContributed)

	listings, err := env.processor.ListMarketplaceTokens(env.ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, maker, listings[0].Owner)
	assert.Equal(t, listingMint, listings[0].Mint)

	claimantTokenAccount, err := token.GetAssociatedAccount(claimant, listingMint)
	require.NoError(t, err)
	assert.EqualValues(t, 4, getTokenBalance(t, env, claimantTokenAccount))
}

func TestListMarketplaceTokens(t *testing.T) {
	env := setup(t)

	listings, err := env.processor.ListMarketplaceTokens(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, listings)

	owner1 := testutil.NewRandomKey(t)
	owner2 := testutil.NewRandomKey(t)

	expected := make(map[string]string)
	for i, listing := range []struct {
		owner       ed25519.PublicKey
		description string
	}{
		{owner1, "gingerbread house"},
		{owner1, "scarf"},
		{owner2, "advent calendar"},
	} {
		mint := testutil.NewRandomKey(t)
		require.NoError(t, env.processor.Process(env.ctx, getMintTokenToMarketplaceInstruction(t, listing.owner, mint, uint64(i+1), listing.description)))
		expected[base58.Encode(mint)] = listing.description
	}

	// A foreign record of the same byte size must not surface as a listing
	require.NoError(t, env.data.ExecuteTransition(env.ctx, func(tx chain.Transition) error {
		record, err := tx.CreateAccount(env.ctx, base58.Encode(testutil.NewRandomKey(t)), christmas.MarketplaceTokenAccountSize)
		if err != nil {
			return err
		}
		record.Data[0] = 0xff
		return tx.PutAccount(env.ctx, record)
	}))

	listings, err = env.processor.ListMarketplaceTokens(env.ctx)
	require.NoError(t, err)
	require.Len(t, listings, len(expected))

	for _, listing := range listings {
		description, ok := expected[base58.Encode(listing.Mint)]
		require.True(t, ok)
		assert.Equal(t, description, listing.Description)
	}
}
