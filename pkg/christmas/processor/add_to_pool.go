package processor

import (
	"bytes"
	"context"
	"math"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
	"github.com/christmas-web3/christmas-server/pkg/solana/christmas"
	"github.com/christmas-web3/christmas-server/pkg/solana/token"
)

// AddToPool applies a pool contribution. The user's record and the singleton
// pool record are created lazily on first use, the contribution amount is
// moved from the user's token account into the pool's custody account, and
// both contribution totals are advanced by exactly the transferred amount.
//
// Every account address is re-derived and compared against the supplied one
// before any state is touched, so a failed call leaves all records unchanged.
func (p *Processor) AddToPool(ctx context.Context, ixn *christmas.DecompiledAddToPool) error {
	log := p.log.WithFields(logrus.Fields{
		"method": "AddToPool",
		"signer": base58.Encode(ixn.Accounts.Signer),
		"amount": ixn.Args.Amount,
	})

	if ixn.Args.Amount == 0 {
		return errors.Wrap(christmas.ErrInvalidArgument, "amount must be positive")
	}
	if !ixn.IsSignedByUser {
		return errors.Wrapf(christmas.ErrUnauthorized, "user %s did not sign", base58.Encode(ixn.Accounts.Signer))
	}

	expectedUserAccount, _, err := christmas.GetUserAccountAddress(&christmas.GetUserAccountAddressArgs{
		Owner: ixn.Accounts.Signer,
	})
	if err != nil {
		return errors.Wrap(err, "failed to derive user account address")
	}
	if !bytes.Equal(expectedUserAccount, ixn.Accounts.UserAccount) {
		return errors.Wrapf(christmas.ErrAddressMismatch, "user account %s", base58.Encode(ixn.Accounts.UserAccount))
	}

	expectedPoolAccount, _, err := christmas.GetChristmasAccountAddress()
	if err != nil {
		return errors.Wrap(err, "failed to derive christmas account address")
	}
	if !bytes.Equal(expectedPoolAccount, ixn.Accounts.ChristmasAccount) {
		return errors.Wrapf(christmas.ErrAddressMismatch, "christmas account %s", base58.Encode(ixn.Accounts.ChristmasAccount))
	}

	expectedUserTokenAccount, err := token.GetAssociatedAccount(ixn.Accounts.Signer, ixn.Accounts.Mint)
	if err != nil {
		return errors.Wrap(err, "failed to derive user token account address")
	}
	if !bytes.Equal(expectedUserTokenAccount, ixn.Accounts.UserTokenAccount) {
		return errors.Wrapf(christmas.ErrAddressMismatch, "user token account %s", base58.Encode(ixn.Accounts.UserTokenAccount))
	}

	expectedPoolTokenAccount, err := token.GetAssociatedAccount(expectedPoolAccount, ixn.Accounts.Mint)
	if err != nil {
		return errors.Wrap(err, "failed to derive christmas token account address")
	}
	if !bytes.Equal(expectedPoolTokenAccount, ixn.Accounts.ChristmasTokenAccount) {
		return errors.Wrapf(christmas.ErrAddressMismatch, "christmas token account %s", base58.Encode(ixn.Accounts.ChristmasTokenAccount))
	}

	var (
		userAccountAddress      = base58.Encode(expectedUserAccount)
		poolAccountAddress      = base58.Encode(expectedPoolAccount)
		userTokenAccountAddress = base58.Encode(expectedUserTokenAccount)
		poolTokenAccountAddress = base58.Encode(expectedPoolTokenAccount)
		mintAddress             = base58.Encode(ixn.Accounts.Mint)
		signerAddress           = base58.Encode(ixn.Accounts.Signer)
	)

	err = p.data.ExecuteTransition(ctx, func(tx chain.Transition) error {
		userRecord, userCreated, err := getOrCreateProgramAccount(ctx, tx, userAccountAddress, christmas.UserAccountSize)
		if err != nil {
			return err
		}

		var userState christmas.UserAccount
		if !userCreated {
			if err := userState.Unmarshal(userRecord.Data); err != nil {
				return errors.Wrapf(err, "invalid user account data at %s", userAccountAddress)
			}
		}

		poolRecord, poolCreated, err := getOrCreateProgramAccount(ctx, tx, poolAccountAddress, christmas.ChristmasAccountSize)
		if err != nil {
			return err
		}

		var poolState christmas.ChristmasAccount
		if !poolCreated {
			if err := poolState.Unmarshal(poolRecord.Data); err != nil {
				return errors.Wrapf(err, "invalid christmas account data at %s", poolAccountAddress)
			}
		}

		// The pool mint is pinned by the first contribution
		if poolState.IsInitialized && !bytes.Equal(poolState.Mint, ixn.Accounts.Mint) {
			return errors.Wrapf(christmas.ErrMintMismatch, "pool mint is %s", base58.Encode(poolState.Mint))
		}

		// Reject before any effect when either total would wrap
		if userState.TotalAmountContributed > math.MaxUint64-ixn.Args.Amount {
			return errors.Wrap(christmas.ErrArithmeticOverflow, "user contribution total")
		}
		if poolState.TotalAmountContributed > math.MaxUint64-ixn.Args.Amount {
			return errors.Wrap(christmas.ErrArithmeticOverflow, "pool contribution total")
		}

		if _, err := tx.GetTokenAccount(ctx, poolTokenAccountAddress); err == chain.ErrTokenAccountNotFound {
			if _, err := tx.CreateTokenAccount(ctx, poolTokenAccountAddress, mintAddress, poolAccountAddress); err != nil {
				return errors.Wrap(err, "failed to create christmas token account")
			}
		} else if err != nil {
			return errors.Wrap(err, "failed to get christmas token account")
		}

		if err := tx.Transfer(ctx, userTokenAccountAddress, poolTokenAccountAddress, signerAddress, ixn.Args.Amount); err != nil {
			return errors.Wrap(toProgramError(err), "failed to transfer contribution")
		}

		userState.IsInitialized = true
		userState.TotalAmountContributed += ixn.Args.Amount

		poolState.IsInitialized = true
		poolState.Mint = ixn.Accounts.Mint
		poolState.TotalAmountContributed += ixn.Args.Amount

		userRecord.Data = userState.Marshal()
		if err := tx.PutAccount(ctx, userRecord); err != nil {
			return errors.Wrapf(err, "failed to save user account %s", userAccountAddress)
		}

		poolRecord.Data = poolState.Marshal()
		if err := tx.PutAccount(ctx, poolRecord); err != nil {
			return errors.Wrapf(err, "failed to save christmas account %s", poolAccountAddress)
		}

		return nil
	})
	if err != nil {
		log.WithError(err).Warn("contribution rejected")
		return err
	}
	return nil
}
