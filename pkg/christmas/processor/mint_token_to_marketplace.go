package processor

import (
	"bytes"
	"context"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
	"github.com/christmas-web3/christmas-server/pkg/solana/christmas"
	"github.com/christmas-web3/christmas-server/pkg/solana/token"
)

// MintTokenToMarketplace lists a new token on the marketplace. The full
// supply is minted into a custody account owned by the marketplace record's
// derived address, and the record itself pins the (owner, mint) pair, the
// canonical bump and the listing description. At most one record can ever
// exist per (owner, mint) pair.
//
// Both the user and the mint must sign, so a listing can only be made by
// whoever controls the fresh mint keypair.
func (p *Processor) MintTokenToMarketplace(ctx context.Context, ixn *christmas.DecompiledMintTokenToMarketplace) error {
	log := p.log.WithFields(logrus.Fields{
		"method":     "MintTokenToMarketplace",
		"signer":     base58.Encode(ixn.Accounts.Signer),
		"mint":       base58.Encode(ixn.Accounts.Mint),
		"num_tokens": ixn.Args.NumTokens,
	})

	if ixn.Args.NumTokens == 0 {
		return errors.Wrap(christmas.ErrInvalidArgument, "num_tokens must be positive")
	}
	if !ixn.IsSignedByUser {
		return errors.Wrapf(christmas.ErrUnauthorized, "user %s did not sign", base58.Encode(ixn.Accounts.Signer))
	}
	if !ixn.IsSignedByMint {
		return errors.Wrapf(christmas.ErrUnauthorized, "mint %s did not sign", base58.Encode(ixn.Accounts.Mint))
	}

	expectedRecordAccount, bump, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
		Owner: ixn.Accounts.Signer,
		Mint:  ixn.Accounts.Mint,
	})
	if err != nil {
		return errors.Wrap(err, "failed to derive marketplace token address")
	}
	if !bytes.Equal(expectedRecordAccount, ixn.Accounts.MarketplaceTokenAccount) {
		return errors.Wrapf(christmas.ErrAddressMismatch, "marketplace token account %s", base58.Encode(ixn.Accounts.MarketplaceTokenAccount))
	}
	if ixn.Args.Bump != bump {
		return errors.Wrapf(christmas.ErrBumpMismatch, "canonical bump is %d", bump)
	}

	expectedVault, err := token.GetAssociatedAccount(expectedRecordAccount, ixn.Accounts.Mint)
	if err != nil {
		return errors.Wrap(err, "failed to derive custody token account address")
	}
	if !bytes.Equal(expectedVault, ixn.Accounts.TokenAccount) {
		return errors.Wrapf(christmas.ErrAddressMismatch, "custody token account %s", base58.Encode(ixn.Accounts.TokenAccount))
	}

	state := &christmas.MarketplaceTokenAccount{
		Owner:       ixn.Accounts.Signer,
		Mint:        ixn.Accounts.Mint,
		Bump:        bump,
		Description: ixn.Args.Description,
	}
	data, err := state.Marshal()
	if err != nil {
		return err
	}

	var (
		recordAddress = base58.Encode(expectedRecordAccount)
		vaultAddress  = base58.Encode(expectedVault)
		mintAddress   = base58.Encode(ixn.Accounts.Mint)
		signerAddress = base58.Encode(ixn.Accounts.Signer)
	)

	err = p.data.ExecuteTransition(ctx, func(tx chain.Transition) error {
		if _, err := tx.GetAccount(ctx, recordAddress); err == nil {
			return errors.Wrapf(christmas.ErrDuplicateRecord, "marketplace token account %s", recordAddress)
		} else if err != chain.ErrAccountNotFound {
			return errors.Wrap(err, "failed to get marketplace token account")
		}

		if _, err := tx.GetMint(ctx, mintAddress); err == chain.ErrMintNotFound {
			if _, err := tx.CreateMint(ctx, mintAddress, signerAddress, 0); err != nil {
				return errors.Wrapf(err, "failed to create mint %s", mintAddress)
			}
		} else if err != nil {
			return errors.Wrap(err, "failed to get mint")
		}

		if _, err := tx.GetTokenAccount(ctx, vaultAddress); err == chain.ErrTokenAccountNotFound {
			if _, err := tx.CreateTokenAccount(ctx, vaultAddress, mintAddress, recordAddress); err != nil {
				return errors.Wrap(err, "failed to create custody token account")
			}
		} else if err != nil {
			return errors.Wrap(err, "failed to get custody token account")
		}

		if err := tx.MintTo(ctx, vaultAddress, signerAddress, ixn.Args.NumTokens); err != nil {
			return errors.Wrap(toProgramError(err), "failed to mint supply to custody account")
		}

		record, err := tx.CreateAccount(ctx, recordAddress, christmas.MarketplaceTokenAccountSize)
		if err != nil {
			return errors.Wrapf(err, "failed to create marketplace token account %s", recordAddress)
		}

		record.Data = data
		if err := tx.PutAccount(ctx, record); err != nil {
			return errors.Wrapf(err, "failed to save marketplace token account %s", recordAddress)
		}

		return nil
	})
	if err != nil {
		log.WithError(err).Warn("listing rejected")
		return err
	}
	return nil
}
