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

// ClaimTokenFromMarket moves listed tokens out of a marketplace custody
// account into the claimant's token account. The claimant signs alone, and
// authorization comes from the marketplace record itself: the record's
// derived address is the custody account's owner, so the transfer can only
// be sourced from the vault the record controls.
//
// The record's stored (owner, mint) pair must re-derive to the supplied
// record address, and every token account is re-derived from the record's
// mint. A claim for more than the vault holds fails without effect.
func (p *Processor) ClaimTokenFromMarket(ctx context.Context, ixn *christmas.DecompiledClaimTokenFromMarket) error {
	log := p.log.WithFields(logrus.Fields{
		"method":   "ClaimTokenFromMarket",
		"claimant": base58.Encode(ixn.Accounts.Signer),
		"amount":   ixn.Args.Amount,
	})

	if ixn.Args.Amount == 0 {
		return errors.Wrap(christmas.ErrInvalidArgument, "amount must be positive")
	}
	if !ixn.IsSignedByClaimant {
		return errors.Wrapf(christmas.ErrUnauthorized, "claimant %s did not sign", base58.Encode(ixn.Accounts.Signer))
	}

	var (
		recordAddress   = base58.Encode(ixn.Accounts.MarketplaceTokenAccount)
		claimantAddress = base58.Encode(ixn.Accounts.Signer)
	)

	err := p.data.ExecuteTransition(ctx, func(tx chain.Transition) error {
		record, err := tx.GetAccount(ctx, recordAddress)
		if err != nil {
			return errors.Wrapf(err, "failed to get marketplace token account %s", recordAddress)
		}

		var state christmas.MarketplaceTokenAccount
		if err := state.Unmarshal(record.Data); err != nil {
			return errors.Wrapf(err, "invalid marketplace token data at %s", recordAddress)
		}

		expectedRecordAccount, _, err := christmas.GetMarketplaceTokenAddress(&christmas.GetMarketplaceTokenAddressArgs{
			Owner: state.Owner,
			Mint:  state.Mint,
		})
		if err != nil {
			return errors.Wrap(err, "failed to derive marketplace token address")
		}
		if !bytes.Equal(expectedRecordAccount, ixn.Accounts.MarketplaceTokenAccount) {
			return errors.Wrapf(christmas.ErrAddressMismatch, "marketplace token account %s", recordAddress)
		}

		if !bytes.Equal(state.Mint, ixn.Accounts.Mint) {
			return errors.Wrapf(christmas.ErrMintMismatch, "listing mint is %s", base58.Encode(state.Mint))
		}

		expectedVault, err := token.GetAssociatedAccount(expectedRecordAccount, state.Mint)
		if err != nil {
			return errors.Wrap(err, "failed to derive custody token account address")
		}
		if !bytes.Equal(expectedVault, ixn.Accounts.MarketplaceTokenVault) {
			return errors.Wrapf(christmas.ErrAddressMismatch, "custody token account %s", base58.Encode(ixn.Accounts.MarketplaceTokenVault))
		}

		expectedDestination, err := token.GetAssociatedAccount(ixn.Accounts.Signer, state.Mint)
		if err != nil {
			return errors.Wrap(err, "failed to derive claimant token account address")
		}
		if !bytes.Equal(expectedDestination, ixn.Accounts.ToTokenAccount) {
			return errors.Wrapf(christmas.ErrAddressMismatch, "claimant token account %s", base58.Encode(ixn.Accounts.ToTokenAccount))
		}

		var (
			vaultAddress       = base58.Encode(expectedVault)
			destinationAddress = base58.Encode(expectedDestination)
			mintAddress        = base58.Encode(state.Mint)
		)

		if _, err := tx.GetTokenAccount(ctx, destinationAddress); err == chain.ErrTokenAccountNotFound {
			if _, err := tx.CreateTokenAccount(ctx, destinationAddress, mintAddress, claimantAddress); err != nil {
				return errors.Wrap(err, "failed to create claimant token account")
			}
		} else if err != nil {
			return errors.Wrap(err, "failed to get claimant token account")
		}

		if err := tx.Transfer(ctx, vaultAddress, destinationAddress, recordAddress, ixn.Args.Amount); err != nil {
			return errors.Wrap(toProgramError(err), "failed to transfer claim")
		}

		return nil
	})
	if err != nil {
		log.WithError(err).Warn("claim rejected")
		return err
	}
	return nil
}
