package processor

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
	"github.com/christmas-web3/christmas-server/pkg/solana"
	"github.com/christmas-web3/christmas-server/pkg/solana/christmas"
)

// Processor executes program instructions as atomic state transitions
// against a chain.Store. Each instruction is re-validated from scratch:
// every caller-supplied address is checked against its re-derivation and
// every signature requirement is enforced before any effect is applied.
//
// The processor holds no mutable state of its own. Serialization of
// transitions that touch the same accounts is the store's responsibility.
type Processor struct {
	log  *logrus.Entry
	data chain.Store
}

// New returns a new Processor backed by the provided chain state store.
func New(data chain.Store) *Processor {
	return &Processor{
		log:  logrus.StandardLogger().WithField("type", "christmas/processor"),
		data: data,
	}
}

// Process dispatches an instruction to its handler by method discriminator.
func (p *Processor) Process(ctx context.Context, ixn solana.Instruction) error {
	if !bytes.Equal(ixn.Program, christmas.PROGRAM_ADDRESS) {
		return christmas.ErrInvalidProgram
	}
	if len(ixn.Data) < 8 {
		return christmas.ErrInvalidInstructionData
	}

	switch {
	case bytes.HasPrefix(ixn.Data, christmas.SayHelloInstructionDiscriminator):
		// No accounts, no effects.
		return christmas.DecompileSayHello(ixn)
	case bytes.HasPrefix(ixn.Data, christmas.AddToPoolInstructionDiscriminator):
		decompiled, err := christmas.DecompileAddToPool(ixn)
		if err != nil {
			return err
		}
		return p.AddToPool(ctx, decompiled)
	case bytes.HasPrefix(ixn.Data, christmas.MintTokenToMarketplaceInstructionDiscriminator):
		decompiled, err := christmas.DecompileMintTokenToMarketplace(ixn)
		if err != nil {
			return err
		}
		return p.MintTokenToMarketplace(ctx, decompiled)
	case bytes.HasPrefix(ixn.Data, christmas.ClaimTokenFromMarketInstructionDiscriminator):
		decompiled, err := christmas.DecompileClaimTokenFromMarket(ixn)
		if err != nil {
			return err
		}
		return p.ClaimTokenFromMarket(ctx, decompiled)
	default:
		return solana.ErrIncorrectInstruction
	}
}

// ListMarketplaceTokens returns every marketplace token record owned by the
// program, in no particular order. An empty marketplace is a valid result.
func (p *Processor) ListMarketplaceTokens(ctx context.Context) ([]*christmas.MarketplaceTokenAccount, error) {
	log := p.log.WithField("method", "ListMarketplaceTokens")

	// The filter constant is derived from the schema definition, so the
	// scan cannot drift from the record layout.
	records, err := p.data.GetAccountsByDataSize(ctx, christmas.MarketplaceTokenAccountSize)
	if err != nil {
		log.WithError(err).Warn("failure scanning program accounts")
		return nil, errors.Wrap(err, "failed to scan program accounts")
	}

	res := make([]*christmas.MarketplaceTokenAccount, 0, len(records))
	for _, record := range records {
		var account christmas.MarketplaceTokenAccount
		if err := account.Unmarshal(record.Data); err != nil {
			// Same byte size, different record type
			continue
		}
		res = append(res, &account)
	}
	return res, nil
}

// toProgramError maps store-level failures onto the program's error kinds.
func toProgramError(err error) error {
	switch errors.Cause(err) {
	case chain.ErrInsufficientFunds:
		return christmas.ErrInsufficientFunds
	case chain.ErrUnauthorized:
		return christmas.ErrUnauthorized
	case chain.ErrMintMismatch:
		return christmas.ErrMintMismatch
	case chain.ErrSupplyOverflow:
		return christmas.ErrArithmeticOverflow
	default:
		return err
	}
}

// getOrCreateProgramAccount fetches a program account's record inside a
// transition, lazily creating it with zeroed data when absent. The bool
// result indicates whether the account was just created.
func getOrCreateProgramAccount(ctx context.Context, tx chain.Transition, address string, size int) (*chain.AccountRecord, bool, error) {
	record, err := tx.GetAccount(ctx, address)
	if err == chain.ErrAccountNotFound {
		record, err = tx.CreateAccount(ctx, address, size)
		if err != nil {
			return nil, false, errors.Wrapf(err, "failed to create account %s", address)
		}
		return record, true, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get account %s", address)
	}
	return record, false, nil
}
