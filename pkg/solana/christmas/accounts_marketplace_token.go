package christmas

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// MaxDescriptionLength bounds the description so every record serializes to
// exactly MarketplaceTokenAccountSize bytes, which is what the marketplace
// listing scan filters on.
const MaxDescriptionLength = 50

const (
	MarketplaceTokenAccountSize = (8 + // discriminator
		32 + // owner
		32 + // mint
		1 + // bump
		4 + // description length
		MaxDescriptionLength) // description
)

var MarketplaceTokenAccountDiscriminator = accountDiscriminator("MarketPlaceTokenPDA")

// MarketplaceTokenAccount records a token listed on the marketplace. It is
// unique per (owner, mint) pair and its address must equal the derivation
// from those two keys, with the stored bump being the canonical one.
type MarketplaceTokenAccount struct {
	Owner       ed25519.PublicKey
	Mint        ed25519.PublicKey
	Bump        uint8
	Description string
}

func (obj *MarketplaceTokenAccount) Marshal() ([]byte, error) {
	if len(obj.Description) > MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}

	data := make([]byte, MarketplaceTokenAccountSize)

	var offset int
	putDiscriminator(data, MarketplaceTokenAccountDiscriminator, &offset)
	putKey(data, obj.Owner, &offset)
	putKey(data, obj.Mint, &offset)
	putUint8(data, obj.Bump, &offset)
	putString(data, obj.Description, &offset)

	return data, nil
}

func (obj *MarketplaceTokenAccount) Unmarshal(data []byte) error {
	if len(data) != MarketplaceTokenAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, MarketplaceTokenAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Owner, &offset)
	getKey(data, &obj.Mint, &offset)
	getUint8(data, &obj.Bump, &offset)

	var length uint32
	getUint32(data, &length, &offset)
	if length > MaxDescriptionLength {
		return ErrInvalidAccountData
	}
	obj.Description = string(data[offset : offset+int(length)])

	return nil
}

func (obj *MarketplaceTokenAccount) String() string {
	return fmt.Sprintf(
		"MarketplaceTokenAccount{owner=%s,mint=%s,bump=%d,description=%s}",
		base58.Encode(obj.Owner),
		base58.Encode(obj.Mint),
		obj.Bump,
		obj.Description,
	)
}
