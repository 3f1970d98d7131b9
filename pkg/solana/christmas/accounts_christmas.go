package christmas

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	ChristmasAccountSize = (8 + // discriminator
		1 + // is_initialized
		32 + // mint
		8) // total_amount_contributed
)

var ChristmasAccountDiscriminator = accountDiscriminator("ChristmasAccount")

// ChristmasAccount is the singleton pool record. The mint is pinned by the
// first contribution and immutable afterwards, and the contribution total is
// the sum of every user's total at all times.
type ChristmasAccount struct {
	IsInitialized          bool
	Mint                   ed25519.PublicKey
	TotalAmountContributed uint64
}

func (obj *ChristmasAccount) Marshal() []byte {
	data := make([]byte, ChristmasAccountSize)

	var offset int
	putDiscriminator(data, ChristmasAccountDiscriminator, &offset)
	putBool(data, obj.IsInitialized, &offset)
	putKey(data, obj.Mint, &offset)
	putUint64(data, obj.TotalAmountContributed, &offset)

	return data
}

func (obj *ChristmasAccount) Unmarshal(data []byte) error {
	if len(data) != ChristmasAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, ChristmasAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getBool(data, &obj.IsInitialized, &offset)
	getKey(data, &obj.Mint, &offset)
	getUint64(data, &obj.TotalAmountContributed, &offset)

	return nil
}

func (obj *ChristmasAccount) String() string {
	return fmt.Sprintf(
		"ChristmasAccount{is_initialized=%v,mint=%s,total_amount_contributed=%d}",
		obj.IsInitialized,
		base58.Encode(obj.Mint),
		obj.TotalAmountContributed,
	)
}
