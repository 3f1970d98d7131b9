package christmas

import (
	"bytes"
	"fmt"
)

const (
	UserAccountSize = (8 + // discriminator
		1 + // is_initialized
		8) // total_amount_contributed
)

var UserAccountDiscriminator = accountDiscriminator("UserAccount")

// UserAccount tracks a single user's lifetime contribution to the pool. It
// lives at a derived address keyed by the user's public key and is created
// lazily by the first contribution.
type UserAccount struct {
	IsInitialized          bool
	TotalAmountContributed uint64
}

func (obj *UserAccount) Marshal() []byte {
	data := make([]byte, UserAccountSize)

	var offset int
	putDiscriminator(data, UserAccountDiscriminator, &offset)
	putBool(data, obj.IsInitialized, &offset)
	putUint64(data, obj.TotalAmountContributed, &offset)

	return data
}

func (obj *UserAccount) Unmarshal(data []byte) error {
	if len(data) != UserAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, UserAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getBool(data, &obj.IsInitialized, &offset)
	getUint64(data, &obj.TotalAmountContributed, &offset)

	return nil
}

func (obj *UserAccount) String() string {
	return fmt.Sprintf(
		"UserAccount{is_initialized=%v,total_amount_contributed=%d}",
		obj.IsInitialized,
		obj.TotalAmountContributed,
	)
}
