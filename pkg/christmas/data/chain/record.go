package chain

import (
	"errors"
	"time"
)

// AccountRecord holds the raw bytes of a program-owned account at a derived
// address. The data size is fixed at creation time.
type AccountRecord struct {
	Id uint64

	Address string
	Data    []byte

	LastUpdatedAt time.Time
}

func (r *AccountRecord) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}
	if len(r.Data) == 0 {
		return errors.New("data is required")
	}
	return nil
}

func (r *AccountRecord) Clone() AccountRecord {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)

	return AccountRecord{
		Id: r.Id,

		Address: r.Address,
		Data:    data,

		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *AccountRecord) CopyTo(dst *AccountRecord) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Data = make([]byte, len(r.Data))
	copy(dst.Data, r.Data)

	dst.LastUpdatedAt = r.LastUpdatedAt
}

// MintRecord tracks a token mint and its outstanding supply.
type MintRecord struct {
	Id uint64

	Address   string
	Authority string
	Supply    uint64
	Decimals  uint8

	LastUpdatedAt time.Time
}

func (r *MintRecord) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}
	if len(r.Authority) == 0 {
		return errors.New("authority is required")
	}
	return nil
}

func (r *MintRecord) Clone() MintRecord {
	return MintRecord{
		Id: r.Id,

		Address:   r.Address,
		Authority: r.Authority,
		Supply:    r.Supply,
		Decimals:  r.Decimals,

		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *MintRecord) CopyTo(dst *MintRecord) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Authority = r.Authority
	dst.Supply = r.Supply
	dst.Decimals = r.Decimals

	dst.LastUpdatedAt = r.LastUpdatedAt
}

// TokenAccountRecord tracks a token balance held by an owner, which may be a
// program derived address acting as a custody authority.
type TokenAccountRecord struct {
	Id uint64

	Address string
	Mint    string
	Owner   string
	Amount  uint64

	LastUpdatedAt time.Time
}

func (r *TokenAccountRecord) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}
	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}
	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}
	return nil
}

func (r *TokenAccountRecord) Clone() TokenAccountRecord {
	return TokenAccountRecord{
		Id: r.Id,

		Address: r.Address,
		Mint:    r.Mint,
		Owner:   r.Owner,
		Amount:  r.Amount,

		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *TokenAccountRecord) CopyTo(dst *TokenAccountRecord) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Mint = r.Mint
	dst.Owner = r.Owner
	dst.Amount = r.Amount

	dst.LastUpdatedAt = r.LastUpdatedAt
}
