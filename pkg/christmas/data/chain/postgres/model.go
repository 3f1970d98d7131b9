package postgres

import (
	"database/sql"
	"time"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
)

const (
	programAccountTableName = "christmas__core_programaccount"
	mintTableName           = "christmas__core_mint"
	tokenAccountTableName   = "christmas__core_tokenaccount"
)

type accountModel struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Data    []byte `db:"data"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func fromAccountModel(obj *accountModel) *chain.AccountRecord {
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)

	return &chain.AccountRecord{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Data:    data,

		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

type mintModel struct {
	Id sql.NullInt64 `db:"id"`

	Address   string `db:"address"`
	Authority string `db:"authority"`
	Supply    uint64 `db:"supply"`
	Decimals  uint8  `db:"decimals"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func fromMintModel(obj *mintModel) *chain.MintRecord {
	return &chain.MintRecord{
		Id: uint64(obj.Id.Int64),

		Address:   obj.Address,
		Authority: obj.Authority,
		Supply:    obj.Supply,
		Decimals:  obj.Decimals,

		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

type tokenAccountModel struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Mint    string `db:"mint"`
	Owner   string `db:"owner"`
	Amount  uint64 `db:"amount"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func fromTokenAccountModel(obj *tokenAccountModel) *chain.TokenAccountRecord {
	return &chain.TokenAccountRecord{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Mint:    obj.Mint,
		Owner:   obj.Owner,
		Amount:  obj.Amount,

		LastUpdatedAt: obj.LastUpdatedAt,
	}
}
