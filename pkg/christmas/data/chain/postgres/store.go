package postgres

import (
	"context"
	"database/sql"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
	pgutil "github.com/christmas-web3/christmas-server/pkg/database/postgres"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres chain.Store
func New(db *sql.DB) chain.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// GetAccount implements chain.Store.GetAccount
func (s *store) GetAccount(ctx context.Context, address string) (*chain.AccountRecord, error) {
	var res accountModel
	query := `SELECT id, address, data, last_updated_at FROM ` + programAccountTableName + `
		WHERE address = $1`
	err := s.db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, chain.ErrAccountNotFound)
	}
	return fromAccountModel(&res), nil
}

// GetAccountsByDataSize implements chain.Store.GetAccountsByDataSize
func (s *store) GetAccountsByDataSize(ctx context.Context, size int) ([]*chain.AccountRecord, error) {
	var rows []*accountModel
	query := `SELECT id, address, data, last_updated_at FROM ` + programAccountTableName + `
		WHERE octet_length(data) = $1`
	err := s.db.SelectContext(ctx, &rows, query, size)
	if err != nil && !pgutil.IsNoRows(err) {
		return nil, err
	}

	res := make([]*chain.AccountRecord, 0, len(rows))
	for _, row := range rows {
		res = append(res, fromAccountModel(row))
	}
	return res, nil
}

// GetMint implements chain.Store.GetMint
func (s *store) GetMint(ctx context.Context, address string) (*chain.MintRecord, error) {
	var res mintModel
	query := `SELECT id, address, authority, supply, decimals, last_updated_at FROM ` + mintTableName + `
		WHERE address = $1`
	err := s.db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, chain.ErrMintNotFound)
	}
	return fromMintModel(&res), nil
}

// GetTokenAccount implements chain.Store.GetTokenAccount
func (s *store) GetTokenAccount(ctx context.Context, address string) (*chain.TokenAccountRecord, error) {
	var res tokenAccountModel
	query := `SELECT id, address, mint, owner, amount, last_updated_at FROM ` + tokenAccountTableName + `
		WHERE address = $1`
	err := s.db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, chain.ErrTokenAccountNotFound)
	}
	return fromTokenAccountModel(&res), nil
}

// ExecuteTransition implements chain.Store.ExecuteTransition
//
// The transition maps directly onto a DB transaction, so a failed fn rolls
// every staged effect back.
func (s *store) ExecuteTransition(ctx context.Context, fn func(tx chain.Transition) error) error {
	return pgutil.ExecuteInTx(ctx, s.db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		return fn(&transition{tx: tx})
	})
}

type transition struct {
	tx *sqlx.Tx
}

func (t *transition) getAccountForUpdate(ctx context.Context, address string) (*accountModel, error) {
	var res accountModel
	query := `SELECT id, address, data, last_updated_at FROM ` + programAccountTableName + `
		WHERE address = $1
		FOR UPDATE`
	err := t.tx.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, chain.ErrAccountNotFound)
	}
	return &res, nil
}

// GetAccount implements chain.Transition.GetAccount
func (t *transition) GetAccount(ctx context.Context, address string) (*chain.AccountRecord, error) {
	model, err := t.getAccountForUpdate(ctx, address)
	if err != nil {
		return nil, err
	}
	return fromAccountModel(model), nil
}

// CreateAccount implements chain.Transition.CreateAccount
func (t *transition) CreateAccount(ctx context.Context, address string, size int) (*chain.AccountRecord, error) {
	var res accountModel
	query := `INSERT INTO ` + programAccountTableName + `
		(address, data, last_updated_at)
		VALUES ($1, $2, NOW())
		RETURNING id, address, data, last_updated_at`
	err := t.tx.GetContext(ctx, &res, query, address, make([]byte, size))
	if err != nil {
		return nil, pgutil.CheckUniqueViolation(err, chain.ErrAccountExists)
	}
	return fromAccountModel(&res), nil
}

// PutAccount implements chain.Transition.PutAccount
func (t *transition) PutAccount(ctx context.Context, record *chain.AccountRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	existing, err := t.getAccountForUpdate(ctx, record.Address)
	if err != nil {
		return err
	}
	if len(existing.Data) != len(record.Data) {
		return chain.ErrInvalidAccountSize
	}

	var res accountModel
	query := `UPDATE ` + programAccountTableName + `
		SET data = $2, last_updated_at = NOW()
		WHERE address = $1
		RETURNING id, address, data, last_updated_at`
	err = t.tx.GetContext(ctx, &res, query, record.Address, record.Data)
	if err != nil {
		return err
	}

	fromAccountModel(&res).CopyTo(record)
	return nil
}

func (t *transition) getMintForUpdate(ctx context.Context, address string) (*mintModel, error) {
	var res mintModel
	query := `SELECT id, address, authority, supply, decimals, last_updated_at FROM ` + mintTableName + `
		WHERE address = $1
		FOR UPDATE`
	err := t.tx.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, chain.ErrMintNotFound)
	}
	return &res, nil
}

// GetMint implements chain.Transition.GetMint
func (t *transition) GetMint(ctx context.Context, address string) (*chain.MintRecord, error) {
	model, err := t.getMintForUpdate(ctx, address)
	if err != nil {
		return nil, err
	}
	return fromMintModel(model), nil
}

// CreateMint implements chain.Transition.CreateMint
func (t *transition) CreateMint(ctx context.Context, address, authority string, decimals uint8) (*chain.MintRecord, error) {
	var res mintModel
	query := `INSERT INTO ` + mintTableName + `
		(address, authority, supply, decimals, last_updated_at)
		VALUES ($1, $2, 0, $3, NOW())
		RETURNING id, address, authority, supply, decimals, last_updated_at`
	err := t.tx.GetContext(ctx, &res, query, address, authority, decimals)
	if err != nil {
		return nil, pgutil.CheckUniqueViolation(err, chain.ErrMintExists)
	}
	return fromMintModel(&res), nil
}

func (t *transition) getTokenAccountForUpdate(ctx context.Context, address string) (*tokenAccountModel, error) {
	var res tokenAccountModel
	query := `SELECT id, address, mint, owner, amount, last_updated_at FROM ` + tokenAccountTableName + `
		WHERE address = $1
		FOR UPDATE`
	err := t.tx.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, chain.ErrTokenAccountNotFound)
	}
	return &res, nil
}

// GetTokenAccount implements chain.Transition.GetTokenAccount
func (t *transition) GetTokenAccount(ctx context.Context, address string) (*chain.TokenAccountRecord, error) {
	model, err := t.getTokenAccountForUpdate(ctx, address)
	if err != nil {
		return nil, err
	}
	return fromTokenAccountModel(model), nil
}

// CreateTokenAccount implements chain.Transition.CreateTokenAccount
func (t *transition) CreateTokenAccount(ctx context.Context, address, mint, owner string) (*chain.TokenAccountRecord, error) {
	if _, err := t.getMintForUpdate(ctx, mint); err != nil {
		return nil, err
	}

	var res tokenAccountModel
	query := `INSERT INTO ` + tokenAccountTableName + `
		(address, mint, owner, amount, last_updated_at)
		VALUES ($1, $2, $3, 0, NOW())
		RETURNING id, address, mint, owner, amount, last_updated_at`
	err := t.tx.GetContext(ctx, &res, query, address, mint, owner)
	if err != nil {
		return nil, pgutil.CheckUniqueViolation(err, chain.ErrTokenAccountExists)
	}
	return fromTokenAccountModel(&res), nil
}

// MintTo implements chain.Transition.MintTo
func (t *transition) MintTo(ctx context.Context, tokenAccount, authority string, amount uint64) error {
	account, err := t.getTokenAccountForUpdate(ctx, tokenAccount)
	if err != nil {
		return err
	}

	mint, err := t.getMintForUpdate(ctx, account.Mint)
	if err != nil {
		return err
	}
	if mint.Authority != authority {
		return chain.ErrUnauthorized
	}
	if mint.Supply > math.MaxUint64-amount {
		return chain.ErrSupplyOverflow
	}

	query := `UPDATE ` + mintTableName + `
		SET supply = $2, last_updated_at = NOW()
		WHERE address = $1`
	if _, err := t.tx.ExecContext(ctx, query, mint.Address, mint.Supply+amount); err != nil {
		return err
	}

	query = `UPDATE ` + tokenAccountTableName + `
		SET amount = $2, last_updated_at = NOW()
		WHERE address = $1`
	if _, err := t.tx.ExecContext(ctx, query, account.Address, account.Amount+amount); err != nil {
		return err
	}

	return nil
}

// Transfer implements chain.Transition.Transfer
func (t *transition) Transfer(ctx context.Context, source, dest, authority string, amount uint64) error {
	sourceAccount, err := t.getTokenAccountForUpdate(ctx, source)
	if err != nil {
		return err
	}
	destAccount, err := t.getTokenAccountForUpdate(ctx, dest)
	if err != nil {
		return err
	}

	if sourceAccount.Owner != authority {
		return chain.ErrUnauthorized
	}
	if sourceAccount.Mint != destAccount.Mint {
		return chain.ErrMintMismatch
	}
	if sourceAccount.Amount < amount {
		return chain.ErrInsufficientFunds
	}
	if destAccount.Amount > math.MaxUint64-amount {
		return chain.ErrSupplyOverflow
	}

	query := `UPDATE ` + tokenAccountTableName + `
		SET amount = $2, last_updated_at = NOW()
		WHERE address = $1`
	if _, err := t.tx.ExecContext(ctx, query, sourceAccount.Address, sourceAccount.Amount-amount); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, query, destAccount.Address, destAccount.Amount+amount); err != nil {
		return err
	}

	return nil
}
