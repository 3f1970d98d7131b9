package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
)

type store struct {
	mu            sync.Mutex
	accounts      map[string]*chain.AccountRecord
	mints         map[string]*chain.MintRecord
	tokenAccounts map[string]*chain.TokenAccountRecord
	last          uint64
}

// New returns a new in memory chain.Store
func New() chain.Store {
	return &store{
		accounts:      make(map[string]*chain.AccountRecord),
		mints:         make(map[string]*chain.MintRecord),
		tokenAccounts: make(map[string]*chain.TokenAccountRecord),
	}
}

// GetAccount implements chain.Store.GetAccount
func (s *store) GetAccount(_ context.Context, address string) (*chain.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.accounts[address]; ok {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, chain.ErrAccountNotFound
}

// GetAccountsByDataSize implements chain.Store.GetAccountsByDataSize
func (s *store) GetAccountsByDataSize(_ context.Context, size int) ([]*chain.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*chain.AccountRecord
	for _, item := range s.accounts {
		if len(item.Data) == size {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}
	return res, nil
}

// GetMint implements chain.Store.GetMint
func (s *store) GetMint(_ context.Context, address string) (*chain.MintRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.mints[address]; ok {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, chain.ErrMintNotFound
}

// GetTokenAccount implements chain.Store.GetTokenAccount
func (s *store) GetTokenAccount(_ context.Context, address string) (*chain.TokenAccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.tokenAccounts[address]; ok {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, chain.ErrTokenAccountNotFound
}

// ExecuteTransition implements chain.Store.ExecuteTransition
//
// All writes are staged against copies and merged back only when fn
// succeeds, so a failed transition leaves no partial effects.
func (s *store) ExecuteTransition(_ context.Context, fn func(tx chain.Transition) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transition{
		base:          s,
		accounts:      make(map[string]*chain.AccountRecord),
		mints:         make(map[string]*chain.MintRecord),
		tokenAccounts: make(map[string]*chain.TokenAccountRecord),
	}

	if err := fn(tx); err != nil {
		return err
	}

	for address, item := range tx.accounts {
		s.accounts[address] = item
	}
	for address, item := range tx.mints {
		s.mints[address] = item
	}
	for address, item := range tx.tokenAccounts {
		s.tokenAccounts[address] = item
	}

	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*chain.AccountRecord)
	s.mints = make(map[string]*chain.MintRecord)
	s.tokenAccounts = make(map[string]*chain.TokenAccountRecord)
	s.last = 0
}

type transition struct {
	base          *store
	accounts      map[string]*chain.AccountRecord
	mints         map[string]*chain.MintRecord
	tokenAccounts map[string]*chain.TokenAccountRecord
}

func (t *transition) getStagedAccount(address string) *chain.AccountRecord {
	if item, ok := t.accounts[address]; ok {
		return item
	}
	if item, ok := t.base.accounts[address]; ok {
		cloned := item.Clone()
		t.accounts[address] = &cloned
		return &cloned
	}
	return nil
}

func (t *transition) getStagedMint(address string) *chain.MintRecord {
	if item, ok := t.mints[address]; ok {
		return item
	}
	if item, ok := t.base.mints[address]; ok {
		cloned := item.Clone()
		t.mints[address] = &cloned
		return &cloned
	}
	return nil
}

func (t *transition) getStagedTokenAccount(address string) *chain.TokenAccountRecord {
	if item, ok := t.tokenAccounts[address]; ok {
		return item
	}
	if item, ok := t.base.tokenAccounts[address]; ok {
		cloned := item.Clone()
		t.tokenAccounts[address] = &cloned
		return &cloned
	}
	return nil
}

// GetAccount implements chain.Transition.GetAccount
func (t *transition) GetAccount(_ context.Context, address string) (*chain.AccountRecord, error) {
	if item := t.getStagedAccount(address); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, chain.ErrAccountNotFound
}

// CreateAccount implements chain.Transition.CreateAccount
func (t *transition) CreateAccount(_ context.Context, address string, size int) (*chain.AccountRecord, error) {
	if item := t.getStagedAccount(address); item != nil {
		return nil, chain.ErrAccountExists
	}

	t.base.last++
	record := &chain.AccountRecord{
		Id:            t.base.last,
		Address:       address,
		Data:          make([]byte, size),
		LastUpdatedAt: time.Now(),
	}
	t.accounts[address] = record

	cloned := record.Clone()
	return &cloned, nil
}

// PutAccount implements chain.Transition.PutAccount
func (t *transition) PutAccount(_ context.Context, record *chain.AccountRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	item := t.getStagedAccount(record.Address)
	if item == nil {
		return chain.ErrAccountNotFound
	}
	if len(item.Data) != len(record.Data) {
		return chain.ErrInvalidAccountSize
	}

	item.Data = make([]byte, len(record.Data))
	copy(item.Data, record.Data)
	item.LastUpdatedAt = time.Now()
	item.CopyTo(record)

	return nil
}

// GetMint implements chain.Transition.GetMint
func (t *transition) GetMint(_ context.Context, address string) (*chain.MintRecord, error) {
	if item := t.getStagedMint(address); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, chain.ErrMintNotFound
}

// CreateMint implements chain.Transition.CreateMint
func (t *transition) CreateMint(_ context.Context, address, authority string, decimals uint8) (*chain.MintRecord, error) {
	if item := t.getStagedMint(address); item != nil {
		return nil, chain.ErrMintExists
	}

	t.base.last++
	record := &chain.MintRecord{
		Id:            t.base.last,
		Address:       address,
		Authority:     authority,
		Decimals:      decimals,
		LastUpdatedAt: time.Now(),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	t.mints[address] = record

	cloned := record.Clone()
	return &cloned, nil
}

// GetTokenAccount implements chain.Transition.GetTokenAccount
func (t *transition) GetTokenAccount(_ context.Context, address string) (*chain.TokenAccountRecord, error) {
	if item := t.getStagedTokenAccount(address); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, chain.ErrTokenAccountNotFound
}

// CreateTokenAccount implements chain.Transition.CreateTokenAccount
func (t *transition) CreateTokenAccount(_ context.Context, address, mint, owner string) (*chain.TokenAccountRecord, error) {
	if item := t.getStagedTokenAccount(address); item != nil {
		return nil, chain.ErrTokenAccountExists
	}
	if t.getStagedMint(mint) == nil {
		return nil, chain.ErrMintNotFound
	}

	t.base.last++
	record := &chain.TokenAccountRecord{
		Id:            t.base.last,
		Address:       address,
		Mint:          mint,
		Owner:         owner,
		LastUpdatedAt: time.Now(),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	t.tokenAccounts[address] = record

	cloned := record.Clone()
	return &cloned, nil
}

// MintTo implements chain.Transition.MintTo
func (t *transition) MintTo(_ context.Context, tokenAccount, authority string, amount uint64) error {
	account := t.getStagedTokenAccount(tokenAccount)
	if account == nil {
		return chain.ErrTokenAccountNotFound
	}

	mint := t.getStagedMint(account.Mint)
	if mint == nil {
		return chain.ErrMintNotFound
	}
	if mint.Authority != authority {
		return chain.ErrUnauthorized
	}
	if mint.Supply > math.MaxUint64-amount {
		return chain.ErrSupplyOverflow
	}

	mint.Supply += amount
	mint.LastUpdatedAt = time.Now()
	account.Amount += amount
	account.LastUpdatedAt = time.Now()

	return nil
}

// Transfer implements chain.Transition.Transfer
func (t *transition) Transfer(_ context.Context, source, dest, authority string, amount uint64) error {
	sourceAccount := t.getStagedTokenAccount(source)
	if sourceAccount == nil {
		return chain.ErrTokenAccountNotFound
	}
	destAccount := t.getStagedTokenAccount(dest)
	if destAccount == nil {
		return chain.ErrTokenAccountNotFound
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

	sourceAccount.Amount -= amount
	sourceAccount.LastUpdatedAt = time.Now()
	destAccount.Amount += amount
	destAccount.LastUpdatedAt = time.Now()

	return nil
}
