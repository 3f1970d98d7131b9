package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain"
)

func RunTests(t *testing.T, s chain.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s chain.Store){
		testProgramAccountHappyPath,
		testProgramAccountDataSizeScan,
		testTokenHappyPath,
		testTransferFailures,
		testTransitionRollback,
	} {
		tf(t, s)
		teardown()
	}
}

func testProgramAccountHappyPath(t *testing.T, s chain.Store) {
	t.Run("testProgramAccountHappyPath", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAccount(ctx, "account")
		assert.Equal(t, chain.ErrAccountNotFound, err)

		require.NoError(t, s.ExecuteTransition(ctx, func(tx chain.Transition) error {
			record, err := tx.CreateAccount(ctx, "account", 16)
			require.NoError(t, err)
			assert.Equal(t, "account", record.Address)
			assert.Equal(t, make([]byte, 16), record.Data)

			_, err = tx.CreateAccount(ctx, "account", 16)
			assert.Equal(t, chain.ErrAccountExists, err)

			record.Data = []byte("too short")
			assert.Equal(t, chain.ErrInvalidAccountSize, tx.PutAccount(ctx, record))

			record.Data = []byte("exactly 16 bytes")
			require.NoError(t, tx.PutAccount(ctx, record))

			return nil
		}))

		actual, err := s.GetAccount(ctx, "account")
		require.NoError(t, err)
		assert.Equal(t, "account", actual.Address)
		assert.Equal(t, []byte("exactly 16 bytes"), actual.Data)
		assert.True(t, actual.Id > 0)
	})
}

func testProgramAccountDataSizeScan(t *testing.T, s chain.Store) {
	t.Run("testProgramAccountDataSizeScan", func(t *testing.T) {
		ctx := context.Background()

		// No records is a valid, non-error outcome.
		records, err := s.GetAccountsByDataSize(ctx, 127)
		require.NoError(t, err)
		assert.Empty(t, records)

		require.NoError(t, s.ExecuteTransition(ctx, func(tx chain.Transition) error {
			for _, item := range []struct {
				address string
				size    int
			}{
				{"account1", 127},
				{"account2", 127},
				{"account3", 49},
			} {
				if _, err := tx.CreateAccount(ctx, item.address, item.size); err != nil {
					return err
				}
			}
			return nil
		}))

		records, err = s.GetAccountsByDataSize(ctx, 127)
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, record := range records {
			assert.Len(t, record.Data, 127)
		}

		records, err = s.GetAccountsByDataSize(ctx, 165)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func testTokenHappyPath(t *testing.T, s chain.Store) {
	t.Run("testTokenHappyPath", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetMint(ctx, "mint")
		assert.Equal(t, chain.ErrMintNotFound, err)

		require.NoError(t, s.ExecuteTransition(ctx, func(tx chain.Transition) error {
			mint, err := tx.CreateMint(ctx, "mint", "authority", 0)
			require.NoError(t, err)
			assert.EqualValues(t, 0, mint.Supply)

			_, err = tx.CreateMint(ctx, "mint", "authority", 0)
			assert.Equal(t, chain.ErrMintExists, err)

			_, err = tx.CreateTokenAccount(ctx, "token_account1", "other_mint", "owner1")
			assert.Equal(t, chain.ErrMintNotFound, err)

			account, err := tx.CreateTokenAccount(ctx, "token_account1", "mint", "owner1")
			require.NoError(t, err)
			assert.EqualValues(t, 0, account.Amount)

			_, err = tx.CreateTokenAccount(ctx, "token_account1", "mint", "owner1")
			assert.Equal(t, chain.ErrTokenAccountExists, err)

			_, err = tx.CreateTokenAccount(ctx, "token_account2", "mint", "owner2")
			require.NoError(t, err)

			assert.Equal(t, chain.ErrUnauthorized, tx.MintTo(ctx, "token_account1", "not_the_authority", 100))
			require.NoError(t, tx.MintTo(ctx, "token_account1", "authority", 100))

			require.NoError(t, tx.Transfer(ctx, "token_account1", "token_account2", "owner1", 30))

			return nil
		}))

		mint, err := s.GetMint(ctx, "mint")
		require.NoError(t, err)
		assert.EqualValues(t, 100, mint.Supply)
		assert.Equal(t, "authority", mint.Authority)

		account1, err := s.GetTokenAccount(ctx, "token_account1")
		require.NoError(t, err)
		assert.EqualValues(t, 70, account1.Amount)

		account2, err := s.GetTokenAccount(ctx, "token_account2")
		require.NoError(t, err)
		assert.EqualValues(t, 30, account2.Amount)
	})
}

func testTransferFailures(t *testing.T, s chain.Store) {
	t.Run("testTransferFailures", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.ExecuteTransition(ctx, func(tx chain.Transition) error {
			_, err := tx.CreateMint(ctx, "mint", "authority", 0)
			require.NoError(t, err)
			_, err = tx.CreateMint(ctx, "other_mint", "authority", 0)
			require.NoError(t, err)

			_, err = tx.CreateTokenAccount(ctx, "source", "mint", "owner")
			require.NoError(t, err)
			_, err = tx.CreateTokenAccount(ctx, "dest", "mint", "other_owner")
			require.NoError(t, err)
			_, err = tx.CreateTokenAccount(ctx, "other_mint_account", "other_mint", "other_owner")
			require.NoError(t, err)

			return tx.MintTo(ctx, "source", "authority", 100)
		}))

		for _, tc := range []struct {
			source    string
			dest      string
			authority string
			amount    uint64
			expected  error
		}{
			{"missing", "dest", "owner", 1, chain.ErrTokenAccountNotFound},
			{"source", "missing", "owner", 1, chain.ErrTokenAccountNotFound},
			{"source", "dest", "other_owner", 1, chain.ErrUnauthorized},
			{"source", "other_mint_account", "owner", 1, chain.ErrMintMismatch},
			{"source", "dest", "owner", 101, chain.ErrInsufficientFunds},
		} {
			err := s.ExecuteTransition(ctx, func(tx chain.Transition) error {
				return tx.Transfer(ctx, tc.source, tc.dest, tc.authority, tc.amount)
			})
			assert.Equal(t, tc.expected, err)
		}

		// Nothing moved
		source, err := s.GetTokenAccount(ctx, "source")
		require.NoError(t, err)
		assert.EqualValues(t, 100, source.Amount)

		dest, err := s.GetTokenAccount(ctx, "dest")
		require.NoError(t, err)
		assert.EqualValues(t, 0, dest.Amount)
	})
}

func testTransitionRollback(t *testing.T, s chain.Store) {
	t.Run("testTransitionRollback", func(t *testing.T) {
		ctx := context.Background()

		errAborted := errors.New("aborted")

		err := s.ExecuteTransition(ctx, func(tx chain.Transition) error {
			if _, err := tx.CreateAccount(ctx, "account", 17); err != nil {
				return err
			}
			if _, err := tx.CreateMint(ctx, "mint", "authority", 0); err != nil {
				return err
			}
			if _, err := tx.CreateTokenAccount(ctx, "token_account", "mint", "owner"); err != nil {
				return err
			}
			if err := tx.MintTo(ctx, "token_account", "authority", 100); err != nil {
				return err
			}
			return errAborted
		})
		assert.Equal(t, errAborted, err)

		// None of the staged effects persisted
		_, err = s.GetAccount(ctx, "account")
		assert.Equal(t, chain.ErrAccountNotFound, err)
		_, err = s.GetMint(ctx, "mint")
		assert.Equal(t, chain.ErrMintNotFound, err)
		_, err = s.GetTokenAccount(ctx, "token_account")
		assert.Equal(t, chain.ErrTokenAccountNotFound, err)
	})
}
