package christmas

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAccount_RoundTrip(t *testing.T) {
	expected := &UserAccount{
		IsInitialized:          true,
		TotalAmountContributed: 12345,
	}

	data := expected.Marshal()
	assert.Len(t, data, UserAccountSize)

	var actual UserAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected.IsInitialized, actual.IsInitialized)
	assert.Equal(t, expected.TotalAmountContributed, actual.TotalAmountContributed)
}

func TestUserAccount_InvalidData(t *testing.T) {
	var account UserAccount

	assert.Equal(t, ErrInvalidAccountData, account.Unmarshal(nil))
	assert.Equal(t, ErrInvalidAccountData, account.Unmarshal(make([]byte, UserAccountSize-1)))

	// Valid size, wrong discriminator
	assert.Equal(t, ErrInvalidAccountData, account.Unmarshal(make([]byte, UserAccountSize)))
}

func TestChristmasAccount_RoundTrip(t *testing.T) {
	mint, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	expected := &ChristmasAccount{
		IsInitialized:          true,
		Mint:                   mint,
		TotalAmountContributed: 999,
	}

	data := expected.Marshal()
	assert.Len(t, data, ChristmasAccountSize)

	var actual ChristmasAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected.IsInitialized, actual.IsInitialized)
	assert.EqualValues(t, expected.Mint, actual.Mint)
	assert.Equal(t, expected.TotalAmountContributed, actual.TotalAmountContributed)
}

func TestMarketplaceTokenAccount_RoundTrip(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mint, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	expected := &MarketplaceTokenAccount{
		Owner:       owner,
		Mint:        mint,
		Bump:        254,
		Description: "ten christmas crackers",
	}

	data, err := expected.Marshal()
	require.NoError(t, err)
	assert.Len(t, data, MarketplaceTokenAccountSize)

	var actual MarketplaceTokenAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.EqualValues(t, expected.Owner, actual.Owner)
	assert.EqualValues(t, expected.Mint, actual.Mint)
	assert.Equal(t, expected.Bump, actual.Bump)
	assert.Equal(t, expected.Description, actual.Description)
}

func TestMarketplaceTokenAccount_FixedSize(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mint, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	// The scan in the listing path filters on an exact byte size, so the
	// description length must not change the serialized size.
	for _, description := range []string{
		"",
		"a",
		strings.Repeat("x", MaxDescriptionLength),
	} {
		record := &MarketplaceTokenAccount{
			Owner:       owner,
			Mint:        mint,
			Bump:        255,
			Description: description,
		}

		data, err := record.Marshal()
		require.NoError(t, err)
		assert.Len(t, data, MarketplaceTokenAccountSize)
	}
}

func TestMarketplaceTokenAccount_DescriptionTooLong(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mint, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	record := &MarketplaceTokenAccount{
		Owner:       owner,
		Mint:        mint,
		Description: strings.Repeat("x", MaxDescriptionLength+1),
	}

	_, err = record.Marshal()
	assert.Equal(t, ErrDescriptionTooLong, err)
}

func TestMarketplaceTokenAccount_InvalidData(t *testing.T) {
	var account MarketplaceTokenAccount

	assert.Equal(t, ErrInvalidAccountData, account.Unmarshal(make([]byte, MarketplaceTokenAccountSize-1)))
	assert.Equal(t, ErrInvalidAccountData, account.Unmarshal(make([]byte, MarketplaceTokenAccountSize)))
}
