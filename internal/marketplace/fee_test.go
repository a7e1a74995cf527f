package marketplace

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
	"testing"
)

func TestCalculateFees(t *testing.T) {
	tests := []struct {
		name                      string
		price                     int64
		royaltyBps, platformBps   uint
		royalty, fee, sellerShare int64
	}{
		{"documented split", 100, 1000, 10000, 1, 10, 89},
		{"truncation favours seller", 99, 1000, 10000, 0, 9, 90},
		{"no fees", 100, 0, 0, 0, 0, 100},
		{"royalty only", 250000, 2500, 0, 6250, 0, 243750},
		{"max rates", 1000, entity.MaxFeeBps, entity.MaxFeeBps, 100, 100, 800},
		{"single unit", 1, entity.MaxFeeBps, entity.MaxFeeBps, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fees, err := CalculateFees(big.NewInt(tt.price), tt.royaltyBps, tt.platformBps)
			require.NoError(t, err)

			assert.Equal(t, tt.royalty, fees.Royalty.Int64())
			assert.Equal(t, tt.fee, fees.PlatformFee.Int64())
			assert.Equal(t, tt.sellerShare, fees.SellerProceeds.Int64())
		})
	}
}

func TestCalculateFees_SplitAlwaysSumsToPrice(t *testing.T) {
	for price := int64(1); price <= 3000; price += 7 {
		for _, rates := range [][2]uint{{0, 0}, {1, 1}, {333, 777}, {1000, 10000}, {9999, 9999}} {
			fees, err := CalculateFees(big.NewInt(price), rates[0], rates[1])
			require.NoError(t, err)
			assert.Equal(t, price, fees.Total().Int64(), "price %d rates %v", price, rates)
			assert.True(t, fees.SellerProceeds.Sign() >= 0)
		}
	}
}

func TestCalculateFees_LargePrice(t *testing.T) {
	price, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	fees, err := CalculateFees(price, 1000, 10000)
	require.NoError(t, err)

	assert.Equal(t, "1234567890123456789012345678", fees.Royalty.String())
	assert.Equal(t, "12345678901234567890123456789", fees.PlatformFee.String())
	assert.Equal(t, 0, fees.Total().Cmp(price))
}

func TestCalculateFees_Errors(t *testing.T) {
	_, err := CalculateFees(big.NewInt(0), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = CalculateFees(nil, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = CalculateFees(big.NewInt(-5), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = CalculateFees(big.NewInt(100), entity.FeeDenominator+1, 0)
	assert.ErrorIs(t, err, ErrFeeOverflow)

	_, err = CalculateFees(big.NewInt(100), 60000, 60000)
	assert.ErrorIs(t, err, ErrFeeOverflow)
	assert.True(t, IsInvariant(err))
}
