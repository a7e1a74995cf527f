package marketplace

import (
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"math/big"
)

type Fees struct {
	Royalty        *big.Int `json:"royalty"`
	PlatformFee    *big.Int `json:"platformFee"`
	SellerProceeds *big.Int `json:"sellerProceeds"`
}

// CalculateFees splits price into royalty, platform fee and seller proceeds. Rates are parts of
// entity.FeeDenominator; division truncates toward zero and the remainder stays with the seller.
func CalculateFees(price *big.Int, royaltyBps, platformBps uint) (Fees, error) {
	if !entity.IsPositive(price) {
		return Fees{}, ErrInvalidPrice
	}
	if royaltyBps > entity.FeeDenominator || platformBps > entity.FeeDenominator {
		return Fees{}, fmt.Errorf("%w: rates %d and %d over %d", ErrFeeOverflow, royaltyBps, platformBps, entity.FeeDenominator)
	}

	denominator := new(big.Int).SetUint64(uint64(entity.FeeDenominator))
	royalty := new(big.Int).Mul(price, new(big.Int).SetUint64(uint64(royaltyBps)))
	royalty.Quo(royalty, denominator)

	platformFee := new(big.Int).Mul(price, new(big.Int).SetUint64(uint64(platformBps)))
	platformFee.Quo(platformFee, denominator)

	proceeds := new(big.Int).Sub(price, royalty)
	proceeds.Sub(proceeds, platformFee)
	if proceeds.Sign() < 0 {
		return Fees{}, fmt.Errorf("%w: royalty %s and platform fee %s on price %s", ErrFeeOverflow, royalty, platformFee, price)
	}

	return Fees{
		Royalty:        royalty,
		PlatformFee:    platformFee,
		SellerProceeds: proceeds,
	}, nil
}

func (f Fees) Total() *big.Int {
	total := new(big.Int).Add(entity.CopyAmount(f.Royalty), entity.CopyAmount(f.PlatformFee))
	return total.Add(total, entity.CopyAmount(f.SellerProceeds))
}
