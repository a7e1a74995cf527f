package entity

import "math/big"

// CopyAmount returns a copy of a, treating nil as zero.
func CopyAmount(a *big.Int) *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a)
}

func IsPositive(a *big.Int) bool {
	return a != nil && a.Sign() > 0
}

func AmountString(a *big.Int) string {
	if a == nil {
		return "0"
	}
	return a.String()
}
