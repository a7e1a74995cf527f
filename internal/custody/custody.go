package custody

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"math/big"
)

var (
	ErrNotOwner             = errors.New("custody: sender is not the token owner")
	ErrNotAuthorized        = errors.New("custody: operator is not authorized to transfer the token")
	ErrTokenNotFound        = errors.New("custody: token not found")
	ErrInsufficientFunds    = errors.New("custody: insufficient funds")
	ErrInsufficientEscrow   = errors.New("custody: escrow balance cannot cover payouts")
	ErrInvalidAmount        = errors.New("custody: amount must be positive")
	ErrCollectionNotTracked = errors.New("custody: collection not tracked")
)

// Custody is the source of truth for asset ownership. The marketplace only requests transfers.
type Custody interface {
	Transfer(collection string, tokenId uint64, from, to string) error
	OwnerOf(collection string, tokenId uint64) (string, error)
	IsApproved(collection string, tokenId uint64, owner, operator string) (bool, error)
	RoyaltyOf(collection string) (entity.Royalty, error)
}

// Bank moves funds in and out of the marketplace escrow account.
type Bank interface {
	Collect(from string, amount *big.Int) error
	// Disburse applies every payout or none of them.
	Disburse(payouts []Payout) error
}

type Payout struct {
	To     string   `json:"to"`
	Amount *big.Int `json:"amount"`
	Reason string   `json:"reason"`
}

func NewPayout(to string, amount *big.Int, reason string) Payout {
	return Payout{to, entity.CopyAmount(amount), reason}
}

func TotalPayout(payouts []Payout) *big.Int {
	total := new(big.Int)
	for _, p := range payouts {
		if p.Amount != nil && p.Amount.Sign() > 0 {
			total.Add(total, p.Amount)
		}
	}
	return total
}
