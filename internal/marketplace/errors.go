package marketplace

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
)

// Precondition errors are caller-correctable; the operation made no state change.
var (
	ErrNotOwner         = errors.New("seller is not the asset owner")
	ErrNotApproved      = errors.New("marketplace is not approved to transfer the asset")
	ErrNotSeller        = errors.New("caller is not the seller")
	ErrNoActiveListing  = errors.New("no active listing")
	ErrNoSuchOffer      = errors.New("no such offer")
	ErrOfferLocked      = errors.New("offer is being settled")
	ErrNoSuchAuction    = errors.New("no such auction")
	ErrAuctionNotOpen   = errors.New("auction is not open")
	ErrAuctionStillOpen = errors.New("auction is still open")
	ErrAuctionHasBids   = errors.New("auction has bids")
	ErrAlreadySettled   = errors.New("auction already settled")
	ErrStaleOwnership   = errors.New("seller no longer owns the asset")
	ErrAuctionExists    = errors.New("asset is already in an auction")
	ErrSelfPurchase     = errors.New("buyer is the seller")
	ErrSellerBid        = errors.New("seller cannot bid on their own auction")
	ErrTransferFailed   = errors.New("asset transfer failed")
	ErrEscrowParty      = errors.New("the marketplace escrow account cannot trade")
)

// Value errors reject the call before any escrow or transfer.
var (
	ErrInvalidPrice             = errors.New("price must be positive")
	ErrZeroAmount               = errors.New("offer amount must be positive")
	ErrAmountMismatch           = errors.New("payment does not match offer amount")
	ErrPaymentMismatch          = errors.New("payment does not match bid")
	ErrBidTooLow                = errors.New("bid is below the minimum")
	ErrInsufficientPayment      = errors.New("payment is below the listing price")
	ErrTotalInsufficientPayment = errors.New("payment is below the total price of the listings")
	ErrInvalidIncrement         = errors.New("minimum increment must be positive")
	ErrInvalidWindow            = errors.New("auction must end after it starts and in the future")
	ErrFeeTooHigh               = entity.ErrFeeTooHigh
	ErrInvalidRecipient         = entity.ErrInvalidRecipient
	ErrInvalidAddress           = entity.ErrInvalidAddress
)

// Invariant errors abort settlement and leave funds in escrow for reconciliation.
var (
	ErrFeeOverflow          = errors.New("fees exceed the sale price")
	ErrOwnershipChanged     = errors.New("asset owner changed during settlement")
	ErrSettlementIncomplete = errors.New("asset transferred but payouts failed, funds held for reconciliation")
	ErrRefundIncomplete     = errors.New("refund failed, funds held for reconciliation")
)

var (
	preconditionErrors = []error{
		ErrNotOwner, ErrNotApproved, ErrNotSeller, ErrNoActiveListing, ErrNoSuchOffer, ErrOfferLocked, ErrNoSuchAuction,
		ErrAuctionNotOpen, ErrAuctionStillOpen, ErrAuctionHasBids, ErrAlreadySettled, ErrStaleOwnership,
		ErrAuctionExists, ErrSelfPurchase, ErrSellerBid, ErrTransferFailed, ErrEscrowParty,
		custody.ErrTokenNotFound,
	}
	valueErrors = []error{
		ErrInvalidPrice, ErrZeroAmount, ErrAmountMismatch, ErrPaymentMismatch, ErrBidTooLow,
		ErrInsufficientPayment, ErrTotalInsufficientPayment, ErrInvalidIncrement, ErrInvalidWindow,
		ErrFeeTooHigh, ErrInvalidRecipient, ErrInvalidAddress, custody.ErrInsufficientFunds, custody.ErrInvalidAmount,
	}
	invariantErrors = []error{
		ErrFeeOverflow, ErrOwnershipChanged, ErrSettlementIncomplete, ErrRefundIncomplete,
	}
)

func IsPrecondition(err error) bool {
	return isAny(err, preconditionErrors)
}

func IsValue(err error) bool {
	return isAny(err, valueErrors)
}

func IsInvariant(err error) bool {
	return isAny(err, invariantErrors)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
