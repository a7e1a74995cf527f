package entity

import (
	"math/big"
	"time"
)

type AuctionState string

const (
	AuctionScheduled AuctionState = "scheduled"
	AuctionOpen      AuctionState = "open"
	AuctionEnded     AuctionState = "ended"
	AuctionSettled   AuctionState = "settled"
)

type Bid struct {
	Bidder   string    `json:"bidder"`
	Amount   *big.Int  `json:"amount"`
	PlacedAt time.Time `json:"placedAt"`
}

type Auction struct {
	Collection    string    `json:"collection"`
	TokenId       uint64    `json:"tokenId"`
	Seller        string    `json:"seller"`
	StartingPrice *big.Int  `json:"startingPrice"`
	MinIncrement  *big.Int  `json:"minIncrement"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	HighestBid    *big.Int  `json:"highestBid"`
	HighestBidder string    `json:"highestBidder"`
	Bids          []Bid     `json:"bids"`
	Settled       bool      `json:"settled"`
	SettledAt     time.Time `json:"settledAt,omitempty"`
}

func (a Auction) Key() AssetKey {
	return AssetKey{a.Collection, a.TokenId}
}

func (a Auction) Slug() string {
	return a.Key().Slug()
}

// State derives the auction phase from the stored window; nothing advances it but the clock.
func (a Auction) State(now time.Time) AuctionState {
	switch {
	case a.Settled:
		return AuctionSettled
	case now.Before(a.StartTime):
		return AuctionScheduled
	case now.Before(a.EndTime):
		return AuctionOpen
	default:
		return AuctionEnded
	}
}

func (a Auction) HasBid() bool {
	return a.HighestBidder != "" && IsPositive(a.HighestBid)
}

// MinimumBid is max(startingPrice, highestBid + minIncrement).
func (a Auction) MinimumBid() *big.Int {
	if !a.HasBid() {
		return CopyAmount(a.StartingPrice)
	}

	next := new(big.Int).Add(a.HighestBid, CopyAmount(a.MinIncrement))
	if next.Cmp(CopyAmount(a.StartingPrice)) < 0 {
		return CopyAmount(a.StartingPrice)
	}

	return next
}
