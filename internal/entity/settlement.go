package entity

import (
	"fmt"
	"github.com/gosimple/slug"
	"math/big"
	"time"
)

type SettlementKind string

const (
	SaleSettlement    SettlementKind = "sale"
	OfferSettlement   SettlementKind = "offer"
	AuctionSettlement SettlementKind = "auction"
	NoSaleSettlement  SettlementKind = "no-sale"
)

type Settlement struct {
	Id               string         `json:"id"`
	Kind             SettlementKind `json:"kind"`
	Marketplace      Marketplace    `json:"marketplace"`
	Collection       string         `json:"collection"`
	TokenId          uint64         `json:"tokenId"`
	Seller           string         `json:"seller"`
	Buyer            string         `json:"buyer"`
	Price            *big.Int       `json:"price"`
	Royalty          *big.Int       `json:"royalty"`
	RoyaltyBps       uint           `json:"royaltyBps"`
	RoyaltyRecipient string         `json:"royaltyRecipient"`
	PlatformFee      *big.Int       `json:"platformFee"`
	PlatformFeeBps   uint           `json:"platformFeeBps"`
	FeeRecipient     string         `json:"feeRecipient"`
	SellerProceeds   *big.Int       `json:"sellerProceeds"`
	SettledAt        time.Time      `json:"settledAt"`
}

func (s Settlement) Key() AssetKey {
	return AssetKey{s.Collection, s.TokenId}
}

func (s Settlement) Slug() string {
	return CreateSettlementSlug(s.Id)
}

func CreateSettlementSlug(id string) string {
	return slug.Make(fmt.Sprintf("settlement-%s", id))
}
