package entity

import (
	"crypto/md5"
	"fmt"
	"time"
)

type NftAction struct {
	Contract    string      `json:"contract"`
	TokenId     uint64      `json:"tokenId"`
	Ref         string      `json:"ref"`
	Action      ActionType  `json:"action"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	Marketplace Marketplace `json:"marketplace"`
	Cost        string      `json:"cost"`
	Fee         string      `json:"fee"`
	Royalty     string      `json:"royalty"`
	RoyaltyBps  uint        `json:"royaltyBps"`
	Fungible    string      `json:"fungible"`
	Time        time.Time   `json:"time"`
}

type ActionType string

const (
	TransferAction              ActionType = "transfer"
	MarketplaceSaleAction       ActionType = "sale"
	MarketplaceListingAction    ActionType = "listing"
	MarketplaceDelistingAction  ActionType = "delisting"
	MarketplaceOfferAction      ActionType = "offer"
	MarketplaceOfferWithdrawn   ActionType = "offer-withdrawn"
	MarketplaceAuctionAction    ActionType = "auction"
	MarketplaceAuctionCancelled ActionType = "auction-cancelled"
	MarketplaceBidAction        ActionType = "bid"
	MarketplaceAuctionNoSale    ActionType = "auction-no-sale"
)

func (n NftAction) Slug() string {
	return CreateNftActionSlug(n.TokenId, n.Contract, n.Ref, string(n.Action))
}

func CreateNftActionSlug(tokenId uint64, contract, ref, action string) string {
	data := []byte(fmt.Sprintf("nftaction-%d-%s-%s-%s", tokenId, contract, ref, action))
	return fmt.Sprintf("%x", md5.Sum(data))
}
