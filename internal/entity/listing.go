package entity

import (
	"math/big"
	"time"
)

type Listing struct {
	Collection string    `json:"collection"`
	TokenId    uint64    `json:"tokenId"`
	Seller     string    `json:"seller"`
	Price      *big.Int  `json:"price"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (l Listing) Key() AssetKey {
	return AssetKey{l.Collection, l.TokenId}
}

func (l Listing) Slug() string {
	return l.Key().Slug()
}
