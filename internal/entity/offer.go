package entity

import (
	"math/big"
	"time"
)

type Offer struct {
	Collection string    `json:"collection"`
	TokenId    uint64    `json:"tokenId"`
	Offerer    string    `json:"offerer"`
	Amount     *big.Int  `json:"amount"`
	Escrow     *big.Int  `json:"escrow"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

type OfferKey struct {
	AssetKey
	Offerer string `json:"offerer"`
}

func NewOfferKey(asset AssetKey, offerer string) OfferKey {
	return OfferKey{asset, MustNormalizeAddress(offerer)}
}

func (k OfferKey) Slug() string {
	return CreateOfferSlug(k.AssetKey, k.Offerer)
}

// CreateOfferSlug keys an offer under its asset slug so offers can be scanned per asset.
func CreateOfferSlug(asset AssetKey, offerer string) string {
	return OfferPrefix(asset) + offerer
}

func OfferPrefix(asset AssetKey) string {
	return asset.Slug() + ":"
}

func (o Offer) AssetKey() AssetKey {
	return AssetKey{o.Collection, o.TokenId}
}

func (o Offer) Key() OfferKey {
	return OfferKey{o.AssetKey(), o.Offerer}
}

func (o Offer) Slug() string {
	return o.Key().Slug()
}
