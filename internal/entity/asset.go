package entity

import (
	"fmt"
	"github.com/gosimple/slug"
)

type AssetKey struct {
	Collection string `json:"collection"`
	TokenId    uint64 `json:"tokenId"`
}

func NewAssetKey(collection string, tokenId uint64) AssetKey {
	return AssetKey{MustNormalizeAddress(collection), tokenId}
}

func (k AssetKey) Slug() string {
	return CreateNftSlug(k.TokenId, k.Collection)
}

func (k AssetKey) String() string {
	return fmt.Sprintf("%s/%d", k.Collection, k.TokenId)
}

func CreateNftSlug(tokenId uint64, contract string) string {
	return slug.Make(fmt.Sprintf("nft-%d-%s", tokenId, contract))
}
