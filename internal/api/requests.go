package api

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"math/big"
	"time"
)

type createSellRequest struct {
	Collection string   `json:"collection"`
	TokenId    uint64   `json:"tokenId"`
	Price      *big.Int `json:"price"`
}

type buyRequest struct {
	Payment *big.Int `json:"payment"`
}

type bulkBuyRequest struct {
	Items   []entity.AssetKey `json:"items"`
	Payment *big.Int          `json:"payment"`
}

type makeOfferRequest struct {
	Collection string   `json:"collection"`
	TokenId    uint64   `json:"tokenId"`
	Amount     *big.Int `json:"amount"`
	Payment    *big.Int `json:"payment"`
}

type acceptOfferRequest struct {
	Offerer string `json:"offerer"`
}

type createAuctionRequest struct {
	Collection    string    `json:"collection"`
	TokenId       uint64    `json:"tokenId"`
	StartingPrice *big.Int  `json:"startingPrice"`
	MinIncrement  *big.Int  `json:"minIncrement"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

type placeBidRequest struct {
	Bid     *big.Int `json:"bid"`
	Payment *big.Int `json:"payment"`
}

type setFeeRequest struct {
	Bps       uint   `json:"bps"`
	Recipient string `json:"recipient"`
}
