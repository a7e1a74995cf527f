package indexer

import (
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/dev"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"go.uber.org/zap"
	"time"
)

var ErrUnexpectedMessage = errors.New("unexpected event message")

// MarketplaceIndexer projects marketplace events into the activity and settlement indices.
type MarketplaceIndexer interface {
	Subscribe(manager *event.Manager)
	Index(eventType event.Type, msg interface{}) error
}

type marketplaceIndexer struct {
	elastic elastic_search.Index
	now     func() time.Time
}

var indexedEvents = []event.Type{
	event.ListingCreatedEvent,
	event.ListingCancelledEvent,
	event.OfferMadeEvent,
	event.OfferWithdrawnEvent,
	event.AuctionCreatedEvent,
	event.AuctionCancelledEvent,
	event.BidPlacedEvent,
	event.SettlementEvent,
	event.ReconciliationEvent,
}

func NewMarketplaceIndexer(elastic elastic_search.Index) MarketplaceIndexer {
	return marketplaceIndexer{elastic, time.Now}
}

func (i marketplaceIndexer) Subscribe(manager *event.Manager) {
	for _, eventType := range indexedEvents {
		eventType := eventType
		manager.AddListener(eventType, func(msg interface{}) {
			if err := i.Index(eventType, msg); err != nil {
				zap.L().With(zap.Error(err), zap.String("type", string(eventType))).Error("MarketplaceIndexer: Failed to index event")
				return
			}
			i.elastic.BatchPersist()
		})
	}
}

func (i marketplaceIndexer) Index(eventType event.Type, msg interface{}) error {
	switch m := msg.(type) {
	case entity.Listing:
		action := entity.MarketplaceListingAction
		if eventType == event.ListingCancelledEvent {
			action = entity.MarketplaceDelistingAction
		}
		i.addAction(listingAction(m, action, i.now()))

	case entity.Offer:
		action := entity.MarketplaceOfferAction
		if eventType == event.OfferWithdrawnEvent {
			action = entity.MarketplaceOfferWithdrawn
		}
		i.addAction(offerAction(m, action, i.now()))

	case entity.Auction:
		switch eventType {
		case event.BidPlacedEvent:
			i.addAction(bidAction(m))
		case event.AuctionCancelledEvent:
			i.addAction(auctionAction(m, entity.MarketplaceAuctionCancelled, i.now()))
		default:
			i.addAction(auctionAction(m, entity.MarketplaceAuctionAction, i.now()))
		}

	case entity.Settlement:
		i.elastic.AddIndexRequest(elastic_search.SettlementIndex.Get(), m, elastic_search.SettlementCreate)
		i.addAction(settlementAction(m))

	case dev.Error:
		i.elastic.AddIndexRequest(elastic_search.ReconciliationIndex.Get(), m, elastic_search.ReconciliationCreate)

	default:
		return fmt.Errorf("%w: %T for %s", ErrUnexpectedMessage, msg, eventType)
	}

	return nil
}

func (i marketplaceIndexer) addAction(action entity.NftAction) {
	zap.L().With(
		zap.String("contract", action.Contract),
		zap.Uint64("tokenId", action.TokenId),
		zap.String("action", string(action.Action)),
	).Debug("MarketplaceIndexer: Index action")

	i.elastic.AddIndexRequest(elastic_search.NftActionIndex.Get(), action, elastic_search.NftAction)
}

func listingAction(l entity.Listing, action entity.ActionType, now time.Time) entity.NftAction {
	at := l.CreatedAt
	if action == entity.MarketplaceDelistingAction {
		at = now
	}

	return entity.NftAction{
		Contract:    l.Collection,
		TokenId:     l.TokenId,
		Ref:         fmt.Sprintf("%d", l.CreatedAt.UnixNano()),
		Action:      action,
		From:        l.Seller,
		Marketplace: entity.ZilDuckMarketplace,
		Cost:        entity.AmountString(l.Price),
		Time:        at,
	}
}

func offerAction(o entity.Offer, action entity.ActionType, now time.Time) entity.NftAction {
	at := o.CreatedAt
	if action == entity.MarketplaceOfferWithdrawn {
		at = now
	}

	return entity.NftAction{
		Contract:    o.Collection,
		TokenId:     o.TokenId,
		Ref:         fmt.Sprintf("%s-%d", o.Offerer, o.CreatedAt.UnixNano()),
		Action:      action,
		From:        o.Offerer,
		Marketplace: entity.ZilDuckMarketplace,
		Cost:        entity.AmountString(o.Amount),
		Time:        at,
	}
}

func auctionAction(a entity.Auction, action entity.ActionType, at time.Time) entity.NftAction {
	return entity.NftAction{
		Contract:    a.Collection,
		TokenId:     a.TokenId,
		Ref:         fmt.Sprintf("%d", a.StartTime.UnixNano()),
		Action:      action,
		From:        a.Seller,
		Marketplace: entity.ZilDuckMarketplace,
		Cost:        entity.AmountString(a.StartingPrice),
		Time:        at,
	}
}

func bidAction(a entity.Auction) entity.NftAction {
	action := entity.NftAction{
		Contract:    a.Collection,
		TokenId:     a.TokenId,
		Action:      entity.MarketplaceBidAction,
		From:        a.HighestBidder,
		To:          a.Seller,
		Marketplace: entity.ZilDuckMarketplace,
		Cost:        entity.AmountString(a.HighestBid),
	}
	if len(a.Bids) != 0 {
		last := a.Bids[len(a.Bids)-1]
		action.Time = last.PlacedAt
		action.Ref = fmt.Sprintf("%s-%d", last.Bidder, last.PlacedAt.UnixNano())
	}

	return action
}

func settlementAction(s entity.Settlement) entity.NftAction {
	action := entity.MarketplaceSaleAction
	if s.Kind == entity.NoSaleSettlement {
		action = entity.MarketplaceAuctionNoSale
	}

	return entity.NftAction{
		Contract:    s.Collection,
		TokenId:     s.TokenId,
		Ref:         s.Id,
		Action:      action,
		From:        s.Seller,
		To:          s.Buyer,
		Marketplace: s.Marketplace,
		Cost:        entity.AmountString(s.Price),
		Fee:         entity.AmountString(s.PlatformFee),
		Royalty:     entity.AmountString(s.Royalty),
		RoyaltyBps:  s.RoyaltyBps,
		Time:        s.SettledAt,
	}
}
