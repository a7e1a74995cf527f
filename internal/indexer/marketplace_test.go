package indexer

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/dev"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
	"sync"
	"testing"
	"time"
)

type fakeIndex struct {
	mu        sync.Mutex
	requests  []elastic_search.Request
	persisted chan struct{}
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{persisted: make(chan struct{}, 16)}
}

func (f *fakeIndex) InstallMappings() error { return nil }

func (f *fakeIndex) AddIndexRequest(index string, e entity.Entity, action elastic_search.RequestAction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, elastic_search.Request{Index: index, Entity: e, Type: elastic_search.IndexRequest, Action: action})
}

func (f *fakeIndex) HasRequest(e entity.Entity) bool { return f.GetRequest(e.Slug()) != nil }

func (f *fakeIndex) GetRequests() []elastic_search.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]elastic_search.Request(nil), f.requests...)
}

func (f *fakeIndex) GetRequest(id string) *elastic_search.Request {
	for _, r := range f.GetRequests() {
		if r.Entity.Slug() == id {
			return &r
		}
	}
	return nil
}

func (f *fakeIndex) ClearRequests() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
}

func (f *fakeIndex) BatchPersist() bool {
	f.persisted <- struct{}{}
	return false
}

func (f *fakeIndex) Persist() int { return len(f.GetRequests()) }

const (
	collection = "0x000000000000000000000000000000000000c011"
	seller     = "0x00000000000000000000000000000000000a11ce"
	buyer      = "0x0000000000000000000000000000000000000b0b"
)

var at = time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestIndexer(elastic elastic_search.Index) marketplaceIndexer {
	return marketplaceIndexer{elastic: elastic, now: func() time.Time { return at.Add(time.Minute) }}
}

func TestIndex_Settlement(t *testing.T) {
	elastic := newFakeIndex()
	settlement := entity.Settlement{
		Id:          "abc",
		Kind:        entity.SaleSettlement,
		Marketplace: entity.ZilDuckMarketplace,
		Collection:  collection,
		TokenId:     1,
		Seller:      seller,
		Buyer:       buyer,
		Price:       big.NewInt(100),
		Royalty:     big.NewInt(1),
		RoyaltyBps:  1000,
		PlatformFee: big.NewInt(10),
		SettledAt:   at,
	}

	require.NoError(t, newTestIndexer(elastic).Index(event.SettlementEvent, settlement))

	requests := elastic.GetRequests()
	require.Len(t, requests, 2)
	assert.Equal(t, elastic_search.SettlementIndex.Get(), requests[0].Index)
	assert.Equal(t, settlement, requests[0].Entity)

	action := requests[1].Entity.(entity.NftAction)
	assert.Equal(t, elastic_search.NftActionIndex.Get(), requests[1].Index)
	assert.Equal(t, entity.MarketplaceSaleAction, action.Action)
	assert.Equal(t, "abc", action.Ref)
	assert.Equal(t, seller, action.From)
	assert.Equal(t, buyer, action.To)
	assert.Equal(t, "100", action.Cost)
	assert.Equal(t, "10", action.Fee)
	assert.Equal(t, "1", action.Royalty)
	assert.Equal(t, at, action.Time)
}

func TestIndex_NoSaleSettlement(t *testing.T) {
	elastic := newFakeIndex()
	settlement := entity.Settlement{Id: "n", Kind: entity.NoSaleSettlement, Collection: collection, TokenId: 2, Price: new(big.Int)}

	require.NoError(t, newTestIndexer(elastic).Index(event.SettlementEvent, settlement))

	action := elastic.GetRequests()[1].Entity.(entity.NftAction)
	assert.Equal(t, entity.MarketplaceAuctionNoSale, action.Action)
}

func TestIndex_ListingLifecycle(t *testing.T) {
	elastic := newFakeIndex()
	listing := entity.Listing{Collection: collection, TokenId: 1, Seller: seller, Price: big.NewInt(100), Active: true, CreatedAt: at}
	i := newTestIndexer(elastic)

	require.NoError(t, i.Index(event.ListingCreatedEvent, listing))
	require.NoError(t, i.Index(event.ListingCancelledEvent, listing))

	requests := elastic.GetRequests()
	require.Len(t, requests, 2)

	created := requests[0].Entity.(entity.NftAction)
	cancelled := requests[1].Entity.(entity.NftAction)
	assert.Equal(t, entity.MarketplaceListingAction, created.Action)
	assert.Equal(t, at, created.Time)
	assert.Equal(t, entity.MarketplaceDelistingAction, cancelled.Action)
	assert.Equal(t, at.Add(time.Minute), cancelled.Time)
	assert.NotEqual(t, created.Slug(), cancelled.Slug())
}

func TestIndex_OffersAndBids(t *testing.T) {
	elastic := newFakeIndex()
	i := newTestIndexer(elastic)

	offer := entity.Offer{Collection: collection, TokenId: 1, Offerer: buyer, Amount: big.NewInt(50), Escrow: big.NewInt(50), CreatedAt: at}
	require.NoError(t, i.Index(event.OfferMadeEvent, offer))
	require.NoError(t, i.Index(event.OfferWithdrawnEvent, offer))

	auction := entity.Auction{
		Collection:    collection,
		TokenId:       1,
		Seller:        seller,
		StartingPrice: big.NewInt(100),
		HighestBid:    big.NewInt(110),
		HighestBidder: buyer,
		Bids:          []entity.Bid{{Bidder: buyer, Amount: big.NewInt(110), PlacedAt: at}},
		StartTime:     at,
	}
	require.NoError(t, i.Index(event.AuctionCreatedEvent, auction))
	require.NoError(t, i.Index(event.BidPlacedEvent, auction))
	require.NoError(t, i.Index(event.AuctionCancelledEvent, auction))

	actions := make([]entity.ActionType, 0)
	for _, r := range elastic.GetRequests() {
		actions = append(actions, r.Entity.(entity.NftAction).Action)
	}
	assert.Equal(t, []entity.ActionType{
		entity.MarketplaceOfferAction,
		entity.MarketplaceOfferWithdrawn,
		entity.MarketplaceAuctionAction,
		entity.MarketplaceBidAction,
		entity.MarketplaceAuctionCancelled,
	}, actions)

	bid := elastic.GetRequests()[3].Entity.(entity.NftAction)
	assert.Equal(t, "110", bid.Cost)
	assert.Equal(t, buyer, bid.From)
}

func TestIndex_Reconciliation(t *testing.T) {
	elastic := newFakeIndex()
	devErr := dev.NewError("Settlement", "DisburseFailed", errors.New("escrow empty"), nil)

	require.NoError(t, newTestIndexer(elastic).Index(event.ReconciliationEvent, devErr))

	requests := elastic.GetRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, elastic_search.ReconciliationIndex.Get(), requests[0].Index)
}

func TestIndex_UnexpectedMessage(t *testing.T) {
	err := newTestIndexer(newFakeIndex()).Index(event.SettlementEvent, "nope")
	assert.ErrorIs(t, err, ErrUnexpectedMessage)
}

func TestSubscribe(t *testing.T) {
	elastic := newFakeIndex()
	manager := event.NewManager()
	NewMarketplaceIndexer(elastic).Subscribe(manager)

	manager.Emit(event.SettlementEvent, entity.Settlement{Id: "s", Kind: entity.SaleSettlement, Collection: collection, TokenId: 1, Price: big.NewInt(1)})

	select {
	case <-elastic.persisted:
	case <-time.After(time.Second):
		require.FailNow(t, "event not indexed")
	}
	assert.Len(t, elastic.GetRequests(), 2)
}
