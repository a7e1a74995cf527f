package marketplace

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

func TestBuy_SplitsPrice(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.fund(bob, 150)

	settlement, err := f.engine.Buy(collection, 1, bob, amount(120))
	require.NoError(t, err)

	assert.Equal(t, entity.SaleSettlement, settlement.Kind)
	assert.Equal(t, int64(100), settlement.Price.Int64())
	assert.Equal(t, int64(1), settlement.Royalty.Int64())
	assert.Equal(t, int64(10), settlement.PlatformFee.Int64())
	assert.Equal(t, int64(89), settlement.SellerProceeds.Int64())

	assert.Equal(t, int64(89), f.balance(alice))
	assert.Equal(t, int64(1), f.balance(creator))
	assert.Equal(t, int64(10), f.balance(treasury))
	assert.Equal(t, int64(50), f.balance(bob))
	assert.Equal(t, int64(0), f.balance(escrow))
	assert.Equal(t, bob, f.owner(1))

	_, err = f.engine.Listing(collection, 1)
	assert.ErrorIs(t, err, ErrNoActiveListing)
	assert.Len(t, f.events.of(event.SettlementEvent), 1)
}

func TestBuy_SecondBuyerFindsNoListing(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.fund(bob, 100)
	f.fund(carol, 100)

	_, err := f.engine.Buy(collection, 1, bob, amount(100))
	require.NoError(t, err)

	_, err = f.engine.Buy(collection, 1, carol, amount(100))
	assert.ErrorIs(t, err, ErrNoActiveListing)
	assert.Equal(t, int64(100), f.balance(carol))
}

func TestBuy_Errors(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.fund(bob, 1000)

	_, err := f.engine.Buy(collection, 2, bob, amount(100))
	assert.ErrorIs(t, err, ErrNoActiveListing)

	_, err = f.engine.Buy(collection, 1, bob, amount(99))
	assert.ErrorIs(t, err, ErrInsufficientPayment)
	assert.True(t, IsValue(err))

	_, err = f.engine.Buy(collection, 1, alice, amount(100))
	assert.ErrorIs(t, err, ErrSelfPurchase)

	_, err = f.engine.Buy(collection, 1, "", amount(100))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	listing, err := f.engine.Listing(collection, 1)
	require.NoError(t, err)
	assert.True(t, listing.Active)
	assert.Equal(t, int64(1000), f.balance(bob))
}

func TestBuy_StaleOwnershipPurgesListing(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.fund(bob, 100)

	// sold elsewhere
	f.ledger.Mint(collection, 1, carol)

	_, err := f.engine.Buy(collection, 1, bob, amount(100))
	assert.ErrorIs(t, err, ErrStaleOwnership)
	assert.Equal(t, int64(100), f.balance(bob))
	assert.Equal(t, carol, f.owner(1))

	_, err = f.engine.Listing(collection, 1)
	assert.ErrorIs(t, err, ErrNoActiveListing)
}

func TestBuy_UnfundedBuyerRestoresListing(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)

	_, err := f.engine.Buy(collection, 1, bob, amount(100))
	assert.ErrorIs(t, err, custody.ErrInsufficientFunds)

	listing, err := f.engine.Listing(collection, 1)
	require.NoError(t, err)
	assert.True(t, listing.Active)
	assert.Equal(t, alice, f.owner(1))
}

func TestBuy_RefusedTransferRefundsBuyer(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.fund(bob, 100)
	f.custody.transferErr = errors.New("node unavailable")

	_, err := f.engine.Buy(collection, 1, bob, amount(100))
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, int64(100), f.balance(bob))
	assert.Equal(t, int64(0), f.balance(escrow))

	listing, err := f.engine.Listing(collection, 1)
	require.NoError(t, err)
	assert.True(t, listing.Active)
}

func TestBuy_ReentrantBuyObservesClosedListing(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.fund(bob, 100)
	f.fund(carol, 100)

	var reentrantErr error
	f.custody.beforeTransfer = func() {
		_, reentrantErr = f.engine.Buy(collection, 1, carol, amount(100))
	}

	_, err := f.engine.Buy(collection, 1, bob, amount(100))
	require.NoError(t, err)

	assert.ErrorIs(t, reentrantErr, ErrNoActiveListing)
	assert.Equal(t, bob, f.owner(1))
	assert.Equal(t, int64(100), f.balance(carol))
	assert.Equal(t, int64(0), f.balance(escrow))
}

func TestBuy_ConcurrentBuyersSettleOnce(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)

	buyers := []string{bob, carol, dave, creator}
	for _, buyer := range buyers {
		f.fund(buyer, 100)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(buyers))
	for _, buyer := range buyers {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			_, err := f.engine.Buy(collection, 1, buyer, amount(100))
			errs <- err
		}(buyer)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrNoActiveListing)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(89), f.balance(alice))
	assert.Equal(t, int64(0), f.balance(escrow))
}

func TestBuy_DisburseFailureIsReconciled(t *testing.T) {
	f := newFixtureWithBank(t, func(ledger *custody.Ledger) custody.Bank {
		return failingBank{Ledger: ledger, err: errors.New("payout rejected")}
	})
	f.list(1, alice, 100)
	f.fund(bob, 100)

	settlement, err := f.engine.Buy(collection, 1, bob, amount(100))
	assert.ErrorIs(t, err, ErrSettlementIncomplete)
	assert.True(t, IsInvariant(err))
	require.NotNil(t, settlement)

	assert.Equal(t, bob, f.owner(1))
	assert.Equal(t, int64(100), f.balance(escrow))
	assert.Equal(t, int64(0), f.balance(alice))
	assert.Len(t, f.events.of(event.ReconciliationEvent), 1)
	assert.Empty(t, f.events.of(event.SettlementEvent))
}

func TestCreateSell(t *testing.T) {
	f := newFixture(t)
	f.mint(1, alice)
	f.ledger.Mint(collection, 2, alice)

	_, err := f.engine.CreateSell(collection, 1, amount(100), bob)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.engine.CreateSell(collection, 2, amount(100), alice)
	assert.ErrorIs(t, err, ErrNotApproved)

	_, err = f.engine.CreateSell(collection, 1, amount(0), alice)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = f.engine.CreateSell(collection, 99, amount(100), alice)
	assert.ErrorIs(t, err, custody.ErrTokenNotFound)

	listing, err := f.engine.CreateSell(collection, 1, amount(100), alice)
	require.NoError(t, err)
	assert.True(t, listing.Active)
	assert.Equal(t, f.clock.Now(), listing.CreatedAt)

	listing, err = f.engine.CreateSell(collection, 1, amount(150), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(150), listing.Price.Int64())

	listings, err := f.engine.Listings()
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.Len(t, f.events.of(event.ListingCreatedEvent), 2)
}

func TestCreateSell_ReplacesStaleListing(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)

	// sold elsewhere, new owner lists while the old listing is still recorded
	f.mint(1, carol)
	listing, err := f.engine.CreateSell(collection, 1, amount(200), carol)
	require.NoError(t, err)
	assert.Equal(t, carol, listing.Seller)

	listings, err := f.engine.Listings()
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, carol, listings[0].Seller)
	assert.Equal(t, int64(200), listings[0].Price.Int64())

	cancelled := f.events.of(event.ListingCancelledEvent)
	require.Len(t, cancelled, 1)
	assert.Equal(t, alice, cancelled[0].(entity.Listing).Seller)
	assert.False(t, cancelled[0].(entity.Listing).Active)

	assert.ErrorIs(t, f.engine.Cancel(collection, 1, alice), ErrNotSeller)

	f.fund(bob, 200)
	settlement, err := f.engine.Buy(collection, 1, bob, amount(200))
	require.NoError(t, err)
	assert.Equal(t, carol, settlement.Seller)
	assert.Equal(t, bob, f.owner(1))
}

func TestCreateSell_PreviousOwnerCannotRelist(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.mint(1, carol)
	_, err := f.engine.CreateSell(collection, 1, amount(200), carol)
	require.NoError(t, err)

	_, err = f.engine.CreateSell(collection, 1, amount(50), alice)
	assert.ErrorIs(t, err, ErrNotOwner)

	listing, err := f.engine.Listing(collection, 1)
	require.NoError(t, err)
	assert.Equal(t, carol, listing.Seller)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)

	assert.ErrorIs(t, f.engine.Cancel(collection, 1, bob), ErrNotSeller)
	assert.ErrorIs(t, f.engine.Cancel(collection, 2, alice), ErrNoActiveListing)

	require.NoError(t, f.engine.Cancel(collection, 1, alice))
	assert.ErrorIs(t, f.engine.Cancel(collection, 1, alice), ErrNoActiveListing)

	listings, err := f.engine.Listings()
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Len(t, f.events.of(event.ListingCancelledEvent), 1)
}

func TestBulkBuy_SkipsCancelledItem(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.list(2, alice, 200)
	f.list(3, alice, 300)
	f.fund(bob, 1000)
	require.NoError(t, f.engine.Cancel(collection, 2, alice))

	items := []entity.AssetKey{
		entity.NewAssetKey(collection, 1),
		entity.NewAssetKey(collection, 2),
		entity.NewAssetKey(collection, 3),
	}

	result, err := f.engine.BulkBuy(items, bob, amount(600))
	require.NoError(t, err)

	require.Len(t, result.Settlements, 2)
	assert.Equal(t, uint64(1), result.Settlements[0].TokenId)
	assert.Equal(t, uint64(3), result.Settlements[1].TokenId)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, uint64(2), result.Skipped[0].Key.TokenId)
	assert.ErrorIs(t, result.Skipped[0].Err(), ErrNoActiveListing)

	assert.Equal(t, int64(400), result.Spent.Int64())
	assert.Equal(t, int64(200), result.Refund.Int64())
	assert.Equal(t, int64(600), f.balance(bob))
	assert.Equal(t, int64(0), f.balance(escrow))
	assert.Equal(t, bob, f.owner(1))
	assert.Equal(t, alice, f.owner(2))
	assert.Equal(t, bob, f.owner(3))
}

func TestBulkBuy_ExactPaymentForActiveItems(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.list(2, alice, 200)
	f.list(3, alice, 300)
	f.fund(bob, 400)
	require.NoError(t, f.engine.Cancel(collection, 2, alice))

	result, err := f.engine.BulkBuy([]entity.AssetKey{
		entity.NewAssetKey(collection, 1),
		entity.NewAssetKey(collection, 2),
		entity.NewAssetKey(collection, 3),
	}, bob, amount(400))
	require.NoError(t, err)

	assert.Len(t, result.Settlements, 2)
	assert.Equal(t, int64(0), result.Refund.Int64())
	assert.Equal(t, int64(0), f.balance(bob))
}

func TestBulkBuy_InsufficientTotalMovesNothing(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.list(2, alice, 200)
	f.fund(bob, 1000)

	_, err := f.engine.BulkBuy([]entity.AssetKey{
		entity.NewAssetKey(collection, 1),
		entity.NewAssetKey(collection, 2),
	}, bob, amount(299))
	assert.ErrorIs(t, err, ErrTotalInsufficientPayment)

	assert.Equal(t, int64(1000), f.balance(bob))
	assert.Equal(t, alice, f.owner(1))
	assert.Equal(t, alice, f.owner(2))

	listings, err := f.engine.Listings()
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestBulkBuy_SkipsStaleAndDuplicateItems(t *testing.T) {
	f := newFixture(t)
	f.list(1, alice, 100)
	f.list(2, alice, 200)
	f.fund(bob, 1000)
	f.ledger.Mint(collection, 2, carol)

	result, err := f.engine.BulkBuy([]entity.AssetKey{
		entity.NewAssetKey(collection, 1),
		entity.NewAssetKey(collection, 1),
		entity.NewAssetKey(collection, 2),
	}, bob, amount(300))
	require.NoError(t, err)

	require.Len(t, result.Settlements, 1)
	require.Len(t, result.Skipped, 2)
	assert.ErrorIs(t, result.Skipped[0].Err(), ErrNoActiveListing)
	assert.ErrorIs(t, result.Skipped[1].Err(), ErrStaleOwnership)
	assert.Equal(t, int64(200), result.Refund.Int64())
	assert.Equal(t, int64(900), f.balance(bob))
}

func TestBulkBuy_NothingListed(t *testing.T) {
	f := newFixture(t)
	f.fund(bob, 100)

	result, err := f.engine.BulkBuy([]entity.AssetKey{entity.NewAssetKey(collection, 1)}, bob, amount(100))
	require.NoError(t, err)

	assert.Empty(t, result.Settlements)
	assert.Len(t, result.Skipped, 1)
	assert.Equal(t, int64(100), f.balance(bob))
}
