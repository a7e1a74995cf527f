package marketplace

import (
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"go.uber.org/zap"
	"math/big"
)

type BulkResult struct {
	Settlements []entity.Settlement `json:"settlements"`
	Skipped     []SkippedItem       `json:"skipped"`
	Spent       *big.Int            `json:"spent"`
	Refund      *big.Int            `json:"refund"`
}

type SkippedItem struct {
	Key    entity.AssetKey `json:"key"`
	Reason string          `json:"reason"`
	err    error
}

func (s SkippedItem) Err() error {
	return s.err
}

func (e engine) CreateSell(collection string, tokenId uint64, price *big.Int, seller string) (*entity.Listing, error) {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}
	seller, err = e.party(seller)
	if err != nil {
		return nil, err
	}
	if !entity.IsPositive(price) {
		return nil, ErrInvalidPrice
	}
	if err := e.ownsAndApproved(key, seller); err != nil {
		return nil, err
	}

	// An active listing by anyone else is stale: the seller was just verified as the owner.
	var stale *entity.Listing
	listing, err := e.store.UpsertListing(key, func(listing *entity.Listing, found bool) error {
		if found && listing.Active && listing.Seller != seller {
			prior := *listing
			stale = &prior
		}
		*listing = entity.Listing{
			Collection: key.Collection,
			TokenId:    key.TokenId,
			Seller:     seller,
			Price:      entity.CopyAmount(price),
			Active:     true,
			CreatedAt:  e.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stale != nil {
		stale.Active = false
		zap.L().With(zap.String("asset", key.String()), zap.String("seller", stale.Seller)).
			Warn("Marketplace: Replacing stale listing")
		e.events.Emit(event.ListingCancelledEvent, *stale)
	}

	zap.L().With(
		zap.String("collection", key.Collection),
		zap.Uint64("tokenId", key.TokenId),
		zap.String("seller", seller),
		zap.String("price", price.String()),
	).Info("Marketplace: Listing created")

	e.events.Emit(event.ListingCreatedEvent, *listing)

	return listing, nil
}

func (e engine) Cancel(collection string, tokenId uint64, caller string) error {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return err
	}
	caller, err = entity.NormalizeAddress(caller)
	if err != nil {
		return err
	}

	listing, err := e.store.UpdateListing(key, func(listing *entity.Listing) error {
		if !listing.Active {
			return ErrNoActiveListing
		}
		if listing.Seller != caller {
			return ErrNotSeller
		}
		listing.Active = false
		return nil
	})
	if errors.Is(err, repository.ErrListingNotFound) {
		return ErrNoActiveListing
	}
	if err != nil {
		return err
	}

	e.purgeListing(key)

	zap.L().With(zap.String("asset", key.String()), zap.String("seller", caller)).Info("Marketplace: Listing cancelled")
	e.events.Emit(event.ListingCancelledEvent, *listing)

	return nil
}

func (e engine) Buy(collection string, tokenId uint64, buyer string, payment *big.Int) (*entity.Settlement, error) {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}
	buyer, err = e.party(buyer)
	if err != nil {
		return nil, err
	}

	listing, err := e.claimListing(key, buyer, payment)
	if err != nil {
		return nil, err
	}

	if err := e.bank.Collect(buyer, payment); err != nil {
		e.restoreListing(key)
		return nil, err
	}

	settlement, err := e.settle(settlementRequest{
		kind:   entity.SaleSettlement,
		asset:  key,
		seller: listing.Seller,
		buyer:  buyer,
		holder: listing.Seller,
		price:  listing.Price,
	})
	if errors.Is(err, ErrSettlementIncomplete) {
		return settlement, err
	}
	if err != nil {
		e.rollbackListing(key, err)
		if refundErr := e.refund(buyer, payment, "payment returned"); refundErr != nil {
			return nil, fmt.Errorf("%w: %w: %w", err, ErrRefundIncomplete, refundErr)
		}
		return nil, err
	}

	if err := e.refund(buyer, new(big.Int).Sub(payment, listing.Price), "overpayment"); err != nil {
		return settlement, fmt.Errorf("%w: %w", ErrSettlementIncomplete, err)
	}

	return settlement, nil
}

// BulkBuy buys every listed item it can. The whole call fails if payment does not cover the active listings;
// after that, items that cannot be bought are skipped and their share of payment is refunded.
func (e engine) BulkBuy(items []entity.AssetKey, buyer string, payment *big.Int) (*BulkResult, error) {
	buyer, err := e.party(buyer)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{
		Settlements: make([]entity.Settlement, 0),
		Skipped:     make([]SkippedItem, 0),
		Spent:       new(big.Int),
		Refund:      new(big.Int),
	}

	keys := make([]entity.AssetKey, 0, len(items))
	seen := map[entity.AssetKey]bool{}
	total := new(big.Int)
	for _, item := range items {
		key, err := assetKey(item.Collection, item.TokenId)
		if err != nil {
			result.skip(item, err)
			continue
		}
		if seen[key] {
			result.skip(key, ErrNoActiveListing)
			continue
		}
		seen[key] = true
		keys = append(keys, key)

		listing, err := e.store.GetListing(key)
		if err == nil && listing.Active && listing.Seller != buyer {
			total.Add(total, listing.Price)
		}
	}

	if entity.CopyAmount(payment).Cmp(total) < 0 {
		return nil, fmt.Errorf("%w: %s < %s", ErrTotalInsufficientPayment, entity.AmountString(payment), total)
	}
	if total.Sign() == 0 {
		for _, key := range keys {
			result.skip(key, ErrNoActiveListing)
		}
		return result, nil
	}

	if err := e.bank.Collect(buyer, payment); err != nil {
		return nil, err
	}

	var incomplete error
	for _, key := range keys {
		budget := new(big.Int).Sub(payment, result.Spent)

		listing, err := e.claimListing(key, buyer, budget)
		if err != nil {
			result.skip(key, err)
			continue
		}

		settlement, err := e.settle(settlementRequest{
			kind:   entity.SaleSettlement,
			asset:  key,
			seller: listing.Seller,
			buyer:  buyer,
			holder: listing.Seller,
			price:  listing.Price,
		})
		if errors.Is(err, ErrSettlementIncomplete) {
			// The price stays in escrow with the reconciliation record.
			result.Spent.Add(result.Spent, listing.Price)
			result.skip(key, err)
			incomplete = err
			continue
		}
		if err != nil {
			e.rollbackListing(key, err)
			result.skip(key, err)
			continue
		}

		result.Spent.Add(result.Spent, listing.Price)
		result.Settlements = append(result.Settlements, *settlement)
	}

	result.Refund.Sub(payment, result.Spent)
	if err := e.refund(buyer, result.Refund, "bulk buy change"); err != nil {
		return result, fmt.Errorf("%w: %w", ErrSettlementIncomplete, err)
	}

	zap.L().With(
		zap.String("buyer", buyer),
		zap.Int("settled", len(result.Settlements)),
		zap.Int("skipped", len(result.Skipped)),
		zap.String("spent", result.Spent.String()),
		zap.String("refund", result.Refund.String()),
	).Info("Marketplace: Bulk buy")

	return result, incomplete
}

func (e engine) Listing(collection string, tokenId uint64) (*entity.Listing, error) {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}

	listing, err := e.store.GetListing(key)
	if errors.Is(err, repository.ErrListingNotFound) || (err == nil && !listing.Active) {
		return nil, ErrNoActiveListing
	}

	return listing, err
}

func (e engine) Listings() ([]entity.Listing, error) {
	listings, err := e.store.GetListings()
	if err != nil {
		return nil, err
	}

	active := make([]entity.Listing, 0, len(listings))
	for _, listing := range listings {
		if listing.Active {
			active = append(active, listing)
		}
	}

	return active, nil
}

// claimListing closes the listing for buyer and re-validates the seller. A listing whose seller can no
// longer sell is purged.
func (e engine) claimListing(key entity.AssetKey, buyer string, budget *big.Int) (*entity.Listing, error) {
	listing, err := e.store.UpdateListing(key, func(listing *entity.Listing) error {
		if !listing.Active {
			return ErrNoActiveListing
		}
		if listing.Seller == buyer {
			return ErrSelfPurchase
		}
		if entity.CopyAmount(budget).Cmp(listing.Price) < 0 {
			return fmt.Errorf("%w: %s < %s", ErrInsufficientPayment, entity.AmountString(budget), listing.Price)
		}
		listing.Active = false
		return nil
	})
	if errors.Is(err, repository.ErrListingNotFound) {
		return nil, ErrNoActiveListing
	}
	if err != nil {
		return nil, err
	}

	if err := e.ownsAndApproved(key, listing.Seller); err != nil {
		if errors.Is(err, ErrNotOwner) || errors.Is(err, ErrNotApproved) {
			zap.L().With(zap.Error(err), zap.String("asset", key.String()), zap.String("seller", listing.Seller)).
				Warn("Marketplace: Purging stale listing")
			e.purgeListing(key)
			e.events.Emit(event.ListingCancelledEvent, *listing)
			return nil, fmt.Errorf("%w: %w", ErrStaleOwnership, err)
		}
		e.restoreListing(key)
		return nil, err
	}

	return listing, nil
}

// rollbackListing reopens a claimed listing after a failed settlement, unless the failure shows the seller
// can no longer deliver the asset.
func (e engine) rollbackListing(key entity.AssetKey, err error) {
	if errors.Is(err, ErrOwnershipChanged) || errors.Is(err, custody.ErrNotOwner) || errors.Is(err, custody.ErrNotAuthorized) {
		e.purgeListing(key)
		return
	}
	e.restoreListing(key)
}

func (e engine) restoreListing(key entity.AssetKey) {
	_, err := e.store.UpdateListing(key, func(listing *entity.Listing) error {
		listing.Active = true
		return nil
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("asset", key.String())).Error("Marketplace: Failed to restore listing")
	}
}

func (r *BulkResult) skip(key entity.AssetKey, err error) {
	r.Skipped = append(r.Skipped, SkippedItem{Key: key, Reason: err.Error(), err: err})
}
