package marketplace

import (
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"go.uber.org/zap"
	"math/big"
)

// MakeOffer escrows payment for the asset. An earlier offer from the same offerer is replaced: its escrow counts
// towards the new amount and only the difference is collected or returned.
func (e engine) MakeOffer(collection string, tokenId uint64, offerer string, amount, payment *big.Int) (*entity.Offer, error) {
	asset, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}
	offerer, err = e.party(offerer)
	if err != nil {
		return nil, err
	}
	if !entity.IsPositive(amount) {
		return nil, ErrZeroAmount
	}
	if payment == nil || payment.Cmp(amount) != 0 {
		return nil, fmt.Errorf("%w: payment %s, amount %s", ErrAmountMismatch, entity.AmountString(payment), amount)
	}

	owner, err := e.custody.OwnerOf(asset.Collection, asset.TokenId)
	if err != nil {
		return nil, err
	}
	if owner == offerer {
		return nil, ErrSelfPurchase
	}

	key := entity.OfferKey{AssetKey: asset, Offerer: offerer}
	previous, err := e.lockOffer(key)
	if err != nil {
		return nil, err
	}

	held := new(big.Int)
	if previous != nil {
		held = entity.CopyAmount(previous.Escrow)
	}
	delta := new(big.Int).Sub(payment, held)
	switch delta.Sign() {
	case 1:
		if err := e.bank.Collect(offerer, delta); err != nil {
			e.releaseOffer(key, previous)
			return nil, err
		}
	case -1:
		if err := e.refund(offerer, new(big.Int).Neg(delta), "offer lowered"); err != nil {
			e.releaseOffer(key, previous)
			return nil, fmt.Errorf("%w: %w", ErrRefundIncomplete, err)
		}
	}

	offer := entity.Offer{
		Collection: asset.Collection,
		TokenId:    asset.TokenId,
		Offerer:    offerer,
		Amount:     entity.CopyAmount(amount),
		Escrow:     entity.CopyAmount(payment),
		Active:     true,
		CreatedAt:  e.now(),
	}
	if err := e.store.SaveOffer(offer); err != nil {
		e.releaseOffer(key, previous)
		if delta.Sign() > 0 {
			if refundErr := e.refund(offerer, delta, "offer not recorded"); refundErr != nil {
				return nil, fmt.Errorf("%w: %w: %w", err, ErrRefundIncomplete, refundErr)
			}
		}
		return nil, err
	}

	zap.L().With(
		zap.String("asset", asset.String()),
		zap.String("offerer", offerer),
		zap.String("amount", amount.String()),
		zap.String("held", held.String()),
	).Info("Marketplace: Offer made")

	e.events.Emit(event.OfferMadeEvent, offer)

	return &offer, nil
}

func (e engine) WithdrawOffer(collection string, tokenId uint64, offerer string) (*entity.Offer, error) {
	asset, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}
	offerer, err = entity.NormalizeAddress(offerer)
	if err != nil {
		return nil, err
	}
	key := entity.OfferKey{AssetKey: asset, Offerer: offerer}

	offer, err := e.claimOffer(key)
	if err != nil {
		return nil, err
	}

	if err := e.refund(offerer, offer.Escrow, "offer withdrawn"); err != nil {
		e.restoreOffer(key)
		return nil, err
	}
	e.deleteOffer(key)

	zap.L().With(zap.String("asset", asset.String()), zap.String("offerer", offerer)).Info("Marketplace: Offer withdrawn")
	e.events.Emit(event.OfferWithdrawnEvent, *offer)

	return offer, nil
}

// AcceptOffer sells the asset to offerer for the escrowed amount. Other offers on the asset are untouched.
func (e engine) AcceptOffer(collection string, tokenId uint64, offerer, caller string) (*entity.Settlement, error) {
	asset, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}
	offerer, err = e.party(offerer)
	if err != nil {
		return nil, err
	}
	caller, err = e.party(caller)
	if err != nil {
		return nil, err
	}

	if err := e.ownsAndApproved(asset, caller); err != nil {
		if errors.Is(err, ErrNotOwner) {
			return nil, ErrNotSeller
		}
		return nil, err
	}
	if offerer == caller {
		return nil, ErrSelfPurchase
	}

	key := entity.OfferKey{AssetKey: asset, Offerer: offerer}
	offer, err := e.claimOffer(key)
	if err != nil {
		return nil, err
	}

	settlement, err := e.settle(settlementRequest{
		kind:   entity.OfferSettlement,
		asset:  asset,
		seller: caller,
		buyer:  offerer,
		holder: caller,
		price:  offer.Escrow,
	})
	if err != nil && !errors.Is(err, ErrSettlementIncomplete) {
		e.restoreOffer(key)
		return nil, err
	}
	e.deleteOffer(key)

	return settlement, err
}

func (e engine) Offers(collection string, tokenId uint64) ([]entity.Offer, error) {
	asset, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}

	offers, err := e.store.GetOffersForAsset(asset)
	if err != nil {
		return nil, err
	}

	active := make([]entity.Offer, 0, len(offers))
	for _, offer := range offers {
		if offer.Active {
			active = append(active, offer)
		}
	}

	return active, nil
}

func (e engine) claimOffer(key entity.OfferKey) (*entity.Offer, error) {
	offer, err := e.store.UpdateOffer(key, func(offer *entity.Offer) error {
		if !offer.Active {
			return ErrNoSuchOffer
		}
		offer.Active = false
		return nil
	})
	if errors.Is(err, repository.ErrOfferNotFound) {
		return nil, ErrNoSuchOffer
	}

	return offer, err
}

// lockOffer marks the offerer's record as in progress. A new record is reserved empty; an existing one is
// returned as it was.
func (e engine) lockOffer(key entity.OfferKey) (*entity.Offer, error) {
	var previous *entity.Offer
	_, err := e.store.UpsertOffer(key, func(offer *entity.Offer, found bool) error {
		if found && !offer.Active {
			return ErrOfferLocked
		}
		if found {
			prior := *offer
			previous = &prior
			offer.Active = false
			return nil
		}
		*offer = entity.Offer{
			Collection: key.Collection,
			TokenId:    key.TokenId,
			Offerer:    key.Offerer,
			Amount:     new(big.Int),
			Escrow:     new(big.Int),
			CreatedAt:  e.now(),
		}
		return nil
	})

	return previous, err
}

// releaseOffer undoes lockOffer.
func (e engine) releaseOffer(key entity.OfferKey, previous *entity.Offer) {
	if previous == nil {
		e.deleteOffer(key)
		return
	}
	if err := e.store.SaveOffer(*previous); err != nil {
		zap.L().With(zap.Error(err), zap.String("offer", key.Slug())).Error("Marketplace: Failed to restore offer")
	}
}

func (e engine) restoreOffer(key entity.OfferKey) {
	_, err := e.store.UpdateOffer(key, func(offer *entity.Offer) error {
		offer.Active = true
		return nil
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("offer", key.Slug())).Error("Marketplace: Failed to restore offer")
	}
}

func (e engine) deleteOffer(key entity.OfferKey) {
	if err := e.store.DeleteOffer(key); err != nil {
		zap.L().With(zap.Error(err), zap.String("offer", key.Slug())).Error("Marketplace: Failed to delete offer")
	}
}
