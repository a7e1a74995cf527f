package marketplace

import (
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/dev"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
	"math/big"
)

type settlementRequest struct {
	kind   entity.SettlementKind
	asset  entity.AssetKey
	seller string
	buyer  string
	// holder is the account the asset is transferred from: the seller, or the marketplace for auctions.
	holder string
	price  *big.Int
}

// settle transfers the asset and disburses the sale price. The caller must already have closed the record
// and hold price in escrow. Any error other than ErrSettlementIncomplete means nothing moved and the caller
// must roll its claim back.
func (e engine) settle(req settlementRequest) (*entity.Settlement, error) {
	royalty, err := e.custody.RoyaltyOf(req.asset.Collection)
	if err != nil {
		return nil, err
	}
	feeConfig := e.PlatformFee()

	fees, err := CalculateFees(req.price, royalty.Bps, feeConfig.PlatformFeeBps)
	if err != nil {
		e.logSettlementError(req, err, "Fee calculation failed")
		return nil, err
	}

	owner, err := e.custody.OwnerOf(req.asset.Collection, req.asset.TokenId)
	if err != nil {
		return nil, err
	}
	if owner != req.holder {
		e.logSettlementError(req, ErrOwnershipChanged, "Asset owner changed before transfer")
		return nil, fmt.Errorf("%w: expected %s, found %s", ErrOwnershipChanged, req.holder, owner)
	}

	if err := e.custody.Transfer(req.asset.Collection, req.asset.TokenId, req.holder, req.buyer); err != nil {
		e.logSettlementError(req, err, "Asset transfer failed")
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	settlement := entity.Settlement{
		Id:               newSettlementId(),
		Kind:             req.kind,
		Marketplace:      e.marketplace,
		Collection:       req.asset.Collection,
		TokenId:          req.asset.TokenId,
		Seller:           req.seller,
		Buyer:            req.buyer,
		Price:            entity.CopyAmount(req.price),
		Royalty:          fees.Royalty,
		RoyaltyBps:       royalty.Bps,
		RoyaltyRecipient: royalty.Recipient,
		PlatformFee:      fees.PlatformFee,
		PlatformFeeBps:   feeConfig.PlatformFeeBps,
		FeeRecipient:     feeConfig.FeeRecipient,
		SellerProceeds:   fees.SellerProceeds,
		SettledAt:        e.now(),
	}

	payouts := make([]custody.Payout, 0, 3)
	if fees.Royalty.Sign() > 0 {
		payouts = append(payouts, custody.NewPayout(royalty.Recipient, fees.Royalty, "royalty"))
	}
	if fees.PlatformFee.Sign() > 0 {
		payouts = append(payouts, custody.NewPayout(feeConfig.FeeRecipient, fees.PlatformFee, "platform fee"))
	}
	if fees.SellerProceeds.Sign() > 0 {
		payouts = append(payouts, custody.NewPayout(req.seller, fees.SellerProceeds, "proceeds"))
	}

	e.purgeListing(req.asset)

	if err := e.bank.Disburse(payouts); err != nil {
		e.reconcile("DisburseFailed", err, map[string]interface{}{
			"settlement": settlement.Id,
			"kind":       string(settlement.Kind),
			"collection": settlement.Collection,
			"tokenId":    settlement.TokenId,
			"seller":     settlement.Seller,
			"buyer":      settlement.Buyer,
			"price":      settlement.Price.String(),
		})
		return &settlement, fmt.Errorf("%w: %w", ErrSettlementIncomplete, err)
	}

	zap.L().With(
		zap.String("id", settlement.Id),
		zap.String("kind", string(settlement.Kind)),
		zap.String("collection", settlement.Collection),
		zap.Uint64("tokenId", settlement.TokenId),
		zap.String("seller", settlement.Seller),
		zap.String("buyer", settlement.Buyer),
		zap.String("price", settlement.Price.String()),
		zap.String("royalty", settlement.Royalty.String()),
		zap.String("platformFee", settlement.PlatformFee.String()),
	).Info("Marketplace: Settled")

	e.events.Emit(event.SettlementEvent, settlement)

	return &settlement, nil
}

// purgeListing removes any listing on an asset whose ownership has changed.
func (e engine) purgeListing(key entity.AssetKey) {
	if err := e.store.DeleteListing(key); err != nil && !errors.Is(err, repository.ErrListingNotFound) {
		zap.L().With(zap.Error(err), zap.String("asset", key.String())).Error("Marketplace: Failed to purge listing")
	}
}

func (e engine) reconcile(name string, err error, extra map[string]interface{}) {
	devErr := dev.NewError("Settlement", name, err, extra)

	zap.L().With(
		zap.Error(err),
		zap.String("reconciliation", devErr.Id),
		zap.Any("extra", extra),
	).Error("Marketplace: Funds held in escrow for reconciliation")

	e.events.Emit(event.ReconciliationEvent, devErr)
}

func (e engine) logSettlementError(req settlementRequest, err error, msg string) {
	zap.L().With(
		zap.Error(err),
		zap.String("kind", string(req.kind)),
		zap.String("asset", req.asset.String()),
		zap.String("seller", req.seller),
		zap.String("buyer", req.buyer),
		zap.String("price", entity.AmountString(req.price)),
	).Error("Marketplace: " + msg)
}

func newSettlementId() string {
	u, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return u.String()
}
