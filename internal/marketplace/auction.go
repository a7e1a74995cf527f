package marketplace

import (
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"go.uber.org/zap"
	"math/big"
	"time"
)

// CreateAuction moves the asset into marketplace custody until the auction is completed or cancelled.
func (e engine) CreateAuction(
	collection string,
	tokenId uint64,
	seller string,
	startingPrice, minIncrement *big.Int,
	startTime, endTime time.Time,
) (*entity.Auction, error) {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}
	seller, err = e.party(seller)
	if err != nil {
		return nil, err
	}
	if !entity.IsPositive(startingPrice) {
		return nil, ErrInvalidPrice
	}
	if !entity.IsPositive(minIncrement) {
		return nil, ErrInvalidIncrement
	}
	if !startTime.Before(endTime) || !e.now().Before(endTime) {
		return nil, ErrInvalidWindow
	}
	if err := e.ownsAndApproved(key, seller); err != nil {
		return nil, err
	}

	var previous *entity.Auction
	auction, err := e.store.UpsertAuction(key, func(auction *entity.Auction, found bool) error {
		if found && !auction.Settled {
			return ErrAuctionExists
		}
		if found {
			prior := *auction
			previous = &prior
		}
		*auction = entity.Auction{
			Collection:    key.Collection,
			TokenId:       key.TokenId,
			Seller:        seller,
			StartingPrice: entity.CopyAmount(startingPrice),
			MinIncrement:  entity.CopyAmount(minIncrement),
			StartTime:     startTime,
			EndTime:       endTime,
			HighestBid:    new(big.Int),
			Bids:          make([]entity.Bid, 0),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.custody.Transfer(key.Collection, key.TokenId, seller, e.address); err != nil {
		e.releaseAuction(key, previous)
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	e.purgeListing(key)

	zap.L().With(
		zap.String("asset", key.String()),
		zap.String("seller", seller),
		zap.String("startingPrice", startingPrice.String()),
		zap.String("minIncrement", minIncrement.String()),
		zap.Time("start", startTime),
		zap.Time("end", endTime),
	).Info("Marketplace: Auction created")

	e.events.Emit(event.AuctionCreatedEvent, *auction)

	return auction, nil
}

// PlaceBid escrows the bid and refunds the bidder it displaces.
func (e engine) PlaceBid(collection string, tokenId uint64, bidder string, bid, payment *big.Int) (*entity.Auction, error) {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}
	bidder, err = e.party(bidder)
	if err != nil {
		return nil, err
	}
	if !entity.IsPositive(bid) {
		return nil, ErrBidTooLow
	}
	if payment == nil || payment.Cmp(bid) != 0 {
		return nil, fmt.Errorf("%w: payment %s, bid %s", ErrPaymentMismatch, entity.AmountString(payment), bid)
	}

	current, err := e.getAuction(key)
	if err != nil {
		return nil, err
	}
	if err := e.acceptsBid(*current, bidder, bid); err != nil {
		return nil, err
	}

	if err := e.bank.Collect(bidder, payment); err != nil {
		return nil, err
	}

	var outbid *entity.Bid
	auction, err := e.store.UpdateAuction(key, func(auction *entity.Auction) error {
		if err := e.acceptsBid(*auction, bidder, bid); err != nil {
			return err
		}
		if auction.HasBid() {
			outbid = &entity.Bid{Bidder: auction.HighestBidder, Amount: entity.CopyAmount(auction.HighestBid)}
		}

		placed := entity.Bid{Bidder: bidder, Amount: entity.CopyAmount(bid), PlacedAt: e.now()}
		auction.HighestBid = placed.Amount
		auction.HighestBidder = bidder
		auction.Bids = append(auction.Bids, placed)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrAuctionNotFound) {
			err = ErrNoSuchAuction
		}
		if refundErr := e.refund(bidder, payment, "bid rejected"); refundErr != nil {
			return nil, fmt.Errorf("%w: %w: %w", err, ErrRefundIncomplete, refundErr)
		}
		return nil, err
	}

	var refundErr error
	if outbid != nil {
		if err := e.refund(outbid.Bidder, outbid.Amount, "outbid"); err != nil {
			refundErr = fmt.Errorf("%w: %w", ErrRefundIncomplete, err)
		}
	}

	zap.L().With(
		zap.String("asset", key.String()),
		zap.String("bidder", bidder),
		zap.String("bid", bid.String()),
	).Info("Marketplace: Bid placed")

	e.events.Emit(event.BidPlacedEvent, *auction)

	return auction, refundErr
}

// CompleteBid settles an ended auction exactly once. Without bids the asset goes back to the seller.
func (e engine) CompleteBid(collection string, tokenId uint64) (*entity.Settlement, error) {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}

	now := e.now()
	auction, err := e.store.UpdateAuction(key, func(auction *entity.Auction) error {
		if auction.Settled {
			return ErrAlreadySettled
		}
		if now.Before(auction.EndTime) {
			return ErrAuctionStillOpen
		}
		auction.Settled = true
		auction.SettledAt = now
		return nil
	})
	if errors.Is(err, repository.ErrAuctionNotFound) {
		return nil, ErrNoSuchAuction
	}
	if err != nil {
		return nil, err
	}

	if !auction.HasBid() {
		return e.returnUnsold(*auction)
	}

	settlement, err := e.settle(settlementRequest{
		kind:   entity.AuctionSettlement,
		asset:  key,
		seller: auction.Seller,
		buyer:  auction.HighestBidder,
		holder: e.address,
		price:  auction.HighestBid,
	})
	if err != nil && !errors.Is(err, ErrSettlementIncomplete) {
		e.unsettle(key)
		return nil, err
	}

	return settlement, err
}

// CancelAuction returns the asset to the seller of an auction nobody has bid on.
func (e engine) CancelAuction(collection string, tokenId uint64, caller string) error {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return err
	}
	caller, err = entity.NormalizeAddress(caller)
	if err != nil {
		return err
	}

	auction, err := e.store.UpdateAuction(key, func(auction *entity.Auction) error {
		if auction.Settled {
			return ErrAlreadySettled
		}
		if auction.Seller != caller {
			return ErrNotSeller
		}
		if auction.HasBid() {
			return ErrAuctionHasBids
		}
		auction.Settled = true
		auction.SettledAt = e.now()
		return nil
	})
	if errors.Is(err, repository.ErrAuctionNotFound) {
		return ErrNoSuchAuction
	}
	if err != nil {
		return err
	}

	if err := e.custody.Transfer(key.Collection, key.TokenId, e.address, auction.Seller); err != nil {
		e.unsettle(key)
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if err := e.store.DeleteAuction(key); err != nil {
		zap.L().With(zap.Error(err), zap.String("asset", key.String())).Error("Marketplace: Failed to delete auction")
	}

	zap.L().With(zap.String("asset", key.String()), zap.String("seller", caller)).Info("Marketplace: Auction cancelled")
	e.events.Emit(event.AuctionCancelledEvent, *auction)

	return nil
}

func (e engine) Auction(collection string, tokenId uint64) (*entity.Auction, error) {
	key, err := assetKey(collection, tokenId)
	if err != nil {
		return nil, err
	}

	return e.getAuction(key)
}

func (e engine) getAuction(key entity.AssetKey) (*entity.Auction, error) {
	auction, err := e.store.GetAuction(key)
	if errors.Is(err, repository.ErrAuctionNotFound) {
		return nil, ErrNoSuchAuction
	}

	return auction, err
}

func (e engine) acceptsBid(auction entity.Auction, bidder string, bid *big.Int) error {
	if auction.State(e.now()) != entity.AuctionOpen {
		return ErrAuctionNotOpen
	}
	if auction.Seller == bidder {
		return ErrSellerBid
	}
	if minimum := auction.MinimumBid(); bid.Cmp(minimum) < 0 {
		return fmt.Errorf("%w: needs at least %s", ErrBidTooLow, minimum)
	}

	return nil
}

func (e engine) returnUnsold(auction entity.Auction) (*entity.Settlement, error) {
	key := auction.Key()
	if err := e.custody.Transfer(key.Collection, key.TokenId, e.address, auction.Seller); err != nil {
		e.unsettle(key)
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	settlement := entity.Settlement{
		Id:             newSettlementId(),
		Kind:           entity.NoSaleSettlement,
		Marketplace:    e.marketplace,
		Collection:     key.Collection,
		TokenId:        key.TokenId,
		Seller:         auction.Seller,
		Buyer:          auction.Seller,
		Price:          new(big.Int),
		Royalty:        new(big.Int),
		PlatformFee:    new(big.Int),
		SellerProceeds: new(big.Int),
		SettledAt:      auction.SettledAt,
	}

	zap.L().With(zap.String("asset", key.String()), zap.String("seller", auction.Seller)).Info("Marketplace: Auction ended without bids")
	e.events.Emit(event.SettlementEvent, settlement)

	return &settlement, nil
}

func (e engine) unsettle(key entity.AssetKey) {
	_, err := e.store.UpdateAuction(key, func(auction *entity.Auction) error {
		auction.Settled = false
		auction.SettledAt = time.Time{}
		return nil
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("asset", key.String())).Error("Marketplace: Failed to reopen auction")
	}
}

// releaseAuction drops a reservation whose asset never reached custody.
func (e engine) releaseAuction(key entity.AssetKey, previous *entity.Auction) {
	var err error
	if previous != nil {
		err = e.store.SaveAuction(*previous)
	} else {
		err = e.store.DeleteAuction(key)
	}
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("asset", key.String())).Error("Marketplace: Failed to release auction")
	}
}
