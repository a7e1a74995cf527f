package marketplace

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"go.uber.org/zap"
	"math/big"
	"sync"
	"time"
)

// Engine owns the listing, offer and auction records. Every trading path that moves funds ends in a single
// settlement routine which closes the record before calling custody or the bank.
type Engine interface {
	CreateSell(collection string, tokenId uint64, price *big.Int, seller string) (*entity.Listing, error)
	Cancel(collection string, tokenId uint64, caller string) error
	Buy(collection string, tokenId uint64, buyer string, payment *big.Int) (*entity.Settlement, error)
	BulkBuy(items []entity.AssetKey, buyer string, payment *big.Int) (*BulkResult, error)
	Listing(collection string, tokenId uint64) (*entity.Listing, error)
	Listings() ([]entity.Listing, error)

	MakeOffer(collection string, tokenId uint64, offerer string, amount, payment *big.Int) (*entity.Offer, error)
	WithdrawOffer(collection string, tokenId uint64, offerer string) (*entity.Offer, error)
	AcceptOffer(collection string, tokenId uint64, offerer, caller string) (*entity.Settlement, error)
	Offers(collection string, tokenId uint64) ([]entity.Offer, error)

	CreateAuction(collection string, tokenId uint64, seller string, startingPrice, minIncrement *big.Int, startTime, endTime time.Time) (*entity.Auction, error)
	PlaceBid(collection string, tokenId uint64, bidder string, bid, payment *big.Int) (*entity.Auction, error)
	CompleteBid(collection string, tokenId uint64) (*entity.Settlement, error)
	CancelAuction(collection string, tokenId uint64, caller string) error
	Auction(collection string, tokenId uint64) (*entity.Auction, error)

	SetPlatformFee(bps uint, recipient string) error
	PlatformFee() entity.FeeConfig
	Address() string
}

type Option func(e *engine)

func WithClock(now func() time.Time) Option {
	return func(e *engine) {
		e.now = now
	}
}

func WithMarketplace(marketplace entity.Marketplace) Option {
	return func(e *engine) {
		e.marketplace = marketplace
	}
}

type engine struct {
	address     string
	marketplace entity.Marketplace
	store       repository.Store
	custody     custody.Custody
	bank        custody.Bank
	events      event.Emitter
	fees        *feeState
	now         func() time.Time
}

type feeState struct {
	mu     sync.RWMutex
	config entity.FeeConfig
}

// NewEngine creates the engine trading from the escrow account address. Assets and funds held by the
// marketplace belong to that account.
func NewEngine(
	address string,
	store repository.Store,
	assets custody.Custody,
	bank custody.Bank,
	events event.Emitter,
	fees entity.FeeConfig,
	opts ...Option,
) (Engine, error) {
	address, err := entity.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if fees.FeeRecipient != "" {
		fees.FeeRecipient = entity.MustNormalizeAddress(fees.FeeRecipient)
	}
	if err := fees.Validate(); err != nil {
		return nil, err
	}

	e := engine{
		address:     address,
		marketplace: entity.ZilDuckMarketplace,
		store:       store,
		custody:     assets,
		bank:        bank,
		events:      events,
		fees:        &feeState{config: fees},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&e)
	}

	return e, nil
}

func (e engine) Address() string {
	return e.address
}

func (e engine) SetPlatformFee(bps uint, recipient string) error {
	if err := entity.ValidateFeeBps(bps); err != nil {
		return err
	}
	recipient, err := entity.NormalizeAddress(recipient)
	if err != nil {
		return ErrInvalidRecipient
	}

	config := entity.FeeConfig{PlatformFeeBps: bps, FeeRecipient: recipient}

	e.fees.mu.Lock()
	e.fees.config = config
	e.fees.mu.Unlock()

	zap.L().With(zap.Uint("bps", bps), zap.String("recipient", recipient)).Info("Marketplace: Platform fee updated")
	e.events.Emit(event.FeeUpdatedEvent, config)

	return nil
}

func (e engine) PlatformFee() entity.FeeConfig {
	e.fees.mu.RLock()
	defer e.fees.mu.RUnlock()

	return e.fees.config
}

func assetKey(collection string, tokenId uint64) (entity.AssetKey, error) {
	collection, err := entity.NormalizeAddress(collection)
	if err != nil {
		return entity.AssetKey{}, err
	}

	return entity.AssetKey{Collection: collection, TokenId: tokenId}, nil
}

// party normalizes the address of a trading account. The escrow account only ever holds assets and funds on
// behalf of others.
func (e engine) party(address string) (string, error) {
	address, err := entity.NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	if address == e.address {
		return "", ErrEscrowParty
	}

	return address, nil
}

// ownsAndApproved checks that owner holds the asset and the marketplace may transfer it.
func (e engine) ownsAndApproved(key entity.AssetKey, owner string) error {
	current, err := e.custody.OwnerOf(key.Collection, key.TokenId)
	if err != nil {
		return err
	}
	if current != owner {
		return ErrNotOwner
	}

	approved, err := e.custody.IsApproved(key.Collection, key.TokenId, owner, e.address)
	if err != nil {
		return err
	}
	if !approved {
		return ErrNotApproved
	}

	return nil
}

// refund returns funds held in escrow. A failed refund is logged for reconciliation since the record it
// belonged to is already closed.
func (e engine) refund(to string, amount *big.Int, reason string) error {
	if !entity.IsPositive(amount) {
		return nil
	}

	err := e.bank.Disburse([]custody.Payout{custody.NewPayout(to, amount, reason)})
	if err != nil {
		e.reconcile("RefundFailed", err, map[string]interface{}{
			"to":     to,
			"amount": amount.String(),
			"reason": reason,
		})
	}

	return err
}
