package custody

import (
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"go.uber.org/zap"
	"math/big"
	"sync"
)

// Ledger is an in-process ZRC6 style token ledger with native balances. It implements both Custody and Bank.
type Ledger struct {
	mu        sync.Mutex
	escrow    string
	owners    map[entity.AssetKey]string
	spenders  map[entity.AssetKey]string
	operators map[string]map[string]bool
	royalties map[string]entity.Royalty
	balances  map[string]*big.Int
}

func NewLedger(escrow string) *Ledger {
	return &Ledger{
		escrow:    entity.MustNormalizeAddress(escrow),
		owners:    map[entity.AssetKey]string{},
		spenders:  map[entity.AssetKey]string{},
		operators: map[string]map[string]bool{},
		royalties: map[string]entity.Royalty{},
		balances:  map[string]*big.Int{},
	}
}

func (l *Ledger) Escrow() string {
	return l.escrow
}

func (l *Ledger) Mint(collection string, tokenId uint64, owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.owners[entity.NewAssetKey(collection, tokenId)] = entity.MustNormalizeAddress(owner)
}

// Approve sets the single-token spender, mirroring ZRC6 SetSpender.
func (l *Ledger) Approve(collection string, tokenId uint64, owner, spender string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := entity.NewAssetKey(collection, tokenId)
	current, ok := l.owners[key]
	if !ok {
		return ErrTokenNotFound
	}
	if current != entity.MustNormalizeAddress(owner) {
		return ErrNotOwner
	}

	if spender == "" {
		delete(l.spenders, key)
		return nil
	}
	l.spenders[key] = entity.MustNormalizeAddress(spender)

	return nil
}

func (l *Ledger) SetOperator(owner, operator string, approved bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner = entity.MustNormalizeAddress(owner)
	if _, ok := l.operators[owner]; !ok {
		l.operators[owner] = map[string]bool{}
	}
	l.operators[owner][entity.MustNormalizeAddress(operator)] = approved
}

func (l *Ledger) SetRoyalty(collection string, royalty entity.Royalty) error {
	if err := royalty.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if royalty.Recipient != "" {
		royalty.Recipient = entity.MustNormalizeAddress(royalty.Recipient)
	}
	l.royalties[entity.MustNormalizeAddress(collection)] = royalty

	return nil
}

func (l *Ledger) Credit(account string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.add(entity.MustNormalizeAddress(account), amount)
}

func (l *Ledger) BalanceOf(account string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return entity.CopyAmount(l.balances[entity.MustNormalizeAddress(account)])
}

func (l *Ledger) Transfer(collection string, tokenId uint64, from, to string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := entity.NewAssetKey(collection, tokenId)
	from = entity.MustNormalizeAddress(from)
	to = entity.MustNormalizeAddress(to)

	owner, ok := l.owners[key]
	if !ok {
		return ErrTokenNotFound
	}
	if owner != from {
		return ErrNotOwner
	}
	if !l.authorized(key, owner, l.escrow) {
		return ErrNotAuthorized
	}

	l.owners[key] = to
	delete(l.spenders, key)

	zap.L().With(
		zap.String("collection", key.Collection),
		zap.Uint64("tokenId", tokenId),
		zap.String("from", from),
		zap.String("to", to),
	).Debug("Ledger: Transfer")

	return nil
}

func (l *Ledger) OwnerOf(collection string, tokenId uint64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[entity.NewAssetKey(collection, tokenId)]
	if !ok {
		return "", ErrTokenNotFound
	}

	return owner, nil
}

func (l *Ledger) IsApproved(collection string, tokenId uint64, owner, operator string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := entity.NewAssetKey(collection, tokenId)
	current, ok := l.owners[key]
	if !ok {
		return false, ErrTokenNotFound
	}
	if current != entity.MustNormalizeAddress(owner) {
		return false, nil
	}

	return l.authorized(key, current, entity.MustNormalizeAddress(operator)), nil
}

func (l *Ledger) RoyaltyOf(collection string) (entity.Royalty, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.royalties[entity.MustNormalizeAddress(collection)], nil
}

func (l *Ledger) Collect(from string, amount *big.Int) error {
	if !entity.IsPositive(amount) {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from = entity.MustNormalizeAddress(from)
	if l.balance(from).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, l.balance(from), amount)
	}

	l.add(from, new(big.Int).Neg(amount))
	l.add(l.escrow, amount)

	return nil
}

func (l *Ledger) Disburse(payouts []Payout) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := TotalPayout(payouts)
	if l.balance(l.escrow).Cmp(total) < 0 {
		return fmt.Errorf("%w: escrow has %s, payouts total %s", ErrInsufficientEscrow, l.balance(l.escrow), total)
	}

	for _, p := range payouts {
		if !entity.IsPositive(p.Amount) {
			continue
		}
		l.add(l.escrow, new(big.Int).Neg(p.Amount))
		l.add(entity.MustNormalizeAddress(p.To), p.Amount)
	}

	return nil
}

func (l *Ledger) authorized(key entity.AssetKey, owner, operator string) bool {
	if owner == operator {
		return true
	}
	if l.spenders[key] == operator {
		return true
	}

	return l.operators[owner][operator]
}

func (l *Ledger) balance(account string) *big.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return new(big.Int)
}

func (l *Ledger) add(account string, amount *big.Int) {
	l.balances[account] = new(big.Int).Add(l.balance(account), amount)
}

var (
	_ Custody = (*Ledger)(nil)
	_ Bank    = (*Ledger)(nil)
)
