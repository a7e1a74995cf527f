package marketplace

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/custody"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"github.com/stretchr/testify/require"
	"math/big"
	"sync"
	"testing"
	"time"
)

const (
	escrow     = "0x00000000000000000000000000000000000e5c20"
	collection = "0x000000000000000000000000000000000000c011"
	alice      = "0x00000000000000000000000000000000000a11ce"
	bob        = "0x0000000000000000000000000000000000000b0b"
	carol      = "0x000000000000000000000000000000000000ca20"
	dave       = "0x000000000000000000000000000000000000da5e"
	creator    = "0x00000000000000000000000000000000c2ea7020"
	treasury   = "0x00000000000000000000000000000000007ea500"
)

type recorded struct {
	eventType event.Type
	msg       interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *recorder) Emit(eventType event.Type, msg interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, recorded{eventType, msg})
}

func (r *recorder) of(eventType event.Type) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := make([]interface{}, 0)
	for _, e := range r.events {
		if e.eventType == eventType {
			msgs = append(msgs, e.msg)
		}
	}
	return msgs
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// interceptCustody runs beforeTransfer once ahead of the next transfer and can refuse transfers.
type interceptCustody struct {
	*custody.Ledger
	mu             sync.Mutex
	beforeTransfer func()
	transferErr    error
}

func (c *interceptCustody) Transfer(collection string, tokenId uint64, from, to string) error {
	c.mu.Lock()
	hook := c.beforeTransfer
	c.beforeTransfer = nil
	transferErr := c.transferErr
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	if transferErr != nil {
		return transferErr
	}

	return c.Ledger.Transfer(collection, tokenId, from, to)
}

// failingBank collects normally and refuses every disbursement.
type failingBank struct {
	*custody.Ledger
	err error
}

func (b failingBank) Disburse([]custody.Payout) error {
	return b.err
}

type fixture struct {
	t       *testing.T
	ledger  *custody.Ledger
	custody *interceptCustody
	store   repository.Store
	events  *recorder
	clock   *testClock
	engine  Engine
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithBank(t, nil)
}

func newFixtureWithBank(t *testing.T, newBank func(ledger *custody.Ledger) custody.Bank) *fixture {
	ledger := custody.NewLedger(escrow)
	require.NoError(t, ledger.SetRoyalty(collection, entity.Royalty{Bps: 1000, Recipient: creator}))

	var bank custody.Bank = ledger
	if newBank != nil {
		bank = newBank(ledger)
	}

	f := &fixture{
		t:       t,
		ledger:  ledger,
		custody: &interceptCustody{Ledger: ledger},
		store:   repository.NewMemoryStore(),
		events:  &recorder{},
		clock:   &testClock{now: time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	engine, err := NewEngine(
		escrow,
		f.store,
		f.custody,
		bank,
		f.events,
		entity.FeeConfig{PlatformFeeBps: 10000, FeeRecipient: treasury},
		WithClock(f.clock.Now),
	)
	require.NoError(t, err)
	f.engine = engine

	return f
}

// mint gives owner the token and approves the marketplace to transfer it.
func (f *fixture) mint(tokenId uint64, owner string) {
	f.ledger.Mint(collection, tokenId, owner)
	require.NoError(f.t, f.ledger.Approve(collection, tokenId, owner, escrow))
}

func (f *fixture) fund(account string, amount int64) {
	f.ledger.Credit(account, big.NewInt(amount))
}

func (f *fixture) balance(account string) int64 {
	return f.ledger.BalanceOf(account).Int64()
}

func (f *fixture) owner(tokenId uint64) string {
	owner, err := f.ledger.OwnerOf(collection, tokenId)
	require.NoError(f.t, err)
	return owner
}

func (f *fixture) list(tokenId uint64, seller string, price int64) {
	f.mint(tokenId, seller)
	_, err := f.engine.CreateSell(collection, tokenId, big.NewInt(price), seller)
	require.NoError(f.t, err)
}

func amount(v int64) *big.Int {
	return big.NewInt(v)
}
