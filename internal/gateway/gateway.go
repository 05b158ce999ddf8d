package gateway

import (
	"fmt"
	"sync/atomic"
	"time"

	"tradegate/internal/domain"
	"tradegate/internal/event"
)

// Gateway is the uniform surface every venue adapter exposes to the
// platform. Venue settings are passed at construction as a validated,
// typed config; Connect establishes the downstream connections.
type Gateway interface {
	Name() string

	// Connect establishes all downstream connections. It is meant to be
	// called once; handshake failures are surfaced as log events and as
	// the returned error, never as a crash.
	Connect() error

	// Subscribe requests streaming updates for one symbol. A duplicate
	// subscription for an already subscribed symbol is a no-op.
	Subscribe(req domain.SubscribeRequest) error

	// SendOrder generates a fresh local id, submits the venue payload and
	// returns the local id. On venue rejection it returns a
	// *domain.SubmissionError and publishes nothing.
	SendOrder(req domain.OrderRequest) (string, error)

	// CancelOrder resolves the remote id through the reconciliation map.
	// An unknown local id is reported and ignored, never raised.
	CancelOrder(req domain.CancelRequest) error

	QueryAccount() error
	QueryPosition() error

	// Close tears down the streaming and REST sessions. Safe to call
	// multiple times and before Connect ever succeeded.
	Close() error
}

// Base carries the pieces common to every adapter: the gateway name,
// the event bus reference and the local order id sequence. Venue
// adapters embed it.
type Base struct {
	name string
	bus  *event.Bus
	seq  int64
}

// NewBase creates the shared adapter core.
func NewBase(name string, bus *event.Bus) Base {
	return Base{name: name, bus: bus}
}

// Name returns the gateway name stamped on every published payload.
func (b *Base) Name() string {
	return b.name
}

// NextLocalID returns a fresh local order identifier. The millisecond
// timestamp keeps ids monotonically distinguishable across restarts,
// the counter closes the same-millisecond collision hole.
func (b *Base) NextLocalID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixMilli(), atomic.AddInt64(&b.seq, 1))
}

// OnTick publishes a canonical tick snapshot.
func (b *Base) OnTick(tick domain.Tick) {
	tick.Gateway = b.name
	b.bus.Publish(event.TypeTick, tick)
}

// OnOrder publishes an order state.
func (b *Base) OnOrder(order domain.Order) {
	order.Gateway = b.name
	b.bus.Publish(event.TypeOrder, order)
}

// OnTrade publishes one fill.
func (b *Base) OnTrade(trade domain.Trade) {
	trade.Gateway = b.name
	b.bus.Publish(event.TypeTrade, trade)
}

// OnAccount publishes an account snapshot.
func (b *Base) OnAccount(account domain.Account) {
	account.Gateway = b.name
	b.bus.Publish(event.TypeAccount, account)
}

// OnPosition publishes a position snapshot.
func (b *Base) OnPosition(pos domain.Position) {
	pos.Gateway = b.name
	b.bus.Publish(event.TypePosition, pos)
}

// OnContract publishes resolved reference data.
func (b *Base) OnContract(contract domain.Contract) {
	contract.Gateway = b.name
	b.bus.Publish(event.TypeContract, contract)
}

// WriteLog surfaces an operational message on the platform log channel.
func (b *Base) WriteLog(msg string) {
	b.bus.Publish(event.TypeLog, domain.LogEntry{
		Message: msg,
		Gateway: b.name,
		Time:    time.Now(),
	})
}
