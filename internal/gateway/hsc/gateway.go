package hsc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tradegate/internal/domain"
	"tradegate/internal/event"
	"tradegate/internal/gateway"
	"tradegate/internal/infra"
)

// Gateway adapts the venue's REST + pub/sub API to the canonical
// trading surface. All mutable state (tick cache, order cache,
// reconciliation map, subscription set) is owned by one loop goroutine:
// public methods marshal their work onto the loop and block until it
// completes, streaming callbacks post onto the same loop. That
// serializes every state transition without per-map locking.
type Gateway struct {
	gateway.Base
	cfg    infra.HscConfig
	logger *slog.Logger

	rest   *RestClient
	socket *SocketClient
	idMap  *gateway.OrderIDMap

	started   atomic.Bool
	tasks     chan func()
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	// owned by the loop goroutine
	ticks      map[string]*domain.Tick
	orders     map[string]*domain.Order
	subscribed map[string]struct{}
}

// New creates the gateway. Connect must be called before any other
// operation.
func New(cfg infra.HscConfig, bus *event.Bus) *Gateway {
	g := &Gateway{
		Base:   gateway.NewBase(GatewayName, bus),
		cfg:    cfg,
		logger: slog.Default().With("gateway", GatewayName),

		idMap: gateway.NewOrderIDMap(),
		tasks: make(chan func(), 256),

		ticks:      make(map[string]*domain.Tick),
		orders:     make(map[string]*domain.Order),
		subscribed: make(map[string]struct{}),
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())
	return g
}

// Connect validates the settings, starts the loop and the streaming
// session, then performs the initial bulk contract fetch and the first
// account/position queries. Handshake failures are surfaced as log
// events and returned; they never terminate the host process.
func (g *Gateway) Connect() error {
	if err := g.cfg.Validate(); err != nil {
		g.WriteLog("connect failed: " + err.Error())
		return err
	}
	if !g.started.CompareAndSwap(false, true) {
		return errors.New("connect called twice")
	}

	g.rest = NewRestClient(g.cfg)
	g.socket = NewSocketClient(g.cfg.StreamURL, g.handleTickData, g.handleOrderData)

	g.wg.Add(1)
	go g.run()

	g.socket.Start(g.ctx)
	g.WriteLog("stream client started")

	if err := g.fetchContracts(); err != nil {
		g.WriteLog("contract fetch failed: " + err.Error())
		return err
	}
	g.WriteLog("contracts fetched")

	// order status pushes arrive on the account's channel
	g.socket.Subscribe(orderChannelPrefix + g.cfg.AccountID)

	if err := g.QueryAccount(); err != nil {
		g.WriteLog("account query failed: " + err.Error())
	}
	if err := g.QueryPosition(); err != nil {
		g.WriteLog("position query failed: " + err.Error())
	}
	return nil
}

// run is the dedicated event loop owning all gateway state.
func (g *Gateway) run() {
	defer g.wg.Done()
	for {
		select {
		case <-g.ctx.Done():
			return
		case f := <-g.tasks:
			f()
		}
	}
}

// runOnLoop schedules f onto the loop and blocks the caller until it
// has run.
func (g *Gateway) runOnLoop(f func() error) error {
	if !g.started.Load() {
		return domain.ErrNotConnected
	}

	done := make(chan error, 1)
	select {
	case g.tasks <- func() { done <- f() }:
	case <-g.ctx.Done():
		return domain.ErrNotConnected
	}

	select {
	case err := <-done:
		return err
	case <-g.ctx.Done():
		return domain.ErrNotConnected
	}
}

// post schedules f onto the loop without waiting. Used by streaming
// callbacks.
func (g *Gateway) post(f func()) {
	select {
	case g.tasks <- f:
	case <-g.ctx.Done():
	}
}

// fetchContracts pulls the bulk reference data and publishes every
// resolved contract. An unmapped product code aborts the fetch:
// reference-data ingestion is strict.
func (g *Gateway) fetchContracts() error {
	var refs []tickerRef
	if err := g.rest.GetJSON(g.ctx, g.cfg.ReferenceURL, &refs); err != nil {
		return err
	}

	return g.runOnLoop(func() error {
		for _, ref := range refs {
			contract, err := toContract(ref)
			if err != nil {
				return err
			}
			g.OnContract(contract)
		}
		g.logger.Info("contracts resolved", slog.Int("count", len(refs)))
		return nil
	})
}

// Subscribe requests streaming ticks for one symbol. A duplicate
// subscription is a no-op; the call fails when the stream client was
// never started.
func (g *Gateway) Subscribe(req domain.SubscribeRequest) error {
	return g.runOnLoop(func() error {
		if _, ok := g.subscribed[req.Symbol]; ok {
			return nil
		}
		if err := g.socket.Subscribe(tickChannelPrefix + req.Symbol); err != nil {
			return err
		}
		g.subscribed[req.Symbol] = struct{}{}
		g.WriteLog("subscribed to " + req.Symbol)
		return nil
	})
}

// SendOrder submits the order and returns the fresh local id. Both
// reconciliation entries are inserted before the method returns, and a
// preliminary SUBMITTING order is published. On venue rejection the
// method returns a *domain.SubmissionError and publishes nothing.
func (g *Gateway) SendOrder(req domain.OrderRequest) (string, error) {
	var localID string
	err := g.runOnLoop(func() error {
		payload := placeOrderRequest{
			Symbol: req.Symbol,
			Price:  req.Price,
			Volume: req.Volume,
			Side:   sideToVenue(req.Direction),
			Type:   orderTypeToVenue(req.Type),
		}

		remoteID, err := g.rest.PlaceOrder(g.ctx, payload)
		if err != nil {
			return &domain.SubmissionError{Symbol: req.Symbol, Err: err}
		}

		localID = g.NextLocalID()
		g.idMap.Put(localID, remoteID)

		order := req.CreateOrder(localID, g.Name())
		g.orders[localID] = &order
		g.OnOrder(order)
		return nil
	})
	if err != nil {
		return "", err
	}
	return localID, nil
}

// CancelOrder resolves the venue id and issues the cancel. An unknown
// local id is reported on the log channel and ignored; venue-level
// failures are reported and returned, never panicked.
func (g *Gateway) CancelOrder(req domain.CancelRequest) error {
	return g.runOnLoop(func() error {
		remoteID, ok := g.idMap.LocalToRemote(req.OrderID)
		if !ok {
			g.WriteLog(fmt.Sprintf("cancel failed: unknown order %s", req.OrderID))
			return nil
		}
		if err := g.rest.CancelOrder(g.ctx, remoteID); err != nil {
			g.WriteLog("cancel failed: " + err.Error())
			return err
		}
		return nil
	})
}

// QueryAccount fetches and publishes the account snapshot.
func (g *Gateway) QueryAccount() error {
	var raw rawAccount
	if err := g.rest.GetJSON(g.ctx, g.cfg.AccountURL, &raw); err != nil {
		return err
	}

	return g.runOnLoop(func() error {
		accountID := raw.AccountID
		if accountID == "" {
			accountID = g.cfg.AccountID
		}
		g.OnAccount(domain.Account{
			AccountID: accountID,
			Balance:   raw.CurrentValue.AccountValue,
			Frozen:    raw.Frozen,
		})
		return nil
	})
}

// QueryPosition fetches the order history, publishes every order, and
// materializes the executed subset as position snapshots.
func (g *Gateway) QueryPosition() error {
	var page rawOrdersPage
	if err := g.rest.GetJSON(g.ctx, g.cfg.OrdersURL, &page); err != nil {
		return err
	}

	return g.runOnLoop(func() error {
		for _, rec := range page.Orders {
			created, _ := time.Parse(time.RFC3339, rec.CreatedAt)
			g.OnOrder(domain.Order{
				Symbol:    rec.Ticker,
				Exchange:  domain.ExchangeVNEX,
				OrderID:   rec.CoreOrderID,
				Type:      domain.OrderTypeLimit,
				Direction: directionFromBidAsk(rec.BidAsk),
				Price:     rec.FilledPrice,
				Volume:    rec.Quantity,
				Traded:    rec.ExecutedQuantity,
				Status:    statusFromVenue(rec.Status),
				Datetime:  created,
				Reference: rec.Orn,
			})
		}

		for _, rec := range page.Orders {
			if !executedStatuses[rec.Status] {
				continue
			}
			g.OnPosition(domain.Position{
				Symbol:    rec.Ticker,
				Exchange:  domain.ExchangeVNEX,
				Direction: directionFromBidAsk(rec.BidAsk),
				Volume:    rec.ExecutedQuantity,
				Price:     rec.FilledPrice,
			})
		}
		return nil
	})
}

// handleTickData runs on the stream read goroutine; the merge itself is
// posted onto the loop.
func (g *Gateway) handleTickData(symbol string, data json.RawMessage) {
	raw := rawTick{}
	if err := json.Unmarshal(data, &raw); err != nil {
		g.logger.Warn("bad tick payload", slog.String("symbol", symbol), slog.Any("error", err))
		return
	}
	raw.Symbol = symbol

	g.post(func() { g.mergeTick(&raw) })
}

// mergeTick applies the partial update to the retained tick and
// publishes a snapshot copy. First tick for a symbol bootstraps the
// daily fields from the last price.
func (g *Gateway) mergeTick(raw *rawTick) {
	update := toTick(raw, time.Now().UTC())

	cached, ok := g.ticks[raw.Symbol]
	if !ok {
		update.Bootstrap()
		cached = &update
		g.ticks[raw.Symbol] = cached
	} else {
		cached.Merge(&update)
	}

	g.OnTick(cached.Snapshot())
}

// handleOrderData runs on the stream read goroutine.
func (g *Gateway) handleOrderData(account string, data json.RawMessage) {
	var raw rawOrderPush
	if err := json.Unmarshal(data, &raw); err != nil {
		g.logger.Warn("bad order payload", slog.String("account", account), slog.Any("error", err))
		return
	}

	g.post(func() { g.applyOrderPush(&raw) })
}

// applyOrderPush attributes the push to a local order through the
// reconciliation map, republishes the order state and, on an
// incremental fill, a separate immutable trade. The order always goes
// out before the trade.
func (g *Gateway) applyOrderPush(raw *rawOrderPush) {
	localID := g.idMap.LocalFor(raw.OrderID)

	order, ok := g.orders[localID]
	if !ok {
		order = &domain.Order{
			Symbol:    raw.Symbol,
			Exchange:  domain.ExchangeVNEX,
			OrderID:   localID,
			Type:      domain.OrderTypeLimit,
			Direction: directionFromSide(raw.Side),
			Price:     raw.Price,
			Volume:    raw.Volume,
			Datetime:  time.Now(),
		}
		g.orders[localID] = order
	}

	order.Traded = raw.Filled
	order.Status = statusFromVenue(raw.Status)
	g.OnOrder(*order)

	if raw.LastFillQty.IsPositive() {
		price := raw.LastFillPrice
		if price.IsZero() {
			price = raw.AvgPrice
		}
		fillTime, err := time.Parse(time.RFC3339, raw.LastFillTime)
		if err != nil {
			fillTime = time.Now()
		}

		g.OnTrade(domain.Trade{
			Symbol:    order.Symbol,
			Exchange:  order.Exchange,
			OrderID:   localID,
			TradeID:   raw.TradeID,
			Direction: order.Direction,
			Price:     price,
			Volume:    raw.LastFillQty,
			Datetime:  fillTime,
		})
	}
}

// Close tears down the streaming and REST sessions and stops the loop.
// Safe to call multiple times and when Connect failed early.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		if g.cancel != nil {
			g.cancel()
		}
		if g.socket != nil {
			g.socket.Stop()
		}
		if g.rest != nil {
			g.rest.Close()
		}
		g.wg.Wait()
	})
	return nil
}
