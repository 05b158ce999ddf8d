package ib

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
	"tradegate/internal/event"
	"tradegate/internal/gateway"
	"tradegate/internal/infra"
)

const orderRefLayout = "2006-01-02 15:04:05"

var minusOne = decimal.NewFromInt(-1)

// Gateway adapts the venue's callback-driven native API to the
// canonical trading surface. All callbacks arrive on the client's
// single receive goroutine; public methods run on caller goroutines.
// One mutex guards every shared map, so each state transition is
// serialized regardless of which side initiates it.
type Gateway struct {
	gateway.Base
	cfg    infra.IbConfig
	logger *slog.Logger

	client NativeClient
	store  *ContractStore

	mu        sync.Mutex
	status    bool
	dataReady bool
	reqID     int64
	orderID   int64
	account   string

	ticks           map[int64]*domain.Tick
	orders          map[string]*domain.Order
	accounts        map[string]*domain.Account
	contracts       map[string]domain.Contract
	nativeContracts map[string]ContractSpec

	subscribed    map[string]domain.SubscribeRequest
	reqSymbols    map[int64]string       // contract-details request id -> composite symbol
	reqUnderlying map[int64]ContractSpec // contract-details request id -> option underlying

	history        *historyQuery
	historyTimeout time.Duration

	closeOnce sync.Once
}

// New creates the gateway. The factory binds the native client to the
// gateway's callback surface; Connect must be called before any other
// operation.
func New(cfg infra.IbConfig, bus *event.Bus, factory ClientFactory) *Gateway {
	g := &Gateway{
		Base:   gateway.NewBase(GatewayName, bus),
		cfg:    cfg,
		logger: slog.Default().With("gateway", GatewayName),

		ticks:           make(map[int64]*domain.Tick),
		orders:          make(map[string]*domain.Order),
		accounts:        make(map[string]*domain.Account),
		contracts:       make(map[string]domain.Contract),
		nativeContracts: make(map[string]ContractSpec),

		subscribed:    make(map[string]domain.SubscribeRequest),
		reqSymbols:    make(map[int64]string),
		reqUnderlying: make(map[int64]ContractSpec),

		historyTimeout: 600 * time.Second,
	}
	g.client = factory(g)
	return g
}

// Connect validates the settings, opens the contract cache and starts
// the native session. Contract publication happens once the session
// acknowledges the connection.
func (g *Gateway) Connect() error {
	if err := g.cfg.Validate(); err != nil {
		g.WriteLog("connect failed: " + err.Error())
		return err
	}

	store, err := OpenContractStore(g.cfg.CachePath)
	if err != nil {
		g.WriteLog("contract cache open failed: " + err.Error())
		return err
	}

	g.mu.Lock()
	g.store = store
	g.account = g.cfg.Account
	g.mu.Unlock()

	if err := g.client.Connect(g.cfg.Host, g.cfg.Port, g.cfg.ClientID); err != nil {
		g.WriteLog("connect failed: " + err.Error())
		return domain.NewTransportError("connect", err)
	}
	return nil
}

// CheckConnection redials a dropped session. Intended to run from a
// periodic timer owned by the host.
func (g *Gateway) CheckConnection() {
	if g.client.IsConnected() {
		return
	}

	g.mu.Lock()
	wasUp := g.status
	g.mu.Unlock()
	if wasUp {
		g.client.Disconnect()
	}

	if err := g.client.Connect(g.cfg.Host, g.cfg.Port, g.cfg.ClientID); err != nil {
		g.WriteLog("reconnect failed: " + err.Error())
	}
}

// Subscribe requests streaming ticks for one symbol. Requests made
// before the market data farm reports ready are retained and replayed;
// duplicates are dropped.
func (g *Gateway) Subscribe(req domain.SubscribeRequest) error {
	nativeExchange, ok := exchangeToNative[req.Exchange]
	if !ok {
		g.WriteLog(fmt.Sprintf("unsupported exchange %s", req.Exchange))
		return fmt.Errorf("unsupported exchange %s", req.Exchange)
	}
	if strings.Contains(req.Symbol, " ") {
		g.WriteLog("subscribe failed: symbol contains spaces")
		return fmt.Errorf("%w: %q", domain.ErrSymbolFormat, req.Symbol)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.subscribed[req.Key()]; ok {
		return nil
	}
	g.subscribed[req.Key()] = req

	// queued until the session and data farm are up
	if !g.status || !g.dataReady {
		return nil
	}
	return g.requestMarketData(req, nativeExchange)
}

// requestMarketData resolves the contract and opens the tick stream.
// Callers hold g.mu.
func (g *Gateway) requestMarketData(req domain.SubscribeRequest, nativeExchange string) error {
	spec, err := parseContract(req.Symbol, nativeExchange)
	if err != nil {
		g.WriteLog("subscribe failed: " + err.Error())
		return err
	}

	g.reqID++
	g.client.ReqContractDetails(g.reqID, spec)
	if strings.Contains(req.Symbol, joinSymbol) {
		g.reqSymbols[g.reqID] = req.Symbol
	}

	g.reqID++
	g.client.ReqMktData(g.reqID, spec, false)
	g.ticks[g.reqID] = &domain.Tick{
		Symbol:   req.Symbol,
		Exchange: req.Exchange,
		Datetime: time.Now(),
	}
	return nil
}

// SendOrder submits the order under the next venue-sequenced id, which
// doubles as the local id, and publishes a preliminary SUBMITTING
// order. Validation or parse failures surface as SubmissionError and
// publish nothing.
func (g *Gateway) SendOrder(req domain.OrderRequest) (string, error) {
	nativeExchange, ok := exchangeToNative[req.Exchange]
	if !ok {
		return "", &domain.SubmissionError{Symbol: req.Symbol, Err: fmt.Errorf("unsupported exchange %s", req.Exchange)}
	}
	nativeType, ok := orderTypeToNative[req.Type]
	if !ok {
		return "", &domain.SubmissionError{Symbol: req.Symbol, Err: fmt.Errorf("unsupported order type %s", req.Type)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.status {
		return "", domain.ErrNotConnected
	}

	spec, err := parseContract(req.Symbol, nativeExchange)
	if err != nil {
		return "", &domain.SubmissionError{Symbol: req.Symbol, Err: err}
	}

	g.orderID++
	order := OrderSpec{
		OrderID:       g.orderID,
		ClientID:      int64(g.cfg.ClientID),
		Action:        directionToNative[req.Direction],
		OrderType:     nativeType,
		TotalQuantity: req.Volume,
		Account:       g.account,
		OrderRef:      time.Now().Format(orderRefLayout),
	}
	price, _ := req.Price.Float64()
	switch req.Type {
	case domain.OrderTypeStop:
		order.AuxPrice = price
	default:
		order.LimitPrice = price
	}

	g.client.PlaceOrder(g.orderID, spec, order)
	g.client.ReqIDs()

	localID := strconv.FormatInt(g.orderID, 10)
	preliminary := req.CreateOrder(localID, g.Name())
	g.orders[localID] = &preliminary
	g.OnOrder(preliminary)
	return localID, nil
}

// CancelOrder cancels by the local id. An unknown id is reported on
// the log channel and never reaches the venue.
func (g *Gateway) CancelOrder(req domain.CancelRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.status {
		return domain.ErrNotConnected
	}
	if _, ok := g.orders[req.OrderID]; !ok {
		g.WriteLog(fmt.Sprintf("cancel failed: unknown order %s", req.OrderID))
		return nil
	}

	orderID, err := strconv.ParseInt(req.OrderID, 10, 64)
	if err != nil {
		g.WriteLog(fmt.Sprintf("cancel failed: malformed order id %s", req.OrderID))
		return nil
	}
	g.client.CancelOrder(orderID)
	return nil
}

// QueryAccount is a no-op: the session streams account values
// continuously once ManagedAccounts subscribes to updates.
func (g *Gateway) QueryAccount() error {
	return nil
}

// QueryPosition is a no-op: portfolio updates arrive on the same
// account subscription.
func (g *Gateway) QueryPosition() error {
	return nil
}

// QueryOptionChain requests contract details for every option on the
// underlying. Resolved contracts stream through ContractDetails; the
// cache is saved when the chain completes.
func (g *Gateway) QueryOptionChain(symbol string, exchange domain.Exchange) error {
	nativeExchange, ok := exchangeToNative[exchange]
	if !ok {
		return fmt.Errorf("unsupported exchange %s", exchange)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.status {
		return domain.ErrNotConnected
	}

	underlying, err := parseContract(symbol, nativeExchange)
	if err != nil {
		return err
	}

	chain := ContractSpec{
		Symbol:   underlying.Symbol,
		Currency: underlying.Currency,
	}
	// futures options trade on the underlying's exchange, spot options
	// accept smart routing
	if underlying.SecType == "FUT" {
		chain.SecType = "FOP"
		chain.Exchange = underlying.Exchange
	} else {
		chain.SecType = "OPT"
		chain.Exchange = "SMART"
	}

	g.reqID++
	g.client.ReqContractDetails(g.reqID, chain)
	g.reqUnderlying[g.reqID] = underlying
	return nil
}

// Close saves the contract cache, drops the native session and closes
// the cache handle. Safe to call multiple times and after a failed
// Connect.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		up := g.status
		g.status = false
		store := g.store
		g.mu.Unlock()

		if up {
			g.saveContracts()
			g.client.Disconnect()
		}
		if store != nil {
			store.Close()
		}
	})
	return nil
}

// saveContracts overwrites the on-disk cache with the current maps.
func (g *Gateway) saveContracts() {
	g.mu.Lock()
	store := g.store
	contracts := make(map[string]domain.Contract, len(g.contracts))
	for k, v := range g.contracts {
		v.Gateway = GatewayName
		contracts[k] = v
	}
	natives := make(map[string]ContractSpec, len(g.nativeContracts))
	for k, v := range g.nativeContracts {
		natives[k] = v
	}
	g.mu.Unlock()

	if store == nil {
		return
	}
	if err := store.SaveAll(contracts, natives); err != nil {
		g.WriteLog("contract cache save failed: " + err.Error())
	}
}

// loadContracts republishes the cached contracts. Callers hold g.mu.
func (g *Gateway) loadContracts() {
	if g.store == nil {
		return
	}

	contracts, natives, err := g.store.LoadAll()
	if err != nil {
		g.WriteLog("contract cache load failed: " + err.Error())
		return
	}

	g.contracts = contracts
	g.nativeContracts = natives
	for _, contract := range contracts {
		g.OnContract(contract)
	}
	g.WriteLog(fmt.Sprintf("loaded %d cached contracts", len(contracts)))
}

// ConnectAck runs when the session is established.
func (g *Gateway) ConnectAck() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.status = true
	g.dataReady = false
	g.WriteLog("trading session established")
	g.loadContracts()
}

// ConnectionClosed runs when the session drops.
func (g *Gateway) ConnectionClosed() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.status = false
	g.WriteLog("trading session closed")
}

// NextValidID seeds the order id sequence. Only the first value after
// connect is taken; later advisories never rewind issued ids.
func (g *Gateway) NextValidID(orderID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.orderID == 0 {
		g.orderID = orderID
	}
}

// CurrentTime reports the venue clock.
func (g *Gateway) CurrentTime(unix int64) {
	g.WriteLog("server time: " + time.Unix(unix, 0).Format("2006-01-02 15:04:05"))
}

// Error receives every venue notification, informational codes
// included. A history-request error unblocks the waiting caller; the
// data-farm-ready notice triggers the queued subscription replay.
func (g *Gateway) Error(reqID int64, code int, msg string) {
	g.mu.Lock()
	if g.history != nil && reqID == g.history.token && (code < infoCodeMin || code > infoCodeMax) {
		g.history.signal(false)
	}
	g.mu.Unlock()

	g.WriteLog(fmt.Sprintf("venue notice, code %d: %s", code, msg))

	if code != codeMarketDataOK {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dataReady {
		return
	}
	g.dataReady = true
	g.client.ReqCurrentTime()

	reqs := make([]domain.SubscribeRequest, 0, len(g.subscribed))
	for _, req := range g.subscribed {
		reqs = append(reqs, req)
	}
	for _, req := range reqs {
		if err := g.requestMarketData(req, exchangeToNative[req.Exchange]); err != nil {
			g.WriteLog("resubscribe failed: " + err.Error())
		}
	}
}

// ManagedAccounts picks the trading account when the settings carry
// none and subscribes to streaming account updates.
func (g *Gateway) ManagedAccounts(accounts string) {
	g.mu.Lock()
	if g.account == "" {
		for _, code := range strings.Split(accounts, ",") {
			if code != "" {
				g.account = code
				break
			}
		}
	}
	account := g.account
	g.mu.Unlock()

	g.WriteLog("trading account: " + account)
	g.client.ReqAccountUpdates(true, account)
}

// TickPrice applies one price field to the retained tick and publishes
// a snapshot. Forex and spot commodity streams carry no trade prints,
// so the last price is synthesized from the bid/ask midpoint.
func (g *Gateway) TickPrice(reqID int64, field int, price float64) {
	setter, ok := tickFieldSetters[field]
	if !ok {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	tick, ok := g.ticks[reqID]
	if !ok {
		g.WriteLog(fmt.Sprintf("price push for unsubscribed request %d", reqID))
		return
	}

	setter(tick, decimal.NewFromFloat(price))

	if contract, ok := g.contracts[tick.Key()]; ok {
		tick.Name = contract.Name
	}

	if tick.Exchange == domain.ExchangeIdealPro || strings.Contains(tick.Symbol, "CMDTY") {
		if tick.BidPrice[0].IsZero() || tick.AskPrice[0].IsZero() || tick.LowPrice.Equal(minusOne) {
			return
		}
		tick.LastPrice = tick.BidPrice[0].Add(tick.AskPrice[0]).Div(decimal.NewFromInt(2))
		tick.Datetime = time.Now()
	}

	g.OnTick(tick.Snapshot())
}

// TickSize applies one volume field and publishes a snapshot.
func (g *Gateway) TickSize(reqID int64, field int, size decimal.Decimal) {
	setter, ok := tickFieldSetters[field]
	if !ok {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	tick, ok := g.ticks[reqID]
	if !ok {
		g.WriteLog(fmt.Sprintf("size push for unsubscribed request %d", reqID))
		return
	}

	setter(tick, size)
	g.OnTick(tick.Snapshot())
}

// TickTimestamp stamps the venue trade time and publishes a snapshot.
func (g *Gateway) TickTimestamp(reqID int64, unix int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tick, ok := g.ticks[reqID]
	if !ok {
		g.WriteLog(fmt.Sprintf("timestamp push for unsubscribed request %d", reqID))
		return
	}

	tick.Datetime = time.Unix(unix, 0)
	g.OnTick(tick.Snapshot())
}

// OrderStatus updates the cached order. Statuses outside the mapping
// table keep the previous state rather than regressing to UNKNOWN.
func (g *Gateway) OrderStatus(orderID int64, status string, filled decimal.Decimal, avgFillPrice float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	localID := strconv.FormatInt(orderID, 10)
	order, ok := g.orders[localID]
	if !ok {
		return
	}

	order.Traded = filled
	if mapped := statusFromNative(status); mapped != domain.StatusUnknown {
		order.Status = mapped
	}
	g.OnOrder(*order)
}

// OpenOrder creates the cached order when the push arrives for an
// order this process never submitted (another client on the same
// account), then republishes it.
func (g *Gateway) OpenOrder(orderID int64, spec ContractSpec, orderSpec OrderSpec) {
	g.mu.Lock()
	defer g.mu.Unlock()

	localID := strconv.FormatInt(orderID, 10)

	order, ok := g.orders[localID]
	if !ok {
		placed, err := time.ParseInLocation(orderRefLayout, orderSpec.OrderRef, time.Local)
		if err != nil {
			placed = time.Now()
		}
		exchange, ok := exchangeFromNative[spec.Exchange]
		if !ok {
			exchange = domain.ExchangeSmart
		}
		order = &domain.Order{
			Symbol:    g.resolveSymbol(spec),
			Exchange:  exchange,
			OrderID:   localID,
			Type:      orderTypeFromNative[orderSpec.OrderType],
			Direction: directionFromNative[orderSpec.Action],
			Volume:    orderSpec.TotalQuantity,
			Datetime:  placed,
		}
		g.orders[localID] = order
	}

	switch order.Type {
	case domain.OrderTypeStop:
		order.Price = decimal.NewFromFloat(orderSpec.AuxPrice)
	default:
		order.Price = decimal.NewFromFloat(orderSpec.LimitPrice)
	}
	g.OnOrder(*order)
}

// Execution publishes one immutable fill. The cached order's identity
// wins over the callback's contract, which may carry the resolved
// routing exchange instead of the requested one.
func (g *Gateway) Execution(reqID int64, spec ContractSpec, exec ExecutionData) {
	fillTime, err := parseNativeTime(exec.Time)
	if err != nil {
		g.WriteLog("unsupported execution time format: " + exec.Time)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	localID := strconv.FormatInt(exec.OrderID, 10)
	symbol := ""
	exchange := domain.ExchangeSmart
	if order, ok := g.orders[localID]; ok {
		symbol = order.Symbol
		exchange = order.Exchange
	} else {
		symbol = g.resolveSymbol(spec)
		if ex, ok := exchangeFromNative[spec.Exchange]; ok {
			exchange = ex
		}
	}

	g.OnTrade(domain.Trade{
		Symbol:    symbol,
		Exchange:  exchange,
		OrderID:   localID,
		TradeID:   exec.ExecID,
		Direction: directionFromNative[exec.Side],
		Price:     decimal.NewFromFloat(exec.Price),
		Volume:    exec.Shares,
		Datetime:  fillTime,
	})
}

// AccountValue folds one account key/value pair into the cached
// snapshot. Snapshots are published in one batch by AccountTime.
func (g *Gateway) AccountValue(key, value, currency, account string) {
	setter, ok := accountFieldSetters[key]
	if !ok || currency == "" {
		return
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	accountID := account + "." + currency
	snapshot, ok := g.accounts[accountID]
	if !ok {
		snapshot = &domain.Account{AccountID: accountID}
		g.accounts[accountID] = snapshot
	}
	setter(snapshot, amount)
}

// AccountTime closes one account update batch and publishes every
// snapshot.
func (g *Gateway) AccountTime(timestamp string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, snapshot := range g.accounts {
		g.OnAccount(*snapshot)
	}
}

// PortfolioUpdate publishes one net position. The average cost arrives
// multiplied by the contract size and is scaled back to a unit price.
func (g *Gateway) PortfolioUpdate(spec ContractSpec, position decimal.Decimal, marketPrice, averageCost, unrealizedPnL float64, account string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	nativeExchange := spec.Exchange
	if nativeExchange == "" {
		nativeExchange = spec.PrimaryExchange
	}
	exchange, ok := exchangeFromNative[nativeExchange]
	if !ok && nativeExchange != "" {
		g.WriteLog(fmt.Sprintf("position on unsupported exchange: %s %s", g.resolveSymbol(spec), nativeExchange))
		return
	}
	if nativeExchange == "" {
		exchange = domain.ExchangeSmart
	}

	size, err := strconv.ParseInt(spec.Multiplier, 10, 64)
	if err != nil || size == 0 {
		size = 1
	}

	g.OnPosition(domain.Position{
		Symbol:    g.resolveSymbol(spec),
		Exchange:  exchange,
		Direction: domain.DirectionNet,
		Volume:    position,
		Price:     decimal.NewFromFloat(averageCost / float64(size)),
		PnL:       decimal.NewFromFloat(unrealizedPnL),
	})
}

// ContractDetails publishes one resolved contract. Composite-symbol
// requests keep the symbol the caller used; everything else is keyed
// by the numeric contract id. Unsupported security types are filtered.
func (g *Gateway) ContractDetails(reqID int64, details ContractDetailsData) {
	g.mu.Lock()
	defer g.mu.Unlock()

	spec := details.Contract
	if spec.Multiplier == "" {
		spec.Multiplier = "1"
	}

	symbol, ok := g.reqSymbols[reqID]
	if !ok {
		symbol = strconv.FormatInt(spec.ConID, 10)
	}

	product, ok := productMap[spec.SecType]
	if !ok {
		return
	}

	size, err := decimal.NewFromString(spec.Multiplier)
	if err != nil {
		size = decimal.NewFromInt(1)
	}

	contract := domain.Contract{
		Symbol:    symbol,
		Exchange:  exchangeFromNative[spec.Exchange],
		Name:      details.LongName,
		Product:   product,
		Size:      size,
		PriceTick: decimal.NewFromFloat(details.MinTick),
		MinVolume: details.MinSize,

		StopSupported: true,
		NetPosition:   true,
		HistoryData:   true,
	}

	if product == domain.ProductOption {
		underlying := strconv.FormatInt(details.UnderConID, 10)
		contract.OptionPortfolio = underlying + "_O"
		contract.OptionType = optionTypeMap[spec.Right]
		contract.OptionStrike = decimal.NewFromFloat(spec.Strike)
		contract.OptionUnderlying = underlying + "_" + spec.Expiry
		if expiry, err := time.Parse("20060102", spec.Expiry); err == nil {
			contract.OptionExpiry = expiry
		}
	}

	if _, ok := g.contracts[contract.Key()]; !ok {
		g.OnContract(contract)
		g.contracts[contract.Key()] = contract
		g.nativeContracts[contract.Key()] = spec
	}
}

// ContractDetailsEnd closes a details stream. Option chain queries
// save the enlarged cache once the whole chain has arrived.
func (g *Gateway) ContractDetailsEnd(reqID int64) {
	g.mu.Lock()
	underlying, ok := g.reqUnderlying[reqID]
	delete(g.reqSymbols, reqID)
	g.mu.Unlock()

	if !ok {
		return
	}

	g.WriteLog(fmt.Sprintf("option chain resolved for %s", generateSymbol(underlying)))
	g.saveContracts()
}

// resolveSymbol renders the composite symbol if it is a known
// contract, otherwise the numeric contract id. Callers hold g.mu.
func (g *Gateway) resolveSymbol(spec ContractSpec) string {
	symbol := generateSymbol(spec)
	exchange, ok := exchangeFromNative[spec.Exchange]
	if !ok {
		exchange = domain.ExchangeSmart
	}
	key := symbol + "." + string(exchange)
	if _, ok := g.contracts[key]; !ok {
		return strconv.FormatInt(spec.ConID, 10)
	}
	return symbol
}

// parseNativeTime parses the venue's "20060102 15:04:05" stamps, with
// an optional trailing zone name.
func parseNativeTime(value string) (time.Time, error) {
	parts := strings.Split(value, " ")
	switch len(parts) {
	case 3:
		loc, err := time.LoadLocation(parts[2])
		if err != nil {
			return time.Time{}, err
		}
		t, err := time.ParseInLocation("20060102 15:04:05", parts[0]+" "+parts[1], loc)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(time.Local), nil
	case 2:
		return time.ParseInLocation("20060102 15:04:05", value, time.Local)
	case 1:
		return time.ParseInLocation("20060102", value, time.Local)
	default:
		return time.Time{}, fmt.Errorf("unsupported time format %q", value)
	}
}
