package ib

import "github.com/shopspring/decimal"

// NativeClient is the outbound surface of the venue's desktop
// application socket. Calls are fire-and-forget; every result is
// delivered asynchronously through the Wrapper on the client's single
// receive goroutine.
type NativeClient interface {
	Connect(host string, port int, clientID int) error
	Disconnect()
	IsConnected() bool

	ReqContractDetails(reqID int64, spec ContractSpec)
	ReqMktData(reqID int64, spec ContractSpec, snapshot bool)
	CancelMktData(reqID int64)

	PlaceOrder(orderID int64, spec ContractSpec, order OrderSpec)
	CancelOrder(orderID int64)

	ReqHistoricalData(reqID int64, spec ContractSpec, query HistoryQuery)
	ReqAccountUpdates(subscribe bool, account string)
	ReqIDs()
	ReqCurrentTime()
}

// Wrapper is the inbound callback surface. The gateway implements it;
// the client invokes every method from its one receive goroutine, so
// implementations serialize naturally.
type Wrapper interface {
	ConnectAck()
	ConnectionClosed()
	NextValidID(orderID int64)
	CurrentTime(unix int64)
	Error(reqID int64, code int, msg string)
	ManagedAccounts(accounts string)

	TickPrice(reqID int64, field int, price float64)
	TickSize(reqID int64, field int, size decimal.Decimal)
	TickTimestamp(reqID int64, unix int64)

	OrderStatus(orderID int64, status string, filled decimal.Decimal, avgFillPrice float64)
	OpenOrder(orderID int64, spec ContractSpec, order OrderSpec)
	Execution(reqID int64, spec ContractSpec, exec ExecutionData)

	AccountValue(key, value, currency, account string)
	AccountTime(timestamp string)
	PortfolioUpdate(spec ContractSpec, position decimal.Decimal, marketPrice, averageCost, unrealizedPnL float64, account string)

	ContractDetails(reqID int64, details ContractDetailsData)
	ContractDetailsEnd(reqID int64)

	HistoricalBar(reqID int64, bar NativeBar)
	HistoricalEnd(reqID int64)
}

// ClientFactory builds the native client bound to a callback receiver.
// The production factory wires the desktop application's socket
// protocol; tests inject fakes.
type ClientFactory func(w Wrapper) NativeClient
