package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscribeRequest asks a gateway for streaming updates on one symbol.
type SubscribeRequest struct {
	Symbol   string
	Exchange Exchange
}

// Key returns the platform-wide identifier "symbol.exchange".
func (r *SubscribeRequest) Key() string {
	return r.Symbol + "." + string(r.Exchange)
}

// OrderRequest asks a gateway to place one order.
type OrderRequest struct {
	Symbol    string
	Exchange  Exchange
	Direction Direction
	Type      OrderType
	Price     decimal.Decimal
	Volume    decimal.Decimal
	Reference string
}

// CreateOrder builds the preliminary Order published at submission
// time, before any venue push arrives.
func (r *OrderRequest) CreateOrder(orderID, gateway string) Order {
	return Order{
		Symbol:    r.Symbol,
		Exchange:  r.Exchange,
		OrderID:   orderID,
		Type:      r.Type,
		Direction: r.Direction,
		Price:     r.Price,
		Volume:    r.Volume,
		Status:    StatusSubmitting,
		Datetime:  time.Now(),
		Reference: r.Reference,
		Gateway:   gateway,
	}
}

// CancelRequest asks a gateway to cancel an order by its local id.
type CancelRequest struct {
	Symbol   string
	Exchange Exchange
	OrderID  string
}

// HistoryRequest asks a gateway for historical bars.
type HistoryRequest struct {
	Symbol   string
	Exchange Exchange
	Interval Interval
	Start    time.Time
	End      time.Time
}

// Bar is one historical candle.
type Bar struct {
	Symbol   string
	Exchange Exchange
	Datetime time.Time
	Interval Interval

	OpenPrice  decimal.Decimal
	HighPrice  decimal.Decimal
	LowPrice   decimal.Decimal
	ClosePrice decimal.Decimal
	Volume     decimal.Decimal

	Gateway string
}

// LogEntry is an operational message surfaced on the event bus so
// multi-gateway consumers can disambiguate its origin.
type LogEntry struct {
	Message string
	Gateway string
	Time    time.Time
}
