package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order tracks one order's lifecycle. OrderID is the local identifier
// generated by the gateway at submission time; the venue's own id is
// kept in the gateway's reconciliation map, never here.
type Order struct {
	Symbol   string
	Exchange Exchange
	OrderID  string

	Type      OrderType
	Direction Direction
	Price     decimal.Decimal
	Volume    decimal.Decimal
	Traded    decimal.Decimal
	Status    Status

	Datetime  time.Time
	Reference string

	Gateway string
}

// IsActive reports whether the order can still trade.
func (o *Order) IsActive() bool {
	return o.Status.IsActive()
}

// Trade is one immutable fill event. OrderID references the parent
// order's local identifier, TradeID is assigned by the venue.
type Trade struct {
	Symbol   string
	Exchange Exchange
	OrderID  string
	TradeID  string

	Direction Direction
	Price     decimal.Decimal
	Volume    decimal.Decimal
	Datetime  time.Time

	Gateway string
}
