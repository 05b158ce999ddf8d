package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Depth is the number of bid/ask levels carried by a tick.
const Depth = 5

// Tick is the venue-local market data snapshot for one symbol. One
// instance per symbol is retained by the owning gateway and merged in
// place; consumers always receive a copy (see Snapshot).
type Tick struct {
	Symbol   string
	Exchange Exchange
	Name     string

	Datetime  time.Time
	LocalTime time.Time

	Volume       decimal.Decimal
	Turnover     decimal.Decimal
	OpenInterest decimal.Decimal
	LastPrice    decimal.Decimal
	LastVolume   decimal.Decimal
	LimitUp      decimal.Decimal
	LimitDown    decimal.Decimal

	OpenPrice decimal.Decimal
	HighPrice decimal.Decimal
	LowPrice  decimal.Decimal
	PreClose  decimal.Decimal

	BidPrice  [Depth]decimal.Decimal
	BidVolume [Depth]decimal.Decimal
	AskPrice  [Depth]decimal.Decimal
	AskVolume [Depth]decimal.Decimal

	Gateway string
}

// Key returns the platform-wide identifier "symbol.exchange".
func (t *Tick) Key() string {
	return t.Symbol + "." + string(t.Exchange)
}

// Bootstrap initializes the daily fields of a first-ever tick: with no
// session history yet, open/high/low/pre-close all start at the last
// traded price.
func (t *Tick) Bootstrap() {
	t.OpenPrice = t.LastPrice
	t.HighPrice = t.LastPrice
	t.LowPrice = t.LastPrice
	t.PreClose = t.LastPrice
}

// Merge applies a partial update onto the retained tick. A field is
// overwritten only when the incoming value is set (nonzero, non-empty);
// a zero or absent field never clobbers a previously known value.
func (t *Tick) Merge(in *Tick) {
	if in.Name != "" {
		t.Name = in.Name
	}
	if !in.Datetime.IsZero() {
		t.Datetime = in.Datetime
	}
	if !in.LocalTime.IsZero() {
		t.LocalTime = in.LocalTime
	}

	mergeDecimal(&t.Volume, in.Volume)
	mergeDecimal(&t.Turnover, in.Turnover)
	mergeDecimal(&t.OpenInterest, in.OpenInterest)
	mergeDecimal(&t.LastPrice, in.LastPrice)
	mergeDecimal(&t.LastVolume, in.LastVolume)
	mergeDecimal(&t.LimitUp, in.LimitUp)
	mergeDecimal(&t.LimitDown, in.LimitDown)
	mergeDecimal(&t.OpenPrice, in.OpenPrice)
	mergeDecimal(&t.HighPrice, in.HighPrice)
	mergeDecimal(&t.LowPrice, in.LowPrice)
	mergeDecimal(&t.PreClose, in.PreClose)

	for i := 0; i < Depth; i++ {
		mergeDecimal(&t.BidPrice[i], in.BidPrice[i])
		mergeDecimal(&t.BidVolume[i], in.BidVolume[i])
		mergeDecimal(&t.AskPrice[i], in.AskPrice[i])
		mergeDecimal(&t.AskVolume[i], in.AskVolume[i])
	}
}

func mergeDecimal(dst *decimal.Decimal, in decimal.Decimal) {
	if !in.IsZero() {
		*dst = in
	}
}

// Snapshot returns a copy safe to hand to consumers. Decimal values are
// immutable, so a shallow copy is a full copy.
func (t *Tick) Snapshot() Tick {
	return *t
}
