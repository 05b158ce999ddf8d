package domain

import "github.com/shopspring/decimal"

// Account is a mutable balance snapshot keyed by account id, replaced
// or field-updated on each query/push.
type Account struct {
	AccountID string

	Balance        decimal.Decimal
	Frozen         decimal.Decimal
	Available      decimal.Decimal
	Margin         decimal.Decimal
	PositionProfit decimal.Decimal

	Gateway string
}

// Position is a mutable holdings snapshot keyed by
// (symbol, exchange, direction).
type Position struct {
	Symbol    string
	Exchange  Exchange
	Direction Direction

	Volume decimal.Decimal
	Price  decimal.Decimal
	PnL    decimal.Decimal

	Gateway string
}

// Key returns the snapshot identity "symbol.exchange.direction".
func (p *Position) Key() string {
	return p.Symbol + "." + string(p.Exchange) + "." + string(p.Direction)
}
