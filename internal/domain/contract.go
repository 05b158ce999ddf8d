package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is immutable reference data for one tradable instrument,
// keyed by (symbol, exchange). A contract is never mutated after
// creation, only replaced.
type Contract struct {
	Symbol   string
	Exchange Exchange
	Name     string
	Product  Product

	Size      decimal.Decimal // contract multiplier
	PriceTick decimal.Decimal
	MinVolume decimal.Decimal

	StopSupported bool // venue accepts stop orders
	NetPosition   bool // venue reports net positions
	HistoryData   bool // venue serves historical bars

	// Option fields, set only when Product == ProductOption.
	OptionStrike     decimal.Decimal
	OptionType       OptionType
	OptionExpiry     time.Time
	OptionUnderlying string
	OptionPortfolio  string

	Gateway string
}

// Key returns the platform-wide identifier "symbol.exchange".
func (c *Contract) Key() string {
	return c.Symbol + "." + string(c.Exchange)
}
