package domain

// Direction of an order, trade or position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionNet   Direction = "NET"
)

// Status of an order's lifecycle.
type Status string

const (
	StatusSubmitting Status = "SUBMITTING"
	StatusNotTraded  Status = "NOT_TRADED"
	StatusPartTraded Status = "PART_TRADED"
	StatusAllTraded  Status = "ALL_TRADED"
	StatusCancelled  Status = "CANCELLED"
	StatusRejected   Status = "REJECTED"
	StatusUnknown    Status = "UNKNOWN"
)

// IsActive reports whether an order in this status can still trade.
func (s Status) IsActive() bool {
	switch s {
	case StatusSubmitting, StatusNotTraded, StatusPartTraded:
		return true
	}
	return false
}

// OrderType supported by the gateways.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeStop   OrderType = "STOP"
)

// Product class of a contract.
type Product string

const (
	ProductEquity  Product = "EQUITY"
	ProductFutures Product = "FUTURES"
	ProductOption  Product = "OPTION"
	ProductIndex   Product = "INDEX"
	ProductForex   Product = "FOREX"
	ProductSpot    Product = "SPOT"
	ProductETF     Product = "ETF"
	ProductBond    Product = "BOND"
	ProductWarrant Product = "WARRANT"
	ProductFund    Product = "FUND"
	ProductCFD     Product = "CFD"
	ProductUnknown Product = "UNKNOWN"
)

// Exchange identifies a trading venue or routing destination.
type Exchange string

const (
	// Vietnamese markets
	ExchangeVNEX  Exchange = "VNEX" // aggregate of HOSE, HNX and UPCOM
	ExchangeHOSE  Exchange = "HOSE"
	ExchangeHASTC Exchange = "HASTC"

	// IB routing destinations
	ExchangeSmart    Exchange = "SMART"
	ExchangeGlobex   Exchange = "GLOBEX"
	ExchangeNymex    Exchange = "NYMEX"
	ExchangeComex    Exchange = "COMEX"
	ExchangeIdealPro Exchange = "IDEALPRO"
	ExchangeNYSE     Exchange = "NYSE"
	ExchangeNasdaq   Exchange = "NASDAQ"
	ExchangeArca     Exchange = "ARCA"
	ExchangeSEHK     Exchange = "SEHK"
)

// OptionType of an option contract.
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// Interval of a historical bar.
type Interval string

const (
	IntervalMinute Interval = "1m"
	IntervalHour   Interval = "1h"
	IntervalDaily  Interval = "d"
)
