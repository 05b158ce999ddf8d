package hsc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
)

// statusMap translates venue order status strings to canonical values.
// Anything outside the table degrades to StatusUnknown, never an error.
var statusMap = map[string]domain.Status{
	"OUTSTANDING":    domain.StatusSubmitting,
	"PARTIAL_FILLED": domain.StatusPartTraded,
	"FULLY_FILLED":   domain.StatusAllTraded,
	"COMPLETED":      domain.StatusAllTraded,
	"CANCELLED":      domain.StatusCancelled,
	"REJECTED":       domain.StatusRejected,
}

func statusFromVenue(s string) domain.Status {
	if status, ok := statusMap[s]; ok {
		return status
	}
	return domain.StatusUnknown
}

// executedStatuses is the subset of venue statuses materialized as
// positions; everything else is filtered from position snapshots.
var executedStatuses = map[string]bool{
	"FULLY_FILLED":   true,
	"PARTIAL_FILLED": true,
	"COMPLETED":      true,
}

// productMap translates reference-data stock types. Reference-data
// ingestion is a strict boundary: an unmapped code is an error, not a
// default.
var productMap = map[string]domain.Product{
	"Stock":          domain.ProductEquity,
	"Derivatives":    domain.ProductFutures,
	"ETF":            domain.ProductETF,
	"Bond":           domain.ProductBond,
	"BondFutures":    domain.ProductBond,
	"Fund":           domain.ProductFund,
	"CoveredWarrant": domain.ProductWarrant,
}

func productFromVenue(stockType string) (domain.Product, error) {
	product, ok := productMap[stockType]
	if !ok {
		return domain.ProductUnknown, fmt.Errorf("%w: %q", domain.ErrUnknownProduct, stockType)
	}
	return product, nil
}

// orderTypeMap translates canonical order types to the venue's codes.
var orderTypeMap = map[domain.OrderType]string{
	domain.OrderTypeLimit:  "LO",
	domain.OrderTypeMarket: "MO",
}

func orderTypeToVenue(t domain.OrderType) string {
	if code, ok := orderTypeMap[t]; ok {
		return code
	}
	return "LO"
}

func sideToVenue(d domain.Direction) string {
	if d == domain.DirectionShort {
		return "SELL"
	}
	return "BUY"
}

func directionFromSide(side string) domain.Direction {
	if side == "SELL" {
		return domain.DirectionShort
	}
	return domain.DirectionLong
}

func directionFromBidAsk(bidAsk string) domain.Direction {
	if bidAsk == "B" {
		return domain.DirectionLong
	}
	return domain.DirectionShort
}

// blockValue is substituted for unknown contract sizes and price ticks:
// a value large enough that risk checks reject any order on the
// contract.
var blockValue = decimal.NewFromInt(1_000_000)

// contractSize derives the multiplier from the reference entry.
func contractSize(ref tickerRef) decimal.Decimal {
	switch ref.StockType {
	case "Stock":
		return decimal.NewFromInt(1)
	case "Derivatives":
		return decimal.NewFromInt(100_000)
	default:
		return blockValue
	}
}

// contractPriceTick derives the minimum price increment.
func contractPriceTick(ref tickerRef) decimal.Decimal {
	switch {
	case ref.StockType == "Derivatives":
		return decimal.NewFromFloat(0.1)
	case ref.Exchange == "HOSE":
		return decimal.NewFromInt(100)
	case ref.Exchange == "HASTC":
		return decimal.NewFromFloat(0.1)
	default:
		return blockValue
	}
}

// toTick converts a venue push to a canonical partial tick. Zero fields
// stay zero and are later ignored by the merge.
func toTick(raw *rawTick, now time.Time) domain.Tick {
	return domain.Tick{
		Symbol:    raw.Symbol,
		Exchange:  domain.ExchangeVNEX,
		Datetime:  now,
		LocalTime: now,

		LastPrice:  raw.Last,
		LastVolume: raw.LastVolume,
		Volume:     raw.Volume,
		Turnover:   raw.Turnover,

		BidPrice: [domain.Depth]decimal.Decimal{
			raw.BidPrice1, raw.BidPrice2, raw.BidPrice3, raw.BidPrice4, raw.BidPrice5,
		},
		BidVolume: [domain.Depth]decimal.Decimal{
			raw.BidVolume1, raw.BidVolume2, raw.BidVolume3, raw.BidVolume4, raw.BidVolume5,
		},
		AskPrice: [domain.Depth]decimal.Decimal{
			raw.AskPrice1, raw.AskPrice2, raw.AskPrice3, raw.AskPrice4, raw.AskPrice5,
		},
		AskVolume: [domain.Depth]decimal.Decimal{
			raw.AskVolume1, raw.AskVolume2, raw.AskVolume3, raw.AskVolume4, raw.AskVolume5,
		},
	}
}

// toContract converts one reference entry. Errors on unmapped products.
func toContract(ref tickerRef) (domain.Contract, error) {
	product, err := productFromVenue(ref.StockType)
	if err != nil {
		return domain.Contract{}, err
	}

	return domain.Contract{
		Symbol:   ref.Symbol,
		Exchange: domain.ExchangeVNEX,
		Name:     ref.Name,
		Product:  product,

		Size:      contractSize(ref),
		PriceTick: contractPriceTick(ref),
		MinVolume: decimal.NewFromInt(100),

		StopSupported: true,
		NetPosition:   true,
		HistoryData:   true,
	}, nil
}
