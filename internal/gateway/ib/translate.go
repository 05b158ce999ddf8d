package ib

import (
	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
)

// statusMap translates venue order status strings. Transient routing
// states ("PendingCancel" and friends) are deliberately absent: an
// unmapped status degrades to StatusUnknown and the caller decides
// whether to keep the previous state.
var statusMap = map[string]domain.Status{
	"ApiPending":    domain.StatusSubmitting,
	"PendingSubmit": domain.StatusSubmitting,
	"PreSubmitted":  domain.StatusNotTraded,
	"Submitted":     domain.StatusNotTraded,
	"ApiCancelled":  domain.StatusCancelled,
	"Cancelled":     domain.StatusCancelled,
	"Filled":        domain.StatusAllTraded,
	"Inactive":      domain.StatusRejected,
}

func statusFromNative(s string) domain.Status {
	if status, ok := statusMap[s]; ok {
		return status
	}
	return domain.StatusUnknown
}

var directionToNative = map[domain.Direction]string{
	domain.DirectionLong:  "BUY",
	domain.DirectionShort: "SELL",
}

// directionFromNative also covers the execution report spellings.
var directionFromNative = map[string]domain.Direction{
	"BUY":  domain.DirectionLong,
	"SELL": domain.DirectionShort,
	"BOT":  domain.DirectionLong,
	"SLD":  domain.DirectionShort,
}

var orderTypeToNative = map[domain.OrderType]string{
	domain.OrderTypeLimit:  "LMT",
	domain.OrderTypeMarket: "MKT",
	domain.OrderTypeStop:   "STP",
}

var orderTypeFromNative = map[string]domain.OrderType{
	"LMT": domain.OrderTypeLimit,
	"MKT": domain.OrderTypeMarket,
	"STP": domain.OrderTypeStop,
}

// exchangeToNative lists the supported routing destinations. The venue
// uses the same spellings, so the reverse map is mechanical.
var exchangeToNative = map[domain.Exchange]string{
	domain.ExchangeSmart:    "SMART",
	domain.ExchangeGlobex:   "GLOBEX",
	domain.ExchangeNymex:    "NYMEX",
	domain.ExchangeComex:    "COMEX",
	domain.ExchangeIdealPro: "IDEALPRO",
	domain.ExchangeNYSE:     "NYSE",
	domain.ExchangeNasdaq:   "NASDAQ",
	domain.ExchangeArca:     "ARCA",
	domain.ExchangeSEHK:     "SEHK",
}

var exchangeFromNative = func() map[string]domain.Exchange {
	m := make(map[string]domain.Exchange, len(exchangeToNative))
	for k, v := range exchangeToNative {
		m[v] = k
	}
	return m
}()

// productMap translates security types. Unsupported types are filtered
// at the contract-details boundary, not errored.
var productMap = map[string]domain.Product{
	"STK":     domain.ProductEquity,
	"CASH":    domain.ProductForex,
	"CMDTY":   domain.ProductSpot,
	"FUT":     domain.ProductFutures,
	"OPT":     domain.ProductOption,
	"FOP":     domain.ProductOption,
	"CONTFUT": domain.ProductFutures,
	"IND":     domain.ProductIndex,
	"CFD":     domain.ProductCFD,
}

var optionTypeMap = map[string]domain.OptionType{
	"C":    domain.OptionCall,
	"CALL": domain.OptionCall,
	"P":    domain.OptionPut,
	"PUT":  domain.OptionPut,
}

// tickFieldSetters maps the native stream field index onto the
// canonical tick. Indices outside the table are dropped by the caller.
var tickFieldSetters = map[int]func(*domain.Tick, decimal.Decimal){
	fieldBidVolume:    func(t *domain.Tick, v decimal.Decimal) { t.BidVolume[0] = v },
	fieldBidPrice:     func(t *domain.Tick, v decimal.Decimal) { t.BidPrice[0] = v },
	fieldAskPrice:     func(t *domain.Tick, v decimal.Decimal) { t.AskPrice[0] = v },
	fieldAskVolume:    func(t *domain.Tick, v decimal.Decimal) { t.AskVolume[0] = v },
	fieldLastPrice:    func(t *domain.Tick, v decimal.Decimal) { t.LastPrice = v },
	fieldLastVolume:   func(t *domain.Tick, v decimal.Decimal) { t.LastVolume = v },
	fieldHighPrice:    func(t *domain.Tick, v decimal.Decimal) { t.HighPrice = v },
	fieldLowPrice:     func(t *domain.Tick, v decimal.Decimal) { t.LowPrice = v },
	fieldVolume:       func(t *domain.Tick, v decimal.Decimal) { t.Volume = v },
	fieldPreClose:     func(t *domain.Tick, v decimal.Decimal) { t.PreClose = v },
	fieldOpenPrice:    func(t *domain.Tick, v decimal.Decimal) { t.OpenPrice = v },
	fieldOpenInterest: func(t *domain.Tick, v decimal.Decimal) { t.OpenInterest = v },
}

// accountFieldSetters maps account update keys onto the canonical
// account. Keys outside the table are dropped.
var accountFieldSetters = map[string]func(*domain.Account, decimal.Decimal){
	"NetLiquidationByCurrency": func(a *domain.Account, v decimal.Decimal) { a.Balance = v },
	"NetLiquidation":           func(a *domain.Account, v decimal.Decimal) { a.Balance = v },
	"UnrealizedPnL":            func(a *domain.Account, v decimal.Decimal) { a.PositionProfit = v },
	"AvailableFunds":           func(a *domain.Account, v decimal.Decimal) { a.Available = v },
	"MaintMarginReq":           func(a *domain.Account, v decimal.Decimal) { a.Margin = v },
}

var intervalToNative = map[domain.Interval]string{
	domain.IntervalMinute: "1 min",
	domain.IntervalHour:   "1 hour",
	domain.IntervalDaily:  "1 day",
}
