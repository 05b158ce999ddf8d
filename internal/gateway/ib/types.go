package ib

import "github.com/shopspring/decimal"

// GatewayName is the default name stamped on published events.
const GatewayName = "IB"

// joinSymbol separates the fields of a composite symbol, e.g.
// ES-202002-USD-FUT.
const joinSymbol = "-"

// Venue notification codes. 2000-2999 are informational notices, not
// errors; 2104 reports the market data farm connection is ready.
const (
	infoCodeMin      = 2000
	infoCodeMax      = 2999
	codeMarketDataOK = 2104
)

// Tick field indices of the native market data stream.
const (
	fieldBidVolume    = 0
	fieldBidPrice     = 1
	fieldAskPrice     = 2
	fieldAskVolume    = 3
	fieldLastPrice    = 4
	fieldLastVolume   = 5
	fieldHighPrice    = 6
	fieldLowPrice     = 7
	fieldVolume       = 8
	fieldPreClose     = 9
	fieldOpenPrice    = 14
	fieldOpenInterest = 86
)

// ContractSpec is the venue-native contract descriptor sent with every
// request and received with every contract callback.
type ContractSpec struct {
	ConID           int64
	Symbol          string
	SecType         string
	Exchange        string
	PrimaryExchange string
	Currency        string
	Expiry          string // last trade date or contract month, YYYYMM or YYYYMMDD
	Right           string
	Strike          float64
	Multiplier      string
}

// OrderSpec is the venue-native order payload.
type OrderSpec struct {
	OrderID       int64
	ClientID      int64
	Action        string // BUY or SELL
	OrderType     string // LMT, MKT, STP
	TotalQuantity decimal.Decimal
	LimitPrice    float64
	AuxPrice      float64
	Account       string
	OrderRef      string
}

// ContractDetailsData is the resolved contract metadata callback
// payload.
type ContractDetailsData struct {
	Contract   ContractSpec
	LongName   string
	MinTick    float64
	MinSize    decimal.Decimal
	UnderConID int64
}

// ExecutionData is one fill callback payload.
type ExecutionData struct {
	OrderID int64
	ExecID  string
	Side    string // BOT or SLD
	Shares  decimal.Decimal
	Price   float64
	Time    string // "20060102 15:04:05" with optional trailing zone name
}

// NativeBar is one historical candle callback payload.
type NativeBar struct {
	Date   string // "20060102" for daily bars, "20060102 15:04:05" intraday
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume decimal.Decimal
}

// HistoryQuery is the venue-native historical data request.
type HistoryQuery struct {
	EndTime  string // UTC, "20060102-15:04:05"
	Duration string // "30 D", "2 Y"
	BarSize  string // "1 min", "1 hour", "1 day"
	BarType  string // "TRADES" or "MIDPOINT"
	UseRTH   bool
}
