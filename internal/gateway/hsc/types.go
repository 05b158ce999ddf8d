package hsc

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// GatewayName is the default name stamped on published events.
const GatewayName = "HSC"

// Streaming channel conventions. The venue embeds the subject in the
// channel name; the socket client strips it before dispatching.
const (
	tickChannelPrefix  = "Last."
	orderChannelPrefix = "Orders."
)

// subscribeFrame is the outbound subscription request.
type subscribeFrame struct {
	Op      string `json:"op"`
	Channel string `json:"channel"`
}

// publicationFrame is one inbound push on a subscribed channel.
type publicationFrame struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// rawTick is the venue tick push, e.g.
// {"symbol":"HPG","lp":1854,"vol":221621,"lv":2,"bv1":6,"bp1":1854,"av1":1,"ap1":1854.3}
type rawTick struct {
	Symbol string          `json:"symbol"`
	Last   decimal.Decimal `json:"lp"`
	Volume decimal.Decimal `json:"vol"`
	LastVolume decimal.Decimal `json:"lv"`
	Turnover   decimal.Decimal `json:"val"`

	BidPrice1 decimal.Decimal `json:"bp1"`
	BidPrice2 decimal.Decimal `json:"bp2"`
	BidPrice3 decimal.Decimal `json:"bp3"`
	BidPrice4 decimal.Decimal `json:"bp4"`
	BidPrice5 decimal.Decimal `json:"bp5"`

	BidVolume1 decimal.Decimal `json:"bv1"`
	BidVolume2 decimal.Decimal `json:"bv2"`
	BidVolume3 decimal.Decimal `json:"bv3"`
	BidVolume4 decimal.Decimal `json:"bv4"`
	BidVolume5 decimal.Decimal `json:"bv5"`

	AskPrice1 decimal.Decimal `json:"ap1"`
	AskPrice2 decimal.Decimal `json:"ap2"`
	AskPrice3 decimal.Decimal `json:"ap3"`
	AskPrice4 decimal.Decimal `json:"ap4"`
	AskPrice5 decimal.Decimal `json:"ap5"`

	AskVolume1 decimal.Decimal `json:"av1"`
	AskVolume2 decimal.Decimal `json:"av2"`
	AskVolume3 decimal.Decimal `json:"av3"`
	AskVolume4 decimal.Decimal `json:"av4"`
	AskVolume5 decimal.Decimal `json:"av5"`
}

// rawOrderPush is the venue order status push.
type rawOrderPush struct {
	OrderID string          `json:"order_id"`
	Symbol  string          `json:"symbol"`
	Status  string          `json:"status"`
	Side    string          `json:"side"`
	Price   decimal.Decimal `json:"price"`
	Volume  decimal.Decimal `json:"volume"`
	Filled  decimal.Decimal `json:"filled"`

	LastFillQty   decimal.Decimal `json:"last_fill_qty"`
	LastFillPrice decimal.Decimal `json:"last_fill_price"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	TradeID       string          `json:"trade_id"`
	LastFillTime  string          `json:"last_fill_time"`
}

// placeOrderRequest is the REST order submission payload.
type placeOrderRequest struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Volume decimal.Decimal `json:"volume"`
	Side   string          `json:"side"`
	Type   string          `json:"type"`
}

// placeOrderResponse carries the venue-assigned order id.
type placeOrderResponse struct {
	OrderID string `json:"order_id"`
}

// tickerRef is one entry of the bulk reference-data feed.
type tickerRef struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Exchange  string `json:"exchange"`
	StockType string `json:"stock_type"`
}

// rawAccount is the account query payload.
type rawAccount struct {
	AccountID    string          `json:"account_id"`
	Frozen       decimal.Decimal `json:"frozen"`
	CurrentValue struct {
		AccountValue decimal.Decimal `json:"accountValue"`
	} `json:"currentValue"`
}

// rawOrdersPage is the orders/positions query payload.
type rawOrdersPage struct {
	Orders []rawHistOrder `json:"orders"`
}

// rawHistOrder is one order record from the orders query. Records in an
// executed status double as position snapshots.
type rawHistOrder struct {
	CoreOrderID      string          `json:"coreOrderId"`
	Ticker           string          `json:"ticker"`
	BidAsk           string          `json:"bidAsk"` // "B" or "S"
	Status           string          `json:"status"`
	Quantity         decimal.Decimal `json:"quantity"`
	ExecutedQuantity decimal.Decimal `json:"executedQuantity"`
	FilledPrice      decimal.Decimal `json:"filledPrice"`
	Orn              string          `json:"orn"`
	CreatedAt        string          `json:"createdAt"`
}
