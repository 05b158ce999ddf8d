package hsc

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
)

func TestStatusFromVenue(t *testing.T) {
	tests := []struct {
		venue string
		want  domain.Status
	}{
		{"OUTSTANDING", domain.StatusSubmitting},
		{"PARTIAL_FILLED", domain.StatusPartTraded},
		{"FULLY_FILLED", domain.StatusAllTraded},
		{"COMPLETED", domain.StatusAllTraded},
		{"CANCELLED", domain.StatusCancelled},
		{"REJECTED", domain.StatusRejected},
		{"SOMETHING_NEW", domain.StatusUnknown},
		{"", domain.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.venue, func(t *testing.T) {
			if got := statusFromVenue(tt.venue); got != tt.want {
				t.Errorf("statusFromVenue(%q) = %s, want %s", tt.venue, got, tt.want)
			}
		})
	}
}

func TestProductFromVenue(t *testing.T) {
	t.Run("Mapped", func(t *testing.T) {
		got, err := productFromVenue("Derivatives")
		if err != nil || got != domain.ProductFutures {
			t.Errorf("productFromVenue(Derivatives) = %s, %v", got, err)
		}
	})

	t.Run("Strict On Unmapped", func(t *testing.T) {
		_, err := productFromVenue("Crypto")
		if !errors.Is(err, domain.ErrUnknownProduct) {
			t.Errorf("want ErrUnknownProduct, got %v", err)
		}
	})
}

func TestContractDerivation(t *testing.T) {
	tests := []struct {
		name      string
		ref       tickerRef
		wantSize  decimal.Decimal
		wantTick  decimal.Decimal
	}{
		{"Stock On HOSE", tickerRef{StockType: "Stock", Exchange: "HOSE"}, decimal.NewFromInt(1), decimal.NewFromInt(100)},
		{"Stock On HASTC", tickerRef{StockType: "Stock", Exchange: "HASTC"}, decimal.NewFromInt(1), decimal.NewFromFloat(0.1)},
		{"Derivatives", tickerRef{StockType: "Derivatives"}, decimal.NewFromInt(100_000), decimal.NewFromFloat(0.1)},
		{"Unknown Exchange Blocks", tickerRef{StockType: "Stock", Exchange: "XXX"}, decimal.NewFromInt(1), blockValue},
		{"Unknown Type Blocks", tickerRef{StockType: "ETF", Exchange: "XXX"}, blockValue, blockValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contractSize(tt.ref); !got.Equal(tt.wantSize) {
				t.Errorf("contractSize = %s, want %s", got, tt.wantSize)
			}
			if got := contractPriceTick(tt.ref); !got.Equal(tt.wantTick) {
				t.Errorf("contractPriceTick = %s, want %s", got, tt.wantTick)
			}
		})
	}
}

func TestToTick(t *testing.T) {
	now := time.Now().UTC()
	raw := rawTick{
		Symbol:     "HPG",
		Last:       decimal.NewFromInt(1854),
		Volume:     decimal.NewFromInt(221621),
		LastVolume: decimal.NewFromInt(2),
		BidPrice1:  decimal.NewFromInt(1854),
		BidVolume1: decimal.NewFromInt(6),
		AskPrice1:  decimal.NewFromFloat(1854.3),
		AskVolume1: decimal.NewFromInt(1),
	}

	tick := toTick(&raw, now)

	if tick.Symbol != "HPG" || tick.Exchange != domain.ExchangeVNEX {
		t.Errorf("identity = %s.%s", tick.Symbol, tick.Exchange)
	}
	if !tick.LastPrice.Equal(decimal.NewFromInt(1854)) {
		t.Errorf("last_price = %s", tick.LastPrice)
	}
	if !tick.AskPrice[0].Equal(decimal.NewFromFloat(1854.3)) {
		t.Errorf("ask_price_1 = %s", tick.AskPrice[0])
	}
	if !tick.BidPrice[1].IsZero() {
		t.Errorf("absent level should stay zero, got %s", tick.BidPrice[1])
	}
}

func TestDirectionMapping(t *testing.T) {
	if sideToVenue(domain.DirectionLong) != "BUY" || sideToVenue(domain.DirectionShort) != "SELL" {
		t.Error("sideToVenue mapping broken")
	}
	if directionFromSide("SELL") != domain.DirectionShort || directionFromSide("BUY") != domain.DirectionLong {
		t.Error("directionFromSide mapping broken")
	}
	if directionFromBidAsk("B") != domain.DirectionLong || directionFromBidAsk("S") != domain.DirectionShort {
		t.Error("directionFromBidAsk mapping broken")
	}
}

func TestOrderTypeToVenue(t *testing.T) {
	if orderTypeToVenue(domain.OrderTypeLimit) != "LO" {
		t.Error("limit should map to LO")
	}
	if orderTypeToVenue(domain.OrderTypeMarket) != "MO" {
		t.Error("market should map to MO")
	}
	// anything unmapped degrades to a limit order
	if orderTypeToVenue(domain.OrderTypeStop) != "LO" {
		t.Error("unmapped type should default to LO")
	}
}
