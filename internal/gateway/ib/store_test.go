package ib

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
)

func openTestStore(t *testing.T, dir string) *ContractStore {
	t.Helper()

	store, err := OpenContractStore(filepath.Join(dir, "contracts.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestContractStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := openTestStore(t, dir)

	contracts := map[string]domain.Contract{
		"SPY-USD-STK.SMART": {
			Symbol:    "SPY-USD-STK",
			Exchange:  domain.ExchangeSmart,
			Name:      "SPDR S&P 500 ETF Trust",
			Product:   domain.ProductEquity,
			Size:      decimal.NewFromInt(1),
			PriceTick: decimal.NewFromFloat(0.01),
			Gateway:   GatewayName,
		},
		"ES-202006-C-2430-50-USD-FOP.GLOBEX": {
			Symbol:       "ES-202006-C-2430-50-USD-FOP",
			Exchange:     domain.ExchangeGlobex,
			Product:      domain.ProductOption,
			Size:         decimal.NewFromInt(50),
			OptionStrike: decimal.NewFromInt(2430),
			OptionType:   domain.OptionCall,
			OptionExpiry: time.Date(2020, 6, 19, 0, 0, 0, 0, time.UTC),
			Gateway:      GatewayName,
		},
	}
	natives := map[string]ContractSpec{
		"SPY-USD-STK.SMART": {
			ConID: 756733, Symbol: "SPY", SecType: "STK",
			Exchange: "SMART", Currency: "USD",
		},
	}

	if err := store.SaveAll(contracts, natives); err != nil {
		t.Fatalf("save: %v", err)
	}

	gotContracts, gotNatives, err := store.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(gotContracts) != 2 || len(gotNatives) != 1 {
		t.Fatalf("loaded %d contracts, %d natives", len(gotContracts), len(gotNatives))
	}

	spy := gotContracts["SPY-USD-STK.SMART"]
	if spy.Name != "SPDR S&P 500 ETF Trust" || !spy.PriceTick.Equal(decimal.NewFromFloat(0.01)) {
		t.Errorf("contract = %+v", spy)
	}
	option := gotContracts["ES-202006-C-2430-50-USD-FOP.GLOBEX"]
	if option.OptionType != domain.OptionCall || !option.OptionStrike.Equal(decimal.NewFromInt(2430)) {
		t.Errorf("option = %+v", option)
	}
	if gotNatives["SPY-USD-STK.SMART"].ConID != 756733 {
		t.Errorf("native = %+v", gotNatives["SPY-USD-STK.SMART"])
	}
}

func TestContractStoreSaveIsWholesale(t *testing.T) {
	dir := t.TempDir()
	store := openTestStore(t, dir)

	first := map[string]domain.Contract{
		"A.SMART": {Symbol: "A", Exchange: domain.ExchangeSmart},
		"B.SMART": {Symbol: "B", Exchange: domain.ExchangeSmart},
	}
	if err := store.SaveAll(first, nil); err != nil {
		t.Fatal(err)
	}

	second := map[string]domain.Contract{
		"C.SMART": {Symbol: "C", Exchange: domain.ExchangeSmart},
	}
	if err := store.SaveAll(second, nil); err != nil {
		t.Fatal(err)
	}

	contracts, _, err := store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(contracts) != 1 {
		t.Fatalf("want stale rows replaced, got %d contracts", len(contracts))
	}
	if _, ok := contracts["C.SMART"]; !ok {
		t.Error("new contract missing after overwrite")
	}
}
