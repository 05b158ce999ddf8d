package ib

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
)

// resolveTestContract registers a forex contract so history queries
// pass the known-contract gate.
func resolveTestContract(t *testing.T, g *Gateway, client *fakeClient) {
	t.Helper()

	if err := g.Subscribe(domain.SubscribeRequest{Symbol: "EUR-USD-CASH", Exchange: domain.ExchangeIdealPro}); err != nil {
		t.Fatal(err)
	}
	g.ContractDetails(client.lastContractReq(t), ContractDetailsData{
		Contract: ContractSpec{
			ConID: 12087792, Symbol: "EUR", SecType: "CASH",
			Exchange: "IDEALPRO", Currency: "USD", Multiplier: "1",
		},
		LongName: "European Monetary Union Euro",
		MinTick:  0.00005,
		MinSize:  decimal.NewFromInt(1),
	})
}

func historyRequest() domain.HistoryRequest {
	return domain.HistoryRequest{
		Symbol:   "EUR-USD-CASH",
		Exchange: domain.ExchangeIdealPro,
		Interval: domain.IntervalMinute,
		Start:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}
}

func (c *fakeClient) lastHistQuery(t *testing.T) (int64, HistoryQuery) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var lastID int64
	for id := range c.histQueries {
		if id > lastID {
			lastID = id
		}
	}
	if lastID == 0 {
		t.Fatal("no history request recorded")
	}
	return lastID, c.histQueries[lastID]
}

func TestQueryHistory_TimeoutReturnsEmpty(t *testing.T) {
	g, client, _ := readyGateway(t, testConfig(t))
	resolveTestContract(t, g, client)
	g.historyTimeout = 50 * time.Millisecond

	start := time.Now()
	result, err := g.QueryHistory(historyRequest())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("query blocked for %v", elapsed)
	}
	if result.State != HistoryEmpty || len(result.Bars) != 0 {
		t.Errorf("result = %s with %d bars, want empty", result.State, len(result.Bars))
	}
}

func TestQueryHistory_Complete(t *testing.T) {
	g, client, _ := readyGateway(t, testConfig(t))
	resolveTestContract(t, g, client)

	type outcome struct {
		result HistoryResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := g.QueryHistory(historyRequest())
		done <- outcome{result, err}
	}()

	// wait until the request is on the wire
	var token int64
	var query HistoryQuery
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
		client.mu.Lock()
		n := len(client.histQueries)
		client.mu.Unlock()
		if n > 0 {
			token, query = client.lastHistQuery(t)
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if token == 0 {
		t.Fatal("history request never reached the venue")
	}
	if query.BarType != "MIDPOINT" {
		t.Errorf("bar type = %s, want MIDPOINT for forex", query.BarType)
	}
	if query.BarSize != "1 min" {
		t.Errorf("bar size = %s", query.BarSize)
	}
	if query.Duration != "29 D" {
		t.Errorf("duration = %s", query.Duration)
	}

	g.HistoricalBar(token, NativeBar{
		Date: "20260829 10:00:00", Open: 1.1, High: 1.2, Low: 1.05, Close: 1.15,
		Volume: decimal.NewFromInt(-1),
	})
	g.HistoricalBar(token, NativeBar{
		Date: "20260829 10:01:00", Open: 1.15, High: 1.18, Low: 1.1, Close: 1.12,
		Volume: decimal.NewFromInt(900),
	})
	g.HistoricalBar(token+1, NativeBar{Date: "20260829 10:02:00"}) // stale token, dropped
	g.HistoricalEnd(token)

	out := <-done
	if out.err != nil {
		t.Fatalf("query: %v", out.err)
	}
	if out.result.State != HistoryComplete {
		t.Errorf("state = %s, want complete", out.result.State)
	}
	if len(out.result.Bars) != 2 {
		t.Fatalf("got %d bars", len(out.result.Bars))
	}
	if !out.result.Bars[0].Volume.IsZero() {
		t.Errorf("negative venue volume must clamp to zero, got %s", out.result.Bars[0].Volume)
	}
	if !out.result.Bars[1].ClosePrice.Equal(decimal.NewFromFloat(1.12)) {
		t.Errorf("close = %s", out.result.Bars[1].ClosePrice)
	}
}

func TestQueryHistory_ErrorYieldsPartial(t *testing.T) {
	g, client, _ := readyGateway(t, testConfig(t))
	resolveTestContract(t, g, client)

	done := make(chan HistoryResult, 1)
	go func() {
		result, _ := g.QueryHistory(historyRequest())
		done <- result
	}()

	var token int64
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
		client.mu.Lock()
		n := len(client.histQueries)
		client.mu.Unlock()
		if n > 0 {
			token, _ = client.lastHistQuery(t)
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if token == 0 {
		t.Fatal("history request never reached the venue")
	}

	g.HistoricalBar(token, NativeBar{Date: "20260829", Open: 1, High: 1, Low: 1, Close: 1, Volume: decimal.NewFromInt(10)})

	// informational notices never interrupt the wait
	g.Error(token, 2106, "historical data farm is connected")
	select {
	case <-done:
		t.Fatal("informational notice interrupted the query")
	case <-time.After(100 * time.Millisecond):
	}

	g.Error(token, 162, "historical market data service error")
	result := <-done
	if result.State != HistoryPartial {
		t.Errorf("state = %s, want partial", result.State)
	}
	if len(result.Bars) != 1 {
		t.Errorf("got %d bars", len(result.Bars))
	}
}

func TestQueryHistory_SingleFlight(t *testing.T) {
	g, client, _ := readyGateway(t, testConfig(t))
	resolveTestContract(t, g, client)

	released := make(chan struct{})
	go func() {
		g.QueryHistory(historyRequest())
		close(released)
	}()

	var token int64
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
		client.mu.Lock()
		n := len(client.histQueries)
		client.mu.Unlock()
		if n > 0 {
			token, _ = client.lastHistQuery(t)
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if token == 0 {
		t.Fatal("history request never reached the venue")
	}

	if _, err := g.QueryHistory(historyRequest()); !errors.Is(err, domain.ErrQueryInFlight) {
		t.Errorf("second query = %v, want ErrQueryInFlight", err)
	}

	g.HistoricalEnd(token)
	<-released

	// token released, a new query may start
	second := make(chan struct{})
	go func() {
		g.QueryHistory(historyRequest())
		close(second)
	}()
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
		client.mu.Lock()
		n := len(client.histQueries)
		client.mu.Unlock()
		if n > 1 {
			token2, _ := client.lastHistQuery(t)
			g.HistoricalEnd(token2)
			<-second
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("gateway never accepted a query after the first released")
}

func TestQueryHistory_UnknownContract(t *testing.T) {
	g, _, _ := readyGateway(t, testConfig(t))

	if _, err := g.QueryHistory(historyRequest()); err == nil {
		t.Fatal("query for an unresolved contract must fail")
	}
}
