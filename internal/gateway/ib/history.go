package ib

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
)

// HistoryState classifies how a historical query ended.
type HistoryState string

const (
	// HistoryComplete means the venue reported the end of the stream.
	HistoryComplete HistoryState = "COMPLETE"
	// HistoryPartial means bars arrived but the wait expired or was
	// interrupted before the end marker.
	HistoryPartial HistoryState = "PARTIAL"
	// HistoryEmpty means no bar arrived at all.
	HistoryEmpty HistoryState = "EMPTY"
)

// HistoryResult carries the accumulated bars and how the query ended.
type HistoryResult struct {
	Bars  []domain.Bar
	State HistoryState
}

// historyQuery is the single in-flight request token. Callbacks match
// on the token and accumulate into the buffer; signal hands control
// back to the waiting caller exactly once.
type historyQuery struct {
	token    int64
	req      domain.HistoryRequest
	buf      []domain.Bar
	complete bool

	signaled bool
	done     chan struct{}
}

// signal is called with g.mu held.
func (q *historyQuery) signal(complete bool) {
	if q.signaled {
		return
	}
	q.signaled = true
	q.complete = complete
	close(q.done)
}

// QueryHistory fetches historical bars, blocking the caller until the
// venue finishes streaming or the bounded wait expires. Only one query
// may be in flight per gateway instance; a concurrent call fails with
// ErrQueryInFlight instead of silently reusing the buffer.
func (g *Gateway) QueryHistory(req domain.HistoryRequest) (HistoryResult, error) {
	g.mu.Lock()

	if !g.status {
		g.mu.Unlock()
		return HistoryResult{}, domain.ErrNotConnected
	}
	if g.history != nil {
		g.mu.Unlock()
		return HistoryResult{}, domain.ErrQueryInFlight
	}

	key := req.Symbol + "." + string(req.Exchange)
	contract, ok := g.contracts[key]
	if !ok {
		g.mu.Unlock()
		g.WriteLog("history query failed: unknown contract " + key)
		return HistoryResult{}, fmt.Errorf("contract %s not resolved, subscribe first", key)
	}

	barSize, ok := intervalToNative[req.Interval]
	if !ok {
		g.mu.Unlock()
		return HistoryResult{}, fmt.Errorf("unsupported interval %s", req.Interval)
	}

	spec, err := parseContract(req.Symbol, exchangeToNative[req.Exchange])
	if err != nil {
		g.mu.Unlock()
		return HistoryResult{}, err
	}

	end := req.End
	if end.IsZero() {
		end = time.Now()
	}

	days := int(end.Sub(req.Start).Hours() / 24)
	duration := fmt.Sprintf("%d D", days)
	if days >= 365 {
		duration = fmt.Sprintf("%d Y", days/365)
	}

	// forex and spot streams have no trade prints to aggregate
	barType := "TRADES"
	if contract.Product == domain.ProductForex || contract.Product == domain.ProductSpot {
		barType = "MIDPOINT"
	}

	g.reqID++
	query := &historyQuery{
		token: g.reqID,
		req:   req,
		done:  make(chan struct{}),
	}
	g.history = query

	g.client.ReqHistoricalData(query.token, spec, HistoryQuery{
		EndTime:  end.UTC().Format("20060102-15:04:05"),
		Duration: duration,
		BarSize:  barSize,
		BarType:  barType,
		UseRTH:   false,
	})
	g.mu.Unlock()

	select {
	case <-query.done:
	case <-time.After(g.historyTimeout):
	}

	g.mu.Lock()
	bars := query.buf
	complete := query.complete && query.signaled
	g.history = nil
	g.mu.Unlock()

	result := HistoryResult{Bars: bars}
	switch {
	case len(bars) == 0:
		result.State = HistoryEmpty
	case complete:
		result.State = HistoryComplete
	default:
		result.State = HistoryPartial
	}
	return result, nil
}

// HistoricalBar accumulates one bar for the in-flight query.
func (g *Gateway) HistoricalBar(reqID int64, bar NativeBar) {
	g.mu.Lock()
	defer g.mu.Unlock()

	query := g.history
	if query == nil || reqID != query.token {
		return
	}

	barTime, err := parseNativeTime(bar.Date)
	if err != nil {
		g.WriteLog("unsupported bar time format: " + bar.Date)
		return
	}

	volume := bar.Volume
	if volume.IsNegative() {
		volume = decimal.Zero
	}

	query.buf = append(query.buf, domain.Bar{
		Symbol:     query.req.Symbol,
		Exchange:   query.req.Exchange,
		Datetime:   barTime,
		Interval:   query.req.Interval,
		OpenPrice:  decimal.NewFromFloat(bar.Open),
		HighPrice:  decimal.NewFromFloat(bar.High),
		LowPrice:   decimal.NewFromFloat(bar.Low),
		ClosePrice: decimal.NewFromFloat(bar.Close),
		Volume:     volume,
		Gateway:    GatewayName,
	})
}

// HistoricalEnd marks the in-flight query complete and unblocks the
// caller.
func (g *Gateway) HistoricalEnd(reqID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.history != nil && reqID == g.history.token {
		g.history.signal(true)
	}
}
