package hsc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tradegate/internal/domain"
)

// streamServer is an in-process pub/sub endpoint handing accepted
// connections to the test body.
type streamServer struct {
	server *httptest.Server
	conns  chan *websocket.Conn
}

func newStreamServer(t *testing.T) *streamServer {
	t.Helper()

	s := &streamServer{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *streamServer) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *streamServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

// readSubscribes collects n subscription channels, skipping pings.
func readSubscribes(t *testing.T, conn *websocket.Conn, n int) []string {
	t.Helper()

	var channels []string
	for len(channels) < n {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read subscribe frame: %v", err)
		}
		if string(msg) == "ping" {
			continue
		}
		var frame subscribeFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			t.Fatalf("bad frame %s: %v", msg, err)
		}
		if frame.Op != "subscribe" {
			t.Fatalf("unexpected op %q", frame.Op)
		}
		channels = append(channels, frame.Channel)
	}
	return channels
}

// expectNoFrame asserts nothing but pings arrive within the window.
func expectNoFrame(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(window))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return // deadline hit
		}
		if string(msg) == "ping" {
			continue
		}
		t.Fatalf("unexpected frame: %s", msg)
	}
}

func noopTick(string, json.RawMessage) {}

func noopOrder(string, json.RawMessage) {}

func TestSocketClient_SubscribeBeforeStart(t *testing.T) {
	client := NewSocketClient("ws://unused", noopTick, noopOrder)
	if err := client.Subscribe("Last.HPG"); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("want ErrNotConnected, got %v", err)
	}
}

func TestSocketClient_DuplicateSubscribe(t *testing.T) {
	srv := newStreamServer(t)
	client := NewSocketClient(srv.url(), noopTick, noopOrder)
	client.Start(context.Background())
	defer client.Stop()

	conn := srv.accept(t)

	if err := client.Subscribe("Last.HPG"); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	if err := client.Subscribe("Last.HPG"); err != nil {
		t.Fatalf("duplicate subscribe: %v", err)
	}

	got := readSubscribes(t, conn, 1)
	if got[0] != "Last.HPG" {
		t.Errorf("channel = %s", got[0])
	}
	// exactly one underlying venue subscription
	expectNoFrame(t, conn, 300*time.Millisecond)
}

func TestSocketClient_ReconnectReplaysSubscriptions(t *testing.T) {
	srv := newStreamServer(t)
	client := NewSocketClient(srv.url(), noopTick, noopOrder)
	client.Start(context.Background())
	defer client.Stop()

	conn1 := srv.accept(t)
	client.Subscribe("Last.HPG")
	client.Subscribe("Last.SSI")
	readSubscribes(t, conn1, 2)

	// simulated transport drop
	conn1.Close()

	conn2 := srv.accept(t)
	replayed := readSubscribes(t, conn2, 2)

	want := map[string]bool{"Last.HPG": true, "Last.SSI": true}
	for _, ch := range replayed {
		if !want[ch] {
			t.Errorf("unexpected or duplicated replay %q", ch)
		}
		delete(want, ch)
	}
	if len(want) != 0 {
		t.Errorf("symbols lost on reconnect: %v", want)
	}
	// no symbol replayed twice
	expectNoFrame(t, conn2, 300*time.Millisecond)
}

func TestSocketClient_RoutesPublications(t *testing.T) {
	srv := newStreamServer(t)

	var mu sync.Mutex
	var tickSymbols, orderAccounts []string
	client := NewSocketClient(srv.url(),
		func(symbol string, _ json.RawMessage) {
			mu.Lock()
			tickSymbols = append(tickSymbols, symbol)
			mu.Unlock()
		},
		func(account string, _ json.RawMessage) {
			mu.Lock()
			orderAccounts = append(orderAccounts, account)
			mu.Unlock()
		})
	client.Start(context.Background())
	defer client.Stop()

	conn := srv.accept(t)
	pubs := []string{
		`{"channel":"Last.HPG","data":{"lp":1854}}`,
		`{"channel":"Orders.ACC1","data":{"order_id":"EX1"}}`,
		`{"channel":"Weird.X","data":{}}`,
		`pong`,
	}
	for _, p := range pubs {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := len(tickSymbols) == 1 && len(orderAccounts) == 1
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(tickSymbols) != 1 || tickSymbols[0] != "HPG" {
		t.Errorf("tick symbols = %v, want [HPG]", tickSymbols)
	}
	if len(orderAccounts) != 1 || orderAccounts[0] != "ACC1" {
		t.Errorf("order accounts = %v, want [ACC1]", orderAccounts)
	}
}

func TestSocketClient_StopIsIdempotent(t *testing.T) {
	srv := newStreamServer(t)
	client := NewSocketClient(srv.url(), noopTick, noopOrder)
	client.Start(context.Background())
	srv.accept(t)

	client.Stop()
	client.Stop() // second stop must not panic or hang
}
