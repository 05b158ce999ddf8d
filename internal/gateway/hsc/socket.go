package hsc

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tradegate/internal/domain"
	"tradegate/internal/infra"
)

const (
	handshakeTimeout = 10 * time.Second
	pingInterval     = 30 * time.Second
	readTimeout      = 60 * time.Second
)

// SocketClient is the long-lived pub/sub market-data connection. The
// subscription set is kept client-side and replayed on every new
// connection: the transport's session state is never the source of
// truth. Transport errors trigger automatic reconnect with backoff and
// are logged, never propagated to Subscribe callers.
type SocketClient struct {
	url     string
	onTick  func(symbol string, data json.RawMessage)
	onOrder func(account string, data json.RawMessage)
	logger  *slog.Logger

	mu        sync.RWMutex
	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected bool
	started   bool
	channels  map[string]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSocketClient creates the streaming client. The callbacks receive
// the subject already stripped from the channel name.
func NewSocketClient(url string, onTick func(string, json.RawMessage), onOrder func(string, json.RawMessage)) *SocketClient {
	return &SocketClient{
		url:      url,
		onTick:   onTick,
		onOrder:  onOrder,
		logger:   slog.Default().With("module", "hsc_socket"),
		channels: make(map[string]struct{}),
	}
}

// Start spawns the connection loop. It returns immediately; the loop
// keeps reconnecting until the context is cancelled or Stop is called.
func (c *SocketClient) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.connectionLoop(ctx)
	return nil
}

func (c *SocketClient) connectionLoop(ctx context.Context) {
	defer c.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.connect(ctx); err != nil {
			c.logger.Warn("stream connection failed",
				slog.Any("error", domain.NewTransportError("connect", err)),
				slog.Int("retry", retryCount))
			retryCount++
			select {
			case <-ctx.Done():
				return
			case <-time.After(infra.CalculateBackoff(retryCount)):
			}
		} else {
			retryCount = 0
			c.readLoop(ctx)
		}
	}
}

func (c *SocketClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	// Replay every previously requested channel on the fresh session.
	if err := c.resubscribeAll(); err != nil {
		c.closeConnection()
		return err
	}

	go c.pingLoop(ctx)
	c.logger.Info("stream connected", slog.String("url", c.url))
	return nil
}

func (c *SocketClient) resubscribeAll() error {
	c.mu.RLock()
	channels := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		channels = append(channels, ch)
	}
	c.mu.RUnlock()

	for _, ch := range channels {
		if err := c.writeSubscribe(ch); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe records a channel and, when the transport is up, requests
// it immediately. A channel already in the set is a no-op. The call
// fails only when Start was never invoked; while reconnecting the
// channel is retained and replayed on the next session.
func (c *SocketClient) Subscribe(channel string) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return domain.ErrNotConnected
	}
	if _, ok := c.channels[channel]; ok {
		c.mu.Unlock()
		return nil
	}
	c.channels[channel] = struct{}{}
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}
	if err := c.writeSubscribe(channel); err != nil {
		// reconnect path will replay it
		c.logger.Warn("subscribe write failed", slog.String("channel", channel), slog.Any("error", err))
	}
	return nil
}

// Subscribed reports whether a channel is in the client-side set.
func (c *SocketClient) Subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channel]
	return ok
}

func (c *SocketClient) writeSubscribe(channel string) error {
	frame, err := json.Marshal(subscribeFrame{Op: "subscribe", Channel: channel})
	if err != nil {
		return err
	}
	return c.threadSafeWrite(websocket.TextMessage, frame)
}

func (c *SocketClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.threadSafeWrite(websocket.TextMessage, []byte("ping"))
		}
	}
}

func (c *SocketClient) threadSafeWrite(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return domain.ErrNotConnected
	}
	return c.conn.WriteMessage(msgType, data)
}

func (c *SocketClient) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn("stream read failed", slog.Any("error", err))
			c.closeConnection()
			return
		}
		if string(msg) == "pong" {
			continue
		}
		c.handleMessage(msg)
	}
}

// handleMessage routes one publication. The channel name embeds the
// subject ("Last.HPG", "Orders.ACC1"); it is stripped here so the
// callbacks never deal with transport naming.
func (c *SocketClient) handleMessage(msg []byte) {
	var frame publicationFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		c.logger.Debug("unparseable frame dropped", slog.Any("error", err))
		return
	}
	if frame.Channel == "" || frame.Data == nil {
		return
	}

	switch {
	case strings.HasPrefix(frame.Channel, tickChannelPrefix):
		c.onTick(strings.TrimPrefix(frame.Channel, tickChannelPrefix), frame.Data)
	case strings.HasPrefix(frame.Channel, orderChannelPrefix):
		c.onOrder(strings.TrimPrefix(frame.Channel, orderChannelPrefix), frame.Data)
	default:
		c.logger.Debug("publication on unknown channel", slog.String("channel", frame.Channel))
	}
}

func (c *SocketClient) closeConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
}

// Stop terminates the connection loop. Safe to call multiple times and
// before Start.
func (c *SocketClient) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.closeConnection()
	c.wg.Wait()
}
