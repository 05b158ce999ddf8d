package hsc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tradegate/internal/domain"
	"tradegate/internal/infra"
)

// RestClient is the authenticated trading REST wrapper: one persistent
// session carrying the bearer credential. Every call fails on non-2xx
// status; there is no retry here, the gateway decides whether a
// failure is fatal or reportable.
type RestClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRestClient creates the trading client from validated settings.
func NewRestClient(cfg infra.HscConfig) *RestClient {
	return &RestClient{
		baseURL: cfg.RestURL,
		token:   cfg.BearerToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "hsc_rest"),
	}
}

// PlaceOrder submits one order and returns the venue-assigned id.
func (c *RestClient) PlaceOrder(ctx context.Context, order placeOrderRequest) (string, error) {
	var resp placeOrderResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/orders", order, &resp); err != nil {
		return "", err
	}
	if resp.OrderID == "" {
		return "", domain.NewFatalTransportError("place-order", fmt.Errorf("venue returned no order id"))
	}

	c.logger.Info("order placed", "remote_id", resp.OrderID, "symbol", order.Symbol)
	return resp.OrderID, nil
}

// CancelOrder cancels by the venue-assigned id.
func (c *RestClient) CancelOrder(ctx context.Context, remoteID string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/orders/"+remoteID+"/cancel", nil, nil)
}

// GetJSON issues an authenticated GET against an absolute URL and
// decodes the response body into out.
func (c *RestClient) GetJSON(ctx context.Context, url string, out any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, out)
}

// doJSON handles auth headers, serialization and status checking.
func (c *RestClient) doJSON(ctx context.Context, method, url string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewFatalTransportError(method+" "+url, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewFatalTransportError("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.NewFatalTransportError(
			method+" "+url,
			fmt.Errorf("status=%d body=%s", resp.StatusCode, string(respBytes)),
		)
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Close releases the idle connections of the session.
func (c *RestClient) Close() {
	c.httpClient.CloseIdleConnections()
}
