package upbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"upbit-gpt-trader/internal/api"
	"upbit-gpt-trader/internal/types"
)

// The exchange's minimum order is 5000 KRW; orders below it are rejected by
// the exchange itself, not by this client.
const (
	sideBid = "bid" // buy
	sideAsk = "ask" // sell

	ordTypePrice  = "price"  // spend a fixed KRW amount at market
	ordTypeMarket = "market" // sell a fixed volume at market
)

// MarketCode returns the exchange market pair for a ticker. Everything in
// this system trades against KRW.
func MarketCode(ticker string) string {
	return "KRW-" + ticker
}

// Client talks to the exchange's private (signed) and public REST APIs.
type Client struct {
	private *api.Client
	public  *api.Client
	signer  *Signer
}

// ClientOption configures the exchange client
type ClientOption func(*clientConfig)

type clientConfig struct {
	timeout time.Duration
	logging bool
}

// WithTimeout sets the timeout for both underlying HTTP clients
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithLogging enables request/response logging
func WithLogging(enabled bool) ClientOption {
	return func(c *clientConfig) {
		c.logging = enabled
	}
}

// NewClient creates an exchange client. serverURL is the private API base
// (account and order endpoints), publicURL the unauthenticated one.
func NewClient(signer *Signer, serverURL, publicURL string, opts ...ClientOption) *Client {
	cfg := clientConfig{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{
		private: api.NewClient(
			api.WithBaseURL(serverURL),
			api.WithTimeout(cfg.timeout),
			api.WithLogging(cfg.logging),
		),
		public: api.NewClient(
			api.WithBaseURL(publicURL),
			api.WithTimeout(cfg.timeout),
			api.WithLogging(cfg.logging),
		),
		signer: signer,
	}
}

// Accounts lists the caller's balances. Signed with no query parameters.
func (c *Client) Accounts(ctx context.Context) ([]types.Account, error) {
	auth, err := c.signer.Authorization(nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.private.GET(ctx, "/v1/accounts", map[string]string{"Authorization": auth})
	if err != nil {
		return nil, fmt.Errorf("account query failed: %w", err)
	}

	var accounts []types.Account
	if err := resp.ParseJSON(&accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Ticker fetches the public ticker snapshot for a ticker's KRW market.
func (c *Client) Ticker(ctx context.Context, ticker string) ([]types.TickerInfo, error) {
	resp, err := c.public.GET(ctx, "/v1/ticker?markets="+url.QueryEscape(MarketCode(ticker)))
	if err != nil {
		return nil, fmt.Errorf("ticker query failed: %w", err)
	}

	var infos []types.TickerInfo
	if err := resp.ParseJSON(&infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// MinuteCandles fetches recent minute candles as opaque text; the payload is
// forwarded into the advisory prompt, never parsed.
func (c *Client) MinuteCandles(ctx context.Context, ticker string, unit, count int) (string, error) {
	path := fmt.Sprintf("/v1/candles/minutes/%d?market=%s&count=%d", unit, url.QueryEscape(MarketCode(ticker)), count)
	resp, err := c.public.GET(ctx, path)
	if err != nil {
		return "", fmt.Errorf("candle query failed: %w", err)
	}
	return resp.String(), nil
}

// Orderbook fetches order-book depth as opaque text.
func (c *Client) Orderbook(ctx context.Context, ticker string, level int) (string, error) {
	path := fmt.Sprintf("/v1/orderbook?markets=%s&level=%d", url.QueryEscape(MarketCode(ticker)), level)
	resp, err := c.public.GET(ctx, path)
	if err != nil {
		return "", fmt.Errorf("orderbook query failed: %w", err)
	}
	return resp.String(), nil
}

// Buy submits a price-type bid: spend `price` KRW on the ticker at market.
func (c *Client) Buy(ctx context.Context, ticker string, price float64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("market", MarketCode(ticker))
	params.Set("side", sideBid)
	params.Set("ord_type", ordTypePrice)
	params.Set("price", formatAmount(price))
	return c.placeOrder(ctx, params)
}

// Sell submits a market-type ask: sell `volume` units of the ticker.
func (c *Client) Sell(ctx context.Context, ticker string, volume float64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("market", MarketCode(ticker))
	params.Set("side", sideAsk)
	params.Set("ord_type", ordTypeMarket)
	params.Set("volume", formatAmount(volume))
	return c.placeOrder(ctx, params)
}

// placeOrder signs the parameter set and submits it. The exchange's response
// is passed through verbatim, accepted or rejected alike; nothing here
// inspects it.
func (c *Client) placeOrder(ctx context.Context, params url.Values) (json.RawMessage, error) {
	auth, err := c.signer.Authorization(params)
	if err != nil {
		return nil, err
	}

	body := make(map[string]string, len(params))
	for key := range params {
		body[key] = params.Get(key)
	}

	req := api.NewRequest(http.MethodPost, "/v1/orders").
		WithContext(ctx).
		WithBody(body).
		WithHeader("Authorization", auth).
		AcceptAnyStatus()

	resp, err := c.private.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order submission failed: %w", err)
	}
	return json.RawMessage(resp.Body), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
