package interfaces

import (
	"context"
	"encoding/json"

	"upbit-gpt-trader/internal/types"
)

type Exchange interface {
	Accounts(ctx context.Context) ([]types.Account, error)
	Ticker(ctx context.Context, ticker string) ([]types.TickerInfo, error)
	MinuteCandles(ctx context.Context, ticker string, unit, count int) (string, error)
	Orderbook(ctx context.Context, ticker string, level int) (string, error)
	Buy(ctx context.Context, ticker string, price float64) (json.RawMessage, error)
	Sell(ctx context.Context, ticker string, volume float64) (json.RawMessage, error)
}
