package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"upbit-gpt-trader/internal/interfaces"
	"upbit-gpt-trader/internal/trace"
	"upbit-gpt-trader/internal/types"
)

const cashCurrency = "KRW"

var (
	ErrEmptyAccounts = errors.New("account list is empty")
	ErrEmptyTicker   = errors.New("ticker response is empty")
)

// Reader assembles the per-request position snapshot and market context the
// advisory prompt is built from.
type Reader struct {
	exchange    interfaces.Exchange
	candleCount int
	depthLevel  int
}

func NewReader(exchange interfaces.Exchange, candleCount, depthLevel int) *Reader {
	return &Reader{exchange: exchange, candleCount: candleCount, depthLevel: depthLevel}
}

// Position scans the account list once. Later entries overwrite earlier ones:
// last matching KRW line wins for the cash balance, last matching ticker line
// wins for price and amount. If no line matches the ticker the position does
// not exist; if no KRW line is present the balance stays zero.
func (r *Reader) Position(ctx context.Context, ticker string) (types.PositionSnapshot, error) {
	ctx, span := trace.StartSpan(ctx, "market.Position")
	defer span.End()

	accounts, err := r.exchange.Accounts(ctx)
	if err != nil {
		return types.PositionSnapshot{}, err
	}
	if len(accounts) == 0 {
		return types.PositionSnapshot{}, ErrEmptyAccounts
	}

	var pos types.PositionSnapshot
	for _, item := range accounts {
		if item.Currency == ticker {
			avg, err := truncate(item.AvgBuyPrice)
			if err != nil {
				return types.PositionSnapshot{}, fmt.Errorf("account entry for %s: %w", ticker, err)
			}
			held, err := truncate(item.Balance)
			if err != nil {
				return types.PositionSnapshot{}, fmt.Errorf("account entry for %s: %w", ticker, err)
			}
			pos.Exists = true
			pos.AveragePrice = avg
			pos.HeldAmount = held
		}
		if item.Currency == cashCurrency {
			cash, err := truncate(item.Balance)
			if err != nil {
				return types.PositionSnapshot{}, fmt.Errorf("cash balance entry: %w", err)
			}
			pos.CashBalance = cash
		}
	}
	return pos, nil
}

// Context builds the read-only market view for one request: the current
// ticker snapshot plus 1-minute and 10-minute candle series and order-book
// depth, the latter three kept as opaque text for the prompt.
func (r *Reader) Context(ctx context.Context, ticker string) (types.MarketContext, error) {
	ctx, span := trace.StartSpan(ctx, "market.Context")
	defer span.End()

	infos, err := r.exchange.Ticker(ctx, ticker)
	if err != nil {
		return types.MarketContext{}, err
	}
	if len(infos) == 0 {
		return types.MarketContext{}, ErrEmptyTicker
	}

	oneMinute, err := r.exchange.MinuteCandles(ctx, ticker, 1, r.candleCount)
	if err != nil {
		return types.MarketContext{}, err
	}
	tenMinute, err := r.exchange.MinuteCandles(ctx, ticker, 10, r.candleCount)
	if err != nil {
		return types.MarketContext{}, err
	}
	depth, err := r.exchange.Orderbook(ctx, ticker, r.depthLevel)
	if err != nil {
		return types.MarketContext{}, err
	}

	return types.MarketContext{
		Info:             infos[0],
		OneMinuteCandles: oneMinute,
		TenMinuteCandles: tenMinute,
		Orderbook:        depth,
	}, nil
}

// Summary renders the user prompt for the advisory model.
func Summary(ticker string, pos types.PositionSnapshot, mctx types.MarketContext) string {
	info, _ := json.Marshal(mctx.Info)
	return fmt.Sprintf(
		"The average price of the %s I bought is %d and holding quantity is %d. "+
			"My remaining balance is %d. %s info is %s. "+
			"And 1 minute candle information is %s. And 10 minute candle information is %s. "+
			"The current asking price information is %s.",
		ticker, pos.AveragePrice, pos.HeldAmount,
		pos.CashBalance, ticker, string(info),
		mctx.OneMinuteCandles, mctx.TenMinuteCandles,
		mctx.Orderbook,
	)
}

// truncate parses a decimal string and drops the fraction, the way the
// account scan has always treated exchange amounts.
func truncate(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	return int64(f), nil
}
