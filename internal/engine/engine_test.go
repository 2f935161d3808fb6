package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"upbit-gpt-trader/internal/market"
	"upbit-gpt-trader/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchange struct {
	accounts    []types.Account
	accountsErr error

	buyCalls  int
	sellCalls int
	lastPrice float64
	lastVol   float64

	orderResp json.RawMessage
	orderErr  error
}

func (f *fakeExchange) Accounts(ctx context.Context) ([]types.Account, error) {
	return f.accounts, f.accountsErr
}

func (f *fakeExchange) Ticker(ctx context.Context, ticker string) ([]types.TickerInfo, error) {
	return []types.TickerInfo{{TradePrice: 100000000}}, nil
}

func (f *fakeExchange) MinuteCandles(ctx context.Context, ticker string, unit, count int) (string, error) {
	return `[{"unit":1}]`, nil
}

func (f *fakeExchange) Orderbook(ctx context.Context, ticker string, level int) (string, error) {
	return `[{"orderbook_units":[]}]`, nil
}

func (f *fakeExchange) Buy(ctx context.Context, ticker string, price float64) (json.RawMessage, error) {
	f.buyCalls++
	f.lastPrice = price
	return f.orderResp, f.orderErr
}

func (f *fakeExchange) Sell(ctx context.Context, ticker string, volume float64) (json.RawMessage, error) {
	f.sellCalls++
	f.lastVol = volume
	return f.orderResp, f.orderErr
}

type fakeAdvisor struct {
	reply    string
	err      error
	consults int
}

func (f *fakeAdvisor) Consult(ctx context.Context, summary, ticker string) (string, error) {
	f.consults++
	return f.reply, f.err
}

func TestEvaluate(t *testing.T) {
	req := types.TradeRequest{Ticker: "BTC", Volume: 0.01, Price: 1000000}

	tests := []struct {
		name     string
		advisory string
		pos      types.PositionSnapshot
		want     types.Action
	}{
		{
			name:     "buy sentinel with sufficient cash",
			advisory: types.BuySentinel + "\nMomentum looks strong.",
			pos:      types.PositionSnapshot{CashBalance: 2000000},
			want:     types.ActionBuy,
		},
		{
			name:     "buy sentinel with insufficient cash",
			advisory: types.BuySentinel,
			pos:      types.PositionSnapshot{CashBalance: 500000},
			want:     types.ActionNone,
		},
		{
			name:     "exact balance is insufficient",
			advisory: types.BuySentinel,
			pos:      types.PositionSnapshot{CashBalance: 1000000},
			want:     types.ActionNone,
		},
		{
			name:     "sell sentinel with sufficient holdings",
			advisory: types.SellSentinel + "\nTake profit.",
			pos:      types.PositionSnapshot{Exists: true, HeldAmount: 3},
			want:     types.ActionSell,
		},
		{
			name:     "sell sentinel with insufficient holdings",
			advisory: types.SellSentinel,
			pos:      types.PositionSnapshot{Exists: true, HeldAmount: 0},
			want:     types.ActionNone,
		},
		{
			name:     "hold sentinel",
			advisory: types.HoldSentinel + "\nSideways market.",
			pos:      types.PositionSnapshot{CashBalance: 2000000, HeldAmount: 3},
			want:     types.ActionHold,
		},
		{
			name:     "both buy and sell resolve to buy first",
			advisory: types.BuySentinel + " " + types.SellSentinel,
			pos:      types.PositionSnapshot{CashBalance: 2000000, HeldAmount: 3},
			want:     types.ActionBuy,
		},
		{
			name:     "blocked buy falls through to sell",
			advisory: types.BuySentinel + " " + types.SellSentinel,
			pos:      types.PositionSnapshot{CashBalance: 0, HeldAmount: 3},
			want:     types.ActionSell,
		},
		{
			name:     "unrecognized text",
			advisory: "I cannot advise on this market.",
			pos:      types.PositionSnapshot{CashBalance: 2000000, HeldAmount: 3},
			want:     types.ActionNone,
		},
		{
			name:     "sentinel embedded mid-text still matches",
			advisory: "My verdict: " + types.HoldSentinel + ", wait it out.",
			pos:      types.PositionSnapshot{},
			want:     types.ActionHold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.advisory, req, tt.pos)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestEngine(t *testing.T, ex *fakeExchange, adv *fakeAdvisor) *Engine {
	t.Helper()
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	return New(market.NewReader(ex, 10, 10), adv, ex)
}

func TestStepBuySubmitsOrder(t *testing.T) {
	orderResp := json.RawMessage(`{"uuid":"order-1","side":"bid","ord_type":"price"}`)
	ex := &fakeExchange{
		accounts: []types.Account{
			{Currency: "KRW", Balance: "2000000", AvgBuyPrice: "0"},
		},
		orderResp: orderResp,
	}
	adv := &fakeAdvisor{reply: types.BuySentinel + "\nStrong upward momentum."}
	eng := newTestEngine(t, ex, adv)

	res, err := eng.Step(context.Background(), types.TradeRequest{Ticker: "BTC", Volume: 0.01, Price: 1000000})
	require.NoError(t, err)

	assert.Equal(t, types.ActionBuy, res.Action)
	assert.Equal(t, 1, ex.buyCalls)
	assert.Equal(t, 0, ex.sellCalls)
	assert.Equal(t, float64(1000000), ex.lastPrice)
	assert.Equal(t, orderResp, res.Order)
	assert.Equal(t, adv.reply, res.Advisory)
}

func TestStepSellBlockedByHoldings(t *testing.T) {
	ex := &fakeExchange{
		accounts: []types.Account{
			{Currency: "KRW", Balance: "50000", AvgBuyPrice: "0"},
			{Currency: "BTC", Balance: "0", AvgBuyPrice: "98000000"},
		},
	}
	adv := &fakeAdvisor{reply: types.SellSentinel + "\nTrend is breaking down."}
	eng := newTestEngine(t, ex, adv)

	res, err := eng.Step(context.Background(), types.TradeRequest{Ticker: "BTC", Volume: 0.01, Price: 1000000})
	require.NoError(t, err)

	assert.Equal(t, types.ActionNone, res.Action)
	assert.Zero(t, ex.buyCalls)
	assert.Zero(t, ex.sellCalls)
	assert.Nil(t, res.Order)
}

func TestStepSellSubmitsOrder(t *testing.T) {
	orderResp := json.RawMessage(`{"uuid":"order-2","side":"ask","ord_type":"market"}`)
	ex := &fakeExchange{
		accounts: []types.Account{
			{Currency: "KRW", Balance: "50000", AvgBuyPrice: "0"},
			{Currency: "ETH", Balance: "5.7", AvgBuyPrice: "4000000"},
		},
		orderResp: orderResp,
	}
	adv := &fakeAdvisor{reply: types.SellSentinel}
	eng := newTestEngine(t, ex, adv)

	res, err := eng.Step(context.Background(), types.TradeRequest{Ticker: "ETH", Volume: 2, Price: 1000000})
	require.NoError(t, err)

	assert.Equal(t, types.ActionSell, res.Action)
	assert.Equal(t, 1, ex.sellCalls)
	assert.Equal(t, float64(2), ex.lastVol)
	assert.Equal(t, orderResp, res.Order)
}

func TestStepHoldPlacesNoOrder(t *testing.T) {
	ex := &fakeExchange{
		accounts: []types.Account{
			{Currency: "KRW", Balance: "2000000", AvgBuyPrice: "0"},
		},
	}
	adv := &fakeAdvisor{reply: types.HoldSentinel + "\nWait for a clearer signal."}
	eng := newTestEngine(t, ex, adv)

	res, err := eng.Step(context.Background(), types.TradeRequest{Ticker: "BTC", Volume: 0.01, Price: 1000000})
	require.NoError(t, err)

	assert.Equal(t, types.ActionHold, res.Action)
	assert.Equal(t, adv.reply, res.Advisory)
	assert.Zero(t, ex.buyCalls)
	assert.Zero(t, ex.sellCalls)
	assert.Nil(t, res.Order)
}

func TestStepEmptyAccountsAborts(t *testing.T) {
	ex := &fakeExchange{accounts: []types.Account{}}
	adv := &fakeAdvisor{reply: types.BuySentinel}
	eng := newTestEngine(t, ex, adv)

	_, err := eng.Step(context.Background(), types.TradeRequest{Ticker: "BTC", Volume: 0.01, Price: 1000000})
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrEmptyAccounts)
	assert.Zero(t, adv.consults, "advisor must not be consulted when the position read fails")
	assert.Zero(t, ex.buyCalls)
}

func TestStepAdvisorFailureAborts(t *testing.T) {
	ex := &fakeExchange{
		accounts: []types.Account{
			{Currency: "KRW", Balance: "2000000", AvgBuyPrice: "0"},
		},
	}
	adv := &fakeAdvisor{err: errors.New("upstream timeout")}
	eng := newTestEngine(t, ex, adv)

	_, err := eng.Step(context.Background(), types.TradeRequest{Ticker: "BTC", Volume: 0.01, Price: 1000000})
	require.Error(t, err)
	assert.Zero(t, ex.buyCalls)
	assert.Zero(t, ex.sellCalls)
}

func TestStepOrderFailurePropagates(t *testing.T) {
	ex := &fakeExchange{
		accounts: []types.Account{
			{Currency: "KRW", Balance: "2000000", AvgBuyPrice: "0"},
		},
		orderErr: errors.New("connection reset"),
	}
	adv := &fakeAdvisor{reply: types.BuySentinel}
	eng := newTestEngine(t, ex, adv)

	_, err := eng.Step(context.Background(), types.TradeRequest{Ticker: "BTC", Volume: 0.01, Price: 1000000})
	require.Error(t, err)
	assert.Equal(t, 1, ex.buyCalls)
}
