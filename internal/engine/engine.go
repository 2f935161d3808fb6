package engine

import (
	"context"
	"strings"
	"time"

	"upbit-gpt-trader/internal/interfaces"
	"upbit-gpt-trader/internal/logger"
	"upbit-gpt-trader/internal/market"
	"upbit-gpt-trader/internal/metrics"
	"upbit-gpt-trader/internal/trace"
	"upbit-gpt-trader/internal/tradelog"
	"upbit-gpt-trader/internal/types"
)

// Engine runs one trade evaluation end to end: position and market snapshot,
// advisory consultation, guard evaluation, and the conditional order.
type Engine struct {
	reader   *market.Reader
	advisor  interfaces.Advisor
	exchange interfaces.Exchange
}

func New(reader *market.Reader, advisor interfaces.Advisor, exchange interfaces.Exchange) *Engine {
	return &Engine{reader: reader, advisor: advisor, exchange: exchange}
}

// Evaluate maps the advisory text onto a terminal action. Guards run in a
// fixed order with first match winning, so a text carrying both buy and sell
// sentinels resolves to BUY whenever the balance guard passes. Affordability
// comparisons are strict: an exact-balance match is insufficient.
func Evaluate(advisory string, req types.TradeRequest, pos types.PositionSnapshot) types.Action {
	switch {
	case strings.Contains(advisory, types.BuySentinel) && float64(pos.CashBalance) > req.Price:
		return types.ActionBuy
	case strings.Contains(advisory, types.SellSentinel) && float64(pos.HeldAmount) > req.Volume:
		return types.ActionSell
	case strings.Contains(advisory, types.HoldSentinel):
		return types.ActionHold
	default:
		return types.ActionNone
	}
}

// Step handles exactly one TradeRequest. Every upstream call runs in
// sequence; any failure aborts the request with no partial order state.
func (e *Engine) Step(ctx context.Context, req types.TradeRequest) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.StepLatency.Observe(time.Since(start).Seconds())
	}()

	pos, err := e.reader.Position(ctx, req.Ticker)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("exchange").Inc()
		logger.ErrorWithErr(ctx, "Failed to read position", err, "ticker", req.Ticker)
		return nil, err
	}

	mctx, err := e.reader.Context(ctx, req.Ticker)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("exchange").Inc()
		logger.ErrorWithErr(ctx, "Failed to read market context", err, "ticker", req.Ticker)
		return nil, err
	}

	logger.Debug(ctx, "Current state",
		"ticker", req.Ticker,
		"position_exists", pos.Exists,
		"held_amount", pos.HeldAmount,
		"cash_balance", pos.CashBalance,
		"buy_able", float64(pos.CashBalance) > req.Price,
		"sell_able", float64(pos.HeldAmount) > req.Volume,
	)

	summary := market.Summary(req.Ticker, pos, mctx)
	advisory, err := e.advisor.Consult(ctx, summary, req.Ticker)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("advisory").Inc()
		return nil, err
	}

	action := Evaluate(advisory, req, pos)
	logger.Decision(ctx, req.Ticker, string(action),
		"cash_balance", pos.CashBalance,
		"held_amount", pos.HeldAmount,
		"requested_price", req.Price,
		"requested_volume", req.Volume,
	)
	metrics.Decisions.WithLabelValues(string(action)).Inc()
	_ = tradelog.AppendDecision(tradelog.DecisionEntry{
		Ticker:      req.Ticker,
		Action:      string(action),
		Advisory:    advisory,
		CashBalance: pos.CashBalance,
		HeldAmount:  pos.HeldAmount,
	})

	result := &types.StepResult{Ticker: req.Ticker, Action: action, Advisory: advisory}

	switch action {
	case types.ActionBuy:
		order, err := e.exchange.Buy(ctx, req.Ticker, req.Price)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("exchange").Inc()
			logger.ErrorWithErr(ctx, "Failed to submit buy order", err, "ticker", req.Ticker, "price", req.Price)
			return nil, err
		}
		logger.Trade(ctx, req.Ticker, "bid", req.Price)
		metrics.Orders.WithLabelValues("bid").Inc()
		_ = tradelog.Append(tradelog.Entry{Ticker: req.Ticker, Side: "bid", Amount: req.Price, Response: order})
		result.Order = order

	case types.ActionSell:
		order, err := e.exchange.Sell(ctx, req.Ticker, req.Volume)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("exchange").Inc()
			logger.ErrorWithErr(ctx, "Failed to submit sell order", err, "ticker", req.Ticker, "volume", req.Volume)
			return nil, err
		}
		logger.Trade(ctx, req.Ticker, "ask", req.Volume)
		metrics.Orders.WithLabelValues("ask").Inc()
		_ = tradelog.Append(tradelog.Entry{Ticker: req.Ticker, Side: "ask", Amount: req.Volume, Response: order})
		result.Order = order
	}

	return result, nil
}
