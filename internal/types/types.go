package types

import "encoding/json"

// Sentinel tokens the advisory model is instructed to place on the first
// line of its answer. Substring containment is the whole parsing contract.
const (
	BuySentinel  = "BBUUYY"
	SellSentinel = "SSEELLLL"
	HoldSentinel = "HHOOLLDD"
)

// Action is the terminal outcome of one trade evaluation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
	ActionNone Action = "NO_ACTION"
)

// TradeRequest is the inbound contract of the relay.
type TradeRequest struct {
	Ticker string  `json:"ticker" validate:"required"`
	Volume float64 `json:"volume" validate:"required,gt=0"`
	Price  float64 `json:"price" validate:"required,gt=0"`
}

// Account is one line of the exchange's /v1/accounts response. Amounts come
// back as decimal strings.
type Account struct {
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	AvgBuyPrice string `json:"avg_buy_price"`
}

// PositionSnapshot is the per-request view of the caller's holdings.
// Amounts are truncated to whole units, matching the account scan this
// system has always done.
type PositionSnapshot struct {
	Exists       bool
	AveragePrice int64
	HeldAmount   int64
	CashBalance  int64 // KRW line of the account list
}

// TickerInfo mirrors the exchange's public ticker snapshot fields that get
// forwarded into the advisory prompt.
type TickerInfo struct {
	OpeningPrice       float64 `json:"opening_price"`
	HighPrice          float64 `json:"high_price"`
	LowPrice           float64 `json:"low_price"`
	TradePrice         float64 `json:"trade_price"`
	PrevClosingPrice   float64 `json:"prev_closing_price"`
	Change             string  `json:"change"`
	ChangePrice        float64 `json:"change_price"`
	ChangeRate         float64 `json:"change_rate"`
	SignedChangePrice  float64 `json:"signed_change_price"`
	SignedChangeRate   float64 `json:"signed_change_rate"`
	TradeVolume        float64 `json:"trade_volume"`
	AccTradePrice      float64 `json:"acc_trade_price"`
	AccTradePrice24h   float64 `json:"acc_trade_price_24h"`
	AccTradeVolume     float64 `json:"acc_trade_volume"`
	AccTradeVolume24h  float64 `json:"acc_trade_volume_24h"`
	Highest52WeekPrice float64 `json:"highest_52_week_price"`
	Highest52WeekDate  string  `json:"highest_52_week_date"`
	Lowest52WeekPrice  float64 `json:"lowest_52_week_price"`
	Lowest52WeekDate   string  `json:"lowest_52_week_date"`
	Timestamp          int64   `json:"timestamp"`
}

// MarketContext is the read-only market view assembled per request. Candle
// and orderbook payloads stay opaque; they are forwarded into the prompt as
// text, never parsed.
type MarketContext struct {
	Info             TickerInfo
	OneMinuteCandles string
	TenMinuteCandles string
	Orderbook        string
}

// StepResult is what one trade evaluation returns to the caller. Order holds
// the exchange's raw response when an order was submitted, passed through
// unmodified.
type StepResult struct {
	Ticker   string          `json:"ticker"`
	Action   Action          `json:"action"`
	Advisory string          `json:"advisory"`
	Order    json.RawMessage `json:"order,omitempty"`
}
