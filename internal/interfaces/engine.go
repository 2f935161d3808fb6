package interfaces

import (
	"context"

	"upbit-gpt-trader/internal/types"
)

type Engine interface {
	Step(ctx context.Context, req types.TradeRequest) (*types.StepResult, error)
}
