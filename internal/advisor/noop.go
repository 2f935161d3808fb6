package advisor

import (
	"context"

	"upbit-gpt-trader/internal/types"
)

// NoopAdvisor always recommends holding. Useful for running the relay
// without an advisory API key.
type NoopAdvisor struct{}

func NewNoopAdvisor() *NoopAdvisor {
	return &NoopAdvisor{}
}

func (a *NoopAdvisor) Consult(ctx context.Context, summary, ticker string) (string, error) {
	return types.HoldSentinel + "\nNo advisory provider configured.", nil
}
