package advisorobs

import (
	"context"

	"upbit-gpt-trader/internal/interfaces"
	"upbit-gpt-trader/internal/logger"
	"upbit-gpt-trader/internal/trace"
)

// observableAdvisor wraps an Advisor with logging and tracing.
type observableAdvisor struct {
	advisor interfaces.Advisor
}

// Compile-time interface check
var _ interfaces.Advisor = (*observableAdvisor)(nil)

// Wrap wraps an advisor with observability middleware
func Wrap(advisor interfaces.Advisor) interfaces.Advisor {
	return &observableAdvisor{advisor: advisor}
}

func (oa *observableAdvisor) Consult(ctx context.Context, summary, ticker string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "advisor.obs")
	defer span.End()

	// Skip(1) so the source field reports the actual caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting advisory",
		"ticker", ticker,
		"summary_bytes", len(summary),
	)

	text, err := oa.advisor.Consult(ctx, summary, ticker)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Advisory request failed", err, "ticker", ticker)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Advisory received",
		"ticker", ticker,
		"advisory_bytes", len(text),
	)
	return text, nil
}
