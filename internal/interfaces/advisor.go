package interfaces

import "context"

type Advisor interface {
	Consult(ctx context.Context, summary, ticker string) (string, error)
}
