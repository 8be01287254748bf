package refresh

import (
	"context"

	"github.com/jrsteele09/agent-console/credentials"
)

// Renewer exchanges a refresh credential for a new credential pair. It is the
// network half of a renewal; the Coordinator decides when it runs.
type Renewer interface {
	Renew(ctx context.Context, refreshToken string) (credentials.Pair, error)
}

// RenewerFunc adapts a function to the Renewer interface.
type RenewerFunc func(ctx context.Context, refreshToken string) (credentials.Pair, error)

func (f RenewerFunc) Renew(ctx context.Context, refreshToken string) (credentials.Pair, error) {
	return f(ctx, refreshToken)
}
