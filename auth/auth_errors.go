package auth

import (
	"fmt"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/internal/errors"
)

// checkIssued rejects a successful response that did not carry a full pair.
func checkIssued(op string, resp TokenResponse) (credentials.Pair, error) {
	pair := resp.Pair()
	if err := credentials.CheckPair(pair); err != nil {
		return credentials.Pair{}, fmt.Errorf("[auth %s] %w: %w", op, errors.ErrRemote, err)
	}
	return pair, nil
}
