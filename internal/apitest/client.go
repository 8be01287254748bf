package apitest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/agent-console/apiclient"
	"github.com/jrsteele09/agent-console/auth"
	"github.com/jrsteele09/agent-console/credentials/memstore"
)

// SignedInClient creates a fresh account and returns an authenticated client
// holding a live credential pair for it, plus the account's id.
func (s *Server) SignedInClient(t testing.TB) (*apiclient.Authenticated, int64) {
	t.Helper()

	userID := s.AddUser(uuid.NewString()+"@example.com", "Secret123")
	pair, err := s.mintPair(userID)
	require.NoError(t, err)

	client, err := apiclient.New(s.URL, Prefix)
	require.NoError(t, err)
	return apiclient.NewAuthenticated(client, memstore.NewWithPair(pair), auth.NewRenewer(client)), userID
}
