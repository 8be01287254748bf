package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/credentials/filestore"
	"github.com/jrsteele09/agent-console/credentials/memstore"
	"github.com/jrsteele09/agent-console/credentials/redisstore"
	"github.com/jrsteele09/agent-console/credentials/sqlitestore"
	"github.com/jrsteele09/agent-console/internal/config"
)

// openStore picks the credential backend named by CREDENTIAL_STORE.
func openStore(c config.StoreConfig) (credentials.Store, error) {
	backend := c.GetCredentialStore()
	log.Info().Str("backend", string(backend)).Msg("Opening credential store")

	switch backend {
	case config.StoreMemory:
		return memstore.New(), nil
	case config.StoreFile:
		return filestore.New(c.GetCredentialsFile())
	case config.StoreSQLite:
		return sqlitestore.New(c.GetSQLitePath())
	case config.StoreRedis:
		return redisstore.Dial(c.GetRedisURL(), c.GetRedisKeyPrefix())
	default:
		return nil, fmt.Errorf("unknown credential store %q", backend)
	}
}
