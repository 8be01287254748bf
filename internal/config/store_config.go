package config

import (
	"path/filepath"
	"strings"
)

// StoreBackend names a credential persistence implementation.
type StoreBackend string

const (
	StoreFile   StoreBackend = "file"
	StoreSQLite StoreBackend = "sqlite"
	StoreRedis  StoreBackend = "redis"
	StoreMemory StoreBackend = "memory"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetCredentialStore() StoreBackend {
	return StoreBackend(strings.ToLower(GetEnv("CREDENTIAL_STORE", string(StoreFile))))
}

func (Store) GetCredentialsFile() string {
	return GetEnv("CREDENTIALS_FILE", filepath.Join(EnvVars{}.GetDataFolder(), "credentials.json"))
}

func (Store) GetSQLitePath() string {
	return GetEnv("SQLITE_PATH", filepath.Join(EnvVars{}.GetDataFolder(), "console.db"))
}

func (Store) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Store) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "agent-console")
}
