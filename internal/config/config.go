package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPIPrefix() string
	GetRequestTimeout() time.Duration
	GetRenewalTimeout() time.Duration
}

type StoreConfig interface {
	GetCredentialStore() StoreBackend
	GetCredentialsFile() string
	GetSQLitePath() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	API
	Store
	Cors
}

func New() Config {
	return mainConfig{}
}
