package config

import (
	"strings"
	"time"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the scheme and host of the remote API (e.g., "https://api.example.com")
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv("API_URL", "http://localhost:8000"), "/")
}

// GetAPIPrefix returns the versioned path every remote endpoint lives under
func (API) GetAPIPrefix() string {
	return "/" + strings.Trim(GetEnv("API_PREFIX", "/api/v1"), "/")
}

func (API) GetRequestTimeout() time.Duration {
	return GetDuration("REQUEST_TIMEOUT", 30*time.Second)
}

// GetRenewalTimeout bounds a single credential renewal call, independent of the
// callers waiting on it.
func (API) GetRenewalTimeout() time.Duration {
	return GetDuration("RENEWAL_TIMEOUT", 15*time.Second)
}
