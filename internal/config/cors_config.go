package config

import "strings"

type Cors struct{}

var _ CorsConfig = Cors{}

// AllowedOrigins is a set of exact origins ("scheme://host[:port]"). "*" allows any
// origin without credentials.
type AllowedOrigins map[string]struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	origins := make([]string, 0, len(a))
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

// GetAllowedOrigins reads FRONTEND_URL as a comma separated list. The local
// console origin is always allowed.
func (Cors) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{"http://localhost:3000": {}}
	for _, o := range strings.Split(GetEnv("FRONTEND_URL", ""), ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = struct{}{}
		}
	}
	return origins
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, DELETE, OPTIONS"
}

// GetAllowedHeaders includes the htmx request headers the console pages send.
func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, HX-Request, HX-Current-URL, X-Request-ID"
}
