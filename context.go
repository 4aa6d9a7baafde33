package fetcher

import (
	"sync/atomic"

	"github.com/trackql/fetcher/internal/env"
)

// Context bundles the project, API token, base URL, and outbound proxy map
// a fetch call authenticates and connects with. The zero value is never
// valid on its own; use GetContext/SetContext, or pass a *Context
// explicitly to an entry point's Options.
type Context struct {
	Project  string
	APIToken string
	BaseURL  string
	Proxies  map[string]string
}

var globalContext atomic.Pointer[Context]

// GetContext returns the process-wide context, resolving it from the
// NEPTUNE_PROJECT / NEPTUNE_API_TOKEN / NEPTUNE_API_URL environment
// variables on first access if SetContext hasn't already been called.
func GetContext() *Context {
	if c := globalContext.Load(); c != nil {
		return c
	}
	cfg := env.Load()
	c := &Context{Project: cfg.Project, APIToken: cfg.APIToken, BaseURL: cfg.APIURL}
	globalContext.CompareAndSwap(nil, c)
	return globalContext.Load()
}

// SetContext overrides the process-wide context. Project, apiToken, and
// baseURL left empty fall back to their environment variables; proxies is
// used verbatim (nil disables proxying).
func SetContext(project, apiToken, baseURL string, proxies map[string]string) *Context {
	cfg := env.Load()
	if project == "" {
		project = cfg.Project
	}
	if apiToken == "" {
		apiToken = cfg.APIToken
	}
	if baseURL == "" {
		baseURL = cfg.APIURL
	}
	c := &Context{Project: project, APIToken: apiToken, BaseURL: baseURL, Proxies: proxies}
	globalContext.Store(c)
	return c
}
