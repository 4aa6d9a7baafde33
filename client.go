package fetcher

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"github.com/trackql/fetcher/internal/composition"
	"github.com/trackql/fetcher/internal/env"
	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/transport"
)

// newTransport resolves c (falling back to GetContext() when nil), validates
// that a project and API token are present, builds the HTTPTransport every
// composition entry point talks to the backend through, and returns the
// env-resolved Config alongside it so callers can size their worker pools
// and batches the same way.
func newTransport(c *Context) (transport.Transport, identifiers.ProjectIdentifier, env.Config, error) {
	if c == nil {
		c = GetContext()
	}
	if c.Project == "" {
		return nil, "", env.Config{}, &ProjectNotProvided{}
	}
	if c.APIToken == "" {
		return nil, "", env.Config{}, &APITokenNotProvided{}
	}

	cfg := env.Load()
	httpClient := &http.Client{
		Timeout:   time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		Transport: proxyingRoundTripper(c.Proxies, cfg.VerifySSL),
	}

	budget := transport.DefaultBudget()
	if cfg.RetrySoftTimeoutSeconds > 0 {
		budget.SoftTimeout = time.Duration(cfg.RetrySoftTimeoutSeconds) * time.Second
	}
	if cfg.RetryHardTimeoutSeconds > 0 {
		budget.HardTimeout = time.Duration(cfg.RetryHardTimeoutSeconds) * time.Second
	}

	t := transport.NewHTTPTransport(c.BaseURL, c.APIToken, httpClient, budget)
	return t, identifiers.ProjectIdentifier(c.Project), cfg, nil
}

// depsFromConfig carries the env-resolved tunables into composition.Deps, so
// NEPTUNE_FETCHER_MAX_WORKERS and the batch-size variables actually size the
// worker pools and request batches every public entry point builds.
func depsFromConfig(t transport.Transport, project identifiers.ProjectIdentifier, cfg env.Config) composition.Deps {
	return composition.Deps{
		Transport: t,
		Project:   project,

		MaxWorkers:                    cfg.MaxWorkers,
		SysAttrsBatchSize:             cfg.SysAttrsBatchSize,
		AttributeDefinitionsBatchSize: cfg.AttributeDefinitionsBatchSize,
		AttributeValuesBatchSize:      cfg.AttributeValuesBatchSize,
		SeriesBatchSize:               cfg.SeriesBatchSize,
		QuerySizeLimitBytes:           cfg.QuerySizeLimitBytes,
	}
}

// proxyingRoundTripper builds an http.RoundTripper that routes requests
// through per-scheme proxies (mirroring the original client's
// httpx_args={"mounts": proxies}) and honors NEPTUNE_VERIFY_SSL, or returns
// the default transport verbatim when neither knob is in use.
func proxyingRoundTripper(proxies map[string]string, verifySSL bool) http.RoundTripper {
	if len(proxies) == 0 && verifySSL {
		return http.DefaultTransport
	}
	rt := http.DefaultTransport.(*http.Transport).Clone()
	if len(proxies) > 0 {
		rt.Proxy = func(req *http.Request) (*url.URL, error) {
			if raw, ok := proxies[req.URL.Scheme]; ok {
				return url.Parse(raw)
			}
			return http.ProxyFromEnvironment(req)
		}
	}
	if !verifySSL {
		if rt.TLSClientConfig == nil {
			rt.TLSClientConfig = &tls.Config{}
		}
		rt.TLSClientConfig.InsecureSkipVerify = true
	}
	return rt
}
