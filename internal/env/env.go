// Package env reads the environment variables that parameterize the
// in-scope components of the fetch pipeline (worker counts, batch sizes,
// retry budgets). It is intentionally narrow: a full configuration-file or
// CLI-flag framework is out of scope (spec §1); this package only resolves
// the documented env surface into a typed Config.
package env

import (
	"os"
	"strconv"
	"strings"
)

// Config is the resolved set of tunables read from the environment. Each
// field defaults per spec.md §6 when its variable is unset or empty.
type Config struct {
	APIToken    string
	Project     string
	// APIURL is the backend base URL. The real client derives this from the
	// API token itself via OIDC discovery; since that exchange is out of
	// scope here, it's read directly from NEPTUNE_API_URL instead.
	APIURL      string
	VerifySSL   bool
	HTTPTimeoutSeconds int

	MaxWorkers int

	SysAttrsBatchSize              int
	AttributeDefinitionsBatchSize  int
	AttributeValuesBatchSize       int
	SeriesBatchSize                int
	QuerySizeLimitBytes            int

	RetrySoftTimeoutSeconds int
	RetryHardTimeoutSeconds int
}

// Load resolves a Config from the current environment.
func Load() Config {
	return Config{
		APIToken:           getString("NEPTUNE_API_TOKEN", ""),
		Project:            getString("NEPTUNE_PROJECT", ""),
		APIURL:             getString("NEPTUNE_API_URL", ""),
		VerifySSL:          getBool("NEPTUNE_VERIFY_SSL", true),
		HTTPTimeoutSeconds: getInt("NEPTUNE_HTTP_REQUEST_TIMEOUT_SECONDS", 60),

		MaxWorkers: getInt("NEPTUNE_FETCHER_MAX_WORKERS", 10),

		SysAttrsBatchSize:             getInt("NEPTUNE_FETCHER_SYS_ATTRS_BATCH_SIZE", 10_000),
		AttributeDefinitionsBatchSize: getInt("NEPTUNE_FETCHER_ATTRIBUTE_DEFINITIONS_BATCH_SIZE", 10_000),
		AttributeValuesBatchSize:      getInt("NEPTUNE_FETCHER_ATTRIBUTE_VALUES_BATCH_SIZE", 10_000),
		SeriesBatchSize:               getInt("NEPTUNE_FETCHER_SERIES_BATCH_SIZE", 10_000),
		QuerySizeLimitBytes:           getInt("NEPTUNE_FETCHER_QUERY_SIZE_LIMIT", 220_000),

		RetrySoftTimeoutSeconds: getInt("NEPTUNE_FETCHER_RETRY_SOFT_TIMEOUT", 1800),
		RetryHardTimeoutSeconds: getInt("NEPTUNE_FETCHER_RETRY_HARD_TIMEOUT", 3600),
	}
}

func getString(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func getBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1"
}

func getInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
