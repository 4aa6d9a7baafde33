package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
)

// ClientConfig mirrors GET /client-config: the OIDC discovery URL and
// client id the caller needs to obtain an API token. Nothing in this module
// calls it; HTTPTransport sends it with the same bearer token as every other
// call.
type ClientConfig struct {
	OIDCDiscoveryURL string `json:"oidcDiscoveryUrl"`
	ClientID         string `json:"clientId"`
}

// NextPage is the paging token shape common to every paginated endpoint.
type NextPage struct {
	Limit         int    `json:"limit,omitempty"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// SearchLeaderboardEntriesRequest/Response model POST /search-leaderboard-entries.
// The wire payload is protobuf on the real backend (spec.md §6); this
// transport speaks the JSON-shaped equivalent sonic can marshal, since the
// exact protobuf framing is an external collaborator's contract this
// module only needs to represent, not reproduce byte-for-byte.
type SearchLeaderboardEntriesRequest struct {
	Project     string   `json:"project"`
	Types       []string `json:"types"`
	FilterQuery string   `json:"filter_query,omitempty"`
	SortBy      string   `json:"sort_by,omitempty"`
	SortDir     string   `json:"sort_direction,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Pagination  NextPage `json:"pagination"`
}

type LeaderboardEntry struct {
	SysID       string `json:"sys_id"`
	SysName     string `json:"sys_name"`
	CustomRunID string `json:"custom_run_id"`
}

type SearchLeaderboardEntriesResponse struct {
	Entries    []LeaderboardEntry `json:"entries"`
	Pagination NextPage           `json:"pagination"`
}

// QueryAttributeDefinitionsRequest/Response model
// POST /query-attribute-definitions-within-project.
type AttributeNameFilter struct {
	MustMatchRegexes    []string `json:"mustMatchRegexes,omitempty"`
	MustNotMatchRegexes []string `json:"mustNotMatchRegexes,omitempty"`
}

type AttributeTypeFilterEntry struct {
	AttributeType string `json:"attributeType"`
}

type QueryAttributeDefinitionsRequest struct {
	ProjectIdentifiers  []string                   `json:"projectIdentifiers"`
	ExperimentIdsFilter []string                   `json:"experimentIdsFilter,omitempty"`
	AttributeNameFilter AttributeNameFilter        `json:"attributeNameFilter"`
	AttributeFilter     []AttributeTypeFilterEntry `json:"attributeFilter,omitempty"`
	NextPage            NextPage                   `json:"nextPage"`
}

type AttributeDefinitionEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type QueryAttributeDefinitionsResponse struct {
	Entries  []AttributeDefinitionEntry `json:"entries"`
	NextPage NextPage                   `json:"nextPage"`
}

// QueryAttributesRequest/Response model POST /query-attributes-within-project.
type QueryAttributesRequest struct {
	ExperimentIdsFilter  []string `json:"experimentIdsFilter"`
	AttributeNamesFilter []string `json:"attributeNamesFilter"`
	NextPage             NextPage `json:"nextPage"`
}

type AttributeValueEntry struct {
	ExperimentID string `json:"experimentId"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Value        any    `json:"value"`
}

type QueryAttributesResponse struct {
	Entries  []AttributeValueEntry `json:"entries"`
	NextPage NextPage              `json:"nextPage"`
}

// FloatSeriesValuesRequest/Response model POST /float-series-values.
type SeriesHolder struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
}

type SeriesRef struct {
	Holder         SeriesHolder `json:"holder"`
	Attribute      string       `json:"attribute"`
	Lineage        string       `json:"lineage,omitempty"`
	IncludePreview bool         `json:"includePreview,omitempty"`
}

type FloatSeriesRequestEntry struct {
	RequestID string    `json:"requestId"`
	Series    SeriesRef `json:"series"`
	AfterStep *float64  `json:"afterStep,omitempty"`
}

type StepRange struct {
	From *float64 `json:"from,omitempty"`
	To   *float64 `json:"to,omitempty"`
}

type FloatSeriesValuesRequest struct {
	Requests             []FloatSeriesRequestEntry `json:"requests"`
	StepRange            StepRange                 `json:"stepRange"`
	Order                string                    `json:"order"`
	PerSeriesPointsLimit int                       `json:"perSeriesPointsLimit"`
}

type FloatPointEntry struct {
	Step            float64 `json:"step"`
	Value           float64 `json:"value"`
	Timestamp       int64   `json:"timestamp"`
	Preview         bool    `json:"preview"`
	CompletionRatio float64 `json:"completionRatio"`
}

type FloatSeriesResultEntry struct {
	RequestID string            `json:"requestId"`
	Points    []FloatPointEntry `json:"points"`
	Complete  bool              `json:"complete"`
}

type FloatSeriesValuesResponse struct {
	Results []FloatSeriesResultEntry `json:"results"`
}

// SeriesValuesRequest/Response model the sibling of /float-series-values for
// non-numeric series (string/histogram/file points, spec.md §4.4.5). The
// spec's external-interfaces list only documents the float variant
// explicitly; this shares its shape since both are paginated per-series by
// afterStep and differ only in the value's wire type.
type SeriesValuesRequest struct {
	Requests             []FloatSeriesRequestEntry `json:"requests"`
	StepRange            StepRange                 `json:"stepRange"`
	Order                string                    `json:"order"`
	PerSeriesPointsLimit int                       `json:"perSeriesPointsLimit"`
}

type SeriesPointEntry struct {
	Step      float64 `json:"step"`
	Value     any     `json:"value"`
	Timestamp int64   `json:"timestamp"`
}

type SeriesResultEntry struct {
	RequestID string             `json:"requestId"`
	Points    []SeriesPointEntry `json:"points"`
}

type SeriesValuesResponse struct {
	Results []SeriesResultEntry `json:"results"`
}

// Transport is every backend endpoint the fetch pipeline depends on
// (spec.md §6). Implementations live behind the retry layer; callers
// never see a raw *http.Response.
type Transport interface {
	ClientConfig(ctx context.Context) (*ClientConfig, error)
	SearchLeaderboardEntries(ctx context.Context, req SearchLeaderboardEntriesRequest) (*SearchLeaderboardEntriesResponse, error)
	QueryAttributeDefinitions(ctx context.Context, req QueryAttributeDefinitionsRequest) (*QueryAttributeDefinitionsResponse, error)
	QueryAttributes(ctx context.Context, req QueryAttributesRequest) (*QueryAttributesResponse, error)
	FloatSeriesValues(ctx context.Context, req FloatSeriesValuesRequest) (*FloatSeriesValuesResponse, error)
	SeriesValues(ctx context.Context, req SeriesValuesRequest) (*SeriesValuesResponse, error)
}

// HTTPTransport is the production Transport: plain net/http plus sonic,
// every call wrapped by the retry/backoff/budget layer in retry.go.
type HTTPTransport struct {
	BaseURL    string
	APIToken   string
	HTTPClient *http.Client
	Budget     Budget
}

func NewHTTPTransport(baseURL, apiToken string, httpClient *http.Client, budget Budget) *HTTPTransport {
	return &HTTPTransport{BaseURL: baseURL, APIToken: apiToken, HTTPClient: httpClient, Budget: budget}
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, payload any, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		b, err := sonic.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	target, err := url.JoinPath(t.BaseURL, path)
	if err != nil {
		return fmt.Errorf("building request URL: %w", err)
	}

	resp, err := Do(ctx, t.Budget, func(ctx context.Context) (*Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if t.APIToken != "" {
			req.Header.Set("Authorization", "Bearer "+t.APIToken)
		}

		httpResp, err := t.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}
		return &Response{StatusCode: httpResp.StatusCode, Body: respBody, Header: httpResp.Header}, nil
	})
	if err != nil {
		return err
	}

	if out != nil && len(resp.Body) > 0 {
		if err := sonic.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

func (t *HTTPTransport) ClientConfig(ctx context.Context) (*ClientConfig, error) {
	var out ClientConfig
	if err := t.do(ctx, http.MethodGet, "client-config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) SearchLeaderboardEntries(ctx context.Context, req SearchLeaderboardEntriesRequest) (*SearchLeaderboardEntriesResponse, error) {
	var out SearchLeaderboardEntriesResponse
	if err := t.do(ctx, http.MethodPost, "search-leaderboard-entries", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) QueryAttributeDefinitions(ctx context.Context, req QueryAttributeDefinitionsRequest) (*QueryAttributeDefinitionsResponse, error) {
	var out QueryAttributeDefinitionsResponse
	if err := t.do(ctx, http.MethodPost, "query-attribute-definitions-within-project", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) QueryAttributes(ctx context.Context, req QueryAttributesRequest) (*QueryAttributesResponse, error) {
	var out QueryAttributesResponse
	if err := t.do(ctx, http.MethodPost, "query-attributes-within-project", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) FloatSeriesValues(ctx context.Context, req FloatSeriesValuesRequest) (*FloatSeriesValuesResponse, error) {
	var out FloatSeriesValuesResponse
	if err := t.do(ctx, http.MethodPost, "float-series-values", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) SeriesValues(ctx context.Context, req SeriesValuesRequest) (*SeriesValuesResponse, error) {
	var out SeriesValuesResponse
	if err := t.do(ctx, http.MethodPost, "series-values", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
