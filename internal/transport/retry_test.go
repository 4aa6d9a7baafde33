package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBudget() Budget {
	b := DefaultBudget()
	b.BackoffBase = time.Millisecond
	b.Cap = 5 * time.Millisecond
	b.SoftTimeout = time.Second
	b.HardTimeout = time.Second
	return b
}

func TestDoSucceedsImmediatelyOn2xx(t *testing.T) {
	calls := 0
	resp, err := Do(context.Background(), fastBudget(), func(ctx context.Context) (*Response, error) {
		calls++
		return &Response{StatusCode: 200, Header: http.Header{}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesOn5xxThenSucceeds(t *testing.T) {
	calls := 0
	resp, err := Do(context.Background(), fastBudget(), func(ctx context.Context) (*Response, error) {
		calls++
		if calls < 3 {
			return &Response{StatusCode: 503, Header: http.Header{}}, nil
		}
		return &Response{StatusCode: 200, Header: http.Header{}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUpImmediatelyOn401(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastBudget(), func(ctx context.Context) (*Response, error) {
		calls++
		return &Response{StatusCode: 401, Header: http.Header{}}, nil
	})
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, InvalidCredentials, authErr.Kind)
	assert.Equal(t, 1, calls)
}

func TestDoGivesUpImmediatelyOnAccessDenied(t *testing.T) {
	_, err := Do(context.Background(), fastBudget(), func(ctx context.Context) (*Response, error) {
		return &Response{StatusCode: 403, Body: []byte(`{"errorType":"ACCESS_DENIED"}`), Header: http.Header{}}, nil
	})
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ProjectInaccessible, authErr.Kind)
}

func TestDoRaisesUnexpectedResponseForUnknownClientError(t *testing.T) {
	_, err := Do(context.Background(), fastBudget(), func(ctx context.Context) (*Response, error) {
		return &Response{StatusCode: 418, Body: []byte(`not json`), Header: http.Header{}}, nil
	})
	require.Error(t, err)
	var unexpected *UnexpectedResponseError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, 418, unexpected.StatusCode)
}

func TestDoExhaustsHardBudgetAndRaisesRetryError(t *testing.T) {
	b := fastBudget()
	b.HardTimeout = 20 * time.Millisecond
	b.SoftTimeout = 20 * time.Millisecond

	calls := 0
	_, err := Do(context.Background(), b, func(ctx context.Context) (*Response, error) {
		calls++
		return &Response{StatusCode: 503, Header: http.Header{}}, nil
	})
	require.Error(t, err)
	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 503, retryErr.LastStatusCode)
	assert.GreaterOrEqual(t, retryErr.Attempts, 1)
}

func TestDoHonorsRetryAfterHeader(t *testing.T) {
	b := fastBudget()
	b.HardTimeout = 5 * time.Second
	b.SoftTimeout = 5 * time.Second

	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), b, func(ctx context.Context) (*Response, error) {
		calls++
		if calls == 1 {
			h := http.Header{}
			h.Set("Retry-After", "0")
			return &Response{StatusCode: 429, Header: h}, nil
		}
		return &Response{StatusCode: 200, Header: http.Header{}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Less(t, time.Since(start), time.Second)
}
