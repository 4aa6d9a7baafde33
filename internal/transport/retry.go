package transport

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Response is the minimal shape the retry layer needs from a backend call:
// enough to classify success/retry/failure and to build the terminal error
// if retries are exhausted.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Doer performs one attempt of a backend call. A non-nil error is treated
// as a transient failure (network error, timeout) unless it is already one
// of this package's terminal error types, in which case it is returned to
// the caller immediately without retrying.
type Doer func(ctx context.Context) (*Response, error)

// Budget configures the retry loop's backoff curve and timeout ceilings.
// Defaults match spec.md §4.5: base 0.5s, factor 2, cap 30s, full jitter,
// soft budget 1800s, hard budget 3600s.
type Budget struct {
	BackoffBase time.Duration
	Factor      float64
	Cap         time.Duration
	SoftTimeout time.Duration
	HardTimeout time.Duration
	Logger      *zap.Logger
}

func DefaultBudget() Budget {
	return Budget{
		BackoffBase: 500 * time.Millisecond,
		Factor:      2.0,
		Cap:         30 * time.Second,
		SoftTimeout: 1800 * time.Second,
		HardTimeout: 3600 * time.Second,
	}
}

// newCurve builds a cenkalti/backoff ExponentialBackOff whose deterministic
// interval sequence matches the spec's base/factor/cap curve; jitter is
// applied separately (full jitter, not cenkalti's randomization-factor
// jitter) to match spec.md §4.5 exactly.
func (b Budget) newCurve() *backoff.ExponentialBackOff {
	curve := backoff.NewExponentialBackOff()
	curve.InitialInterval = b.BackoffBase
	curve.Multiplier = b.Factor
	curve.MaxInterval = b.Cap
	curve.RandomizationFactor = 0
	curve.MaxElapsedTime = 0 // the budget loop below owns the elapsed-time ceiling
	curve.Reset()
	return curve
}

// Do runs doer with retry/backoff/timeout-budget handling per spec.md §4.5:
// classify every attempt's outcome, retry transient ones with exponential
// backoff (or the server's Retry-After, when present), and give up with a
// *RetryError once the hard or extended-soft budget is exhausted.
//
// A *AuthError or any other terminal error returned by classify is
// propagated immediately without retrying, matching "give up immediately
// on a NeptuneError subtype."
func Do(ctx context.Context, budget Budget, doer Doer) (*Response, error) {
	curve := budget.newCurve()
	start := time.Now()

	var lastResp *Response
	attempts := 0
	rateLimitExtension := time.Duration(0)
	timeoutLogged := false

	for {
		resp, err := doer(ctx)
		attempts++

		if err != nil {
			if isTerminal(err) {
				return nil, err
			}
			if isTimeout(err) && !timeoutLogged && budget.Logger != nil {
				timeoutLogged = true
				budget.Logger.Warn("Neptune API request timed out, retrying")
			}
		} else {
			lastResp = resp
			if classification := classify(resp.StatusCode, resp.Body); classification.terminal != nil {
				return nil, classification.terminal
			} else if classification.success {
				return resp, nil
			}
			// else: retryable (429/5xx) — fall through to backoff.
		}

		elapsed := time.Since(start)

		var sleep time.Duration
		if resp != nil {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil {
					sleep = time.Duration(secs) * time.Second
					rateLimitExtension += sleep
					curve.Reset() // matches original's "reset backoff tries counter"
				}
			}
		}
		if sleep == 0 {
			sleep = fullJitter(curve.NextBackOff())
		}

		remaining := time.Duration(1<<62 - 1) // effectively +Inf
		if budget.HardTimeout > 0 {
			if r := budget.HardTimeout - elapsed; r < remaining {
				remaining = r
			}
		}
		if budget.SoftTimeout > 0 {
			if r := budget.SoftTimeout + rateLimitExtension - elapsed; r < remaining {
				remaining = r
			}
		}
		if remaining <= 0 {
			break
		}
		if sleep > remaining {
			sleep = remaining
		}

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	retryErr := &RetryError{
		Attempts:       attempts,
		ElapsedSeconds: time.Since(start).Seconds(),
	}
	if lastResp != nil {
		retryErr.LastStatusCode = lastResp.StatusCode
		retryErr.LastBody = lastResp.Body
	}
	return nil, retryErr
}

func fullJitter(d time.Duration) time.Duration {
	return time.Duration(rand.Float64() * float64(d))
}

func isTerminal(err error) bool {
	switch err.(type) {
	case *AuthError, *UnexpectedResponseError, *RetryError:
		return true
	default:
		return false
	}
}

type timeoutErr interface{ Timeout() bool }

func isTimeout(err error) bool {
	te, ok := err.(timeoutErr)
	return ok && te.Timeout()
}

type classification struct {
	success  bool
	terminal error
}

// classify implements spec.md §4.5 / §7's status-code rules: 2xx is
// success; 429 and 5xx are retryable (returned as a zero classification so
// the caller falls through to backoff); 401 is InvalidCredentials; other
// 3xx/4xx are UnexpectedResponse unless the body names a known error type
// (currently only ACCESS_DENIED -> ProjectInaccessible).
func classify(status int, body []byte) classification {
	if status >= 200 && status < 300 {
		return classification{success: true}
	}
	if status == 429 || (status >= 500 && status < 600) {
		return classification{}
	}
	if status == 401 {
		return classification{terminal: &AuthError{Kind: InvalidCredentials}}
	}

	var parsed struct {
		ErrorType string `json:"errorType"`
	}
	if len(body) > 0 && sonic.Unmarshal(body, &parsed) == nil {
		if parsed.ErrorType == "ACCESS_DENIED" {
			return classification{terminal: &AuthError{Kind: ProjectInaccessible}}
		}
	}

	return classification{terminal: &UnexpectedResponseError{StatusCode: status, Body: body}}
}
