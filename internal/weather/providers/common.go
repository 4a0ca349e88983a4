package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// statusError is a provider response the breaker counts as a failure.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.message)
}

// transient reports whether err is worth another attempt: transport failures,
// rate limiting and server errors. Client errors (4xx) are final.
func transient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	return true
}

// doRequestWithResilience executes the HTTP request with retries, exponential
// backoff and a circuit breaker. Any failure is returned as *weather.RequestError.
// On success the caller owns the response body.
func doRequestWithResilience(
	ctx context.Context,
	op string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, &weather.RequestError{Op: op, Err: errNoHTTPClient}
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, &weather.RequestError{Op: op, Err: errInvalidConfig}
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, &weather.RequestError{Op: op, Err: ctx.Err()}
		}

		req, err := buildRequest()
		if err != nil {
			return nil, &weather.RequestError{Op: op, Err: err}
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				defer resp.Body.Close()
				return nil, &statusError{status: resp.StatusCode, message: providerMessage(resp.Body)}
			}

			// 2xx and 4xx both mean the provider is healthy.
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, &weather.RequestError{Op: op, Err: fmt.Errorf("unexpected result type from circuit breaker")}
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				defer resp.Body.Close()
				return nil, &weather.RequestError{
					Op:     op,
					Status: resp.StatusCode,
					Err:    errors.New(providerMessage(resp.Body)),
				}
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.RequestError{Op: op, Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}

		if !transient(err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, toRequestError(op, err)
		}

		// Backoff with exponential delay.
		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &weather.RequestError{Op: op, Err: ctx.Err()}
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}

func toRequestError(op string, err error) *weather.RequestError {
	var se *statusError
	if errors.As(err, &se) {
		return &weather.RequestError{Op: op, Status: se.status, Err: errors.New(se.message)}
	}
	return &weather.RequestError{Op: op, Err: err}
}

// providerMessage extracts the provider's error text, e.g.
// {"cod":"404","message":"city not found"}.
func providerMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4<<10))
	if err != nil || len(raw) == 0 {
		return "empty response"
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(raw)
}
