package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/logger"
)

// VerifyPath is the verify-product-match route relative to the base URL
const VerifyPath = "/api/v1/verify-product-match"

// Config holds configuration for the verifier client
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	RequestsPerSecond  float64
	Burst              int
	RetryCount         int
	EnableDebugLogging bool
}

// Client calls a remote verify-product-match endpoint. It satisfies
// domain.Verifier.
type Client struct {
	http  *resty.Client
	debug bool
}

// NewClient creates a new verifier client
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 10
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	httpClient := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "dishbook-backend/1.0").
		SetRetryCount(max(config.RetryCount, 0)).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	// every attempt, retries included, waits for the limiter
	httpClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if err := limiter.Wait(r.Context()); err != nil {
			return errors.Mark(errors.Wrap(err, "rate limiter"), domain.ErrRateLimited)
		}
		return nil
	})

	return &Client{
		http:  httpClient,
		debug: config.EnableDebugLogging,
	}
}

// Verify posts the request to the remote verifier. Transport failures and
// non-success statuses are ErrVerifierUnavailable; unusable bodies are
// ErrMalformedVerification. A context that ends before the limiter admits
// the call is also ErrRateLimited.
func (c *Client) Verify(ctx context.Context, req domain.VerificationRequest) (*domain.Verification, error) {
	if c.debug {
		logger.Logger.Debugw("[VERIFIER] request",
			"name", req.RecognizedName, "candidates", len(req.Candidates), "score", req.MatchScore)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(ToWireRequest(req)).
		Post(VerifyPath)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "verifier request"), domain.ErrVerifierUnavailable)
	}

	if !resp.IsSuccess() {
		var body WireResponse
		_ = json.Unmarshal(resp.Body(), &body)
		if c.debug {
			logger.Logger.Debugw("[VERIFIER] non-success status", "status", resp.StatusCode(), "error", body.Error)
		}
		return nil, errors.Wrapf(domain.ErrVerifierUnavailable, "status %d: %s", resp.StatusCode(), body.Error)
	}

	var body WireResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode verifier response"), domain.ErrMalformedVerification)
	}

	verification, err := MapToVerification(&body)
	if err != nil {
		return nil, err
	}

	if c.debug {
		logger.Logger.Debugw("[VERIFIER] response",
			"isMatch", verification.IsMatch, "confidence", verification.Confidence, "reason", verification.Reason)
	}
	return verification, nil
}
