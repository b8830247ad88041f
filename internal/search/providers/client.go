// Package providers contains one adapter per external travel data source.
// Every adapter exposes the same search contract and reports a tagged
// outcome instead of raising errors, so the engine can branch on status.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"

	"github.com/sethvargo/go-retry"
)

const (
	// maxRateLimitRetries bounds the in-call retry count for 429 responses.
	maxRateLimitRetries = 2
	// rateLimitBackoffBase is the first retry delay; it doubles per attempt.
	rateLimitBackoffBase = time.Second
)

// httpCaller is the shared outbound call path: cooldown check, global pacing,
// bounded exponential backoff on 429, and status classification.
type httpCaller struct {
	client  *http.Client
	pacer   *pacing.Controller
	log     *logger.Logger
	backoff time.Duration
}

func newHTTPCaller(timeout time.Duration, pacer *pacing.Controller, log *logger.Logger) *httpCaller {
	return &httpCaller{
		client:  &http.Client{Timeout: timeout},
		pacer:   pacer,
		log:     log,
		backoff: rateLimitBackoffBase,
	}
}

// doJSON issues one provider call under the given operation key and decodes a
// 2xx body into dest. The cooldown for opKey is consulted first; an active
// window skips the network entirely. A 429 arms the cooldown for future calls
// and retries the current call with doubling delays until the bound is hit.
func (h *httpCaller) doJSON(ctx context.Context, build func(ctx context.Context) (*http.Request, error), provider, operation, opKey string, dest any) domain.Status {
	if h.pacer.InCooldown(opKey) {
		return domain.StatusRateLimited
	}

	status := domain.StatusUnavailable
	backoff := retry.WithMaxRetries(maxRateLimitRetries, retry.NewExponential(h.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := h.pacer.Wait(ctx); err != nil {
			status = domain.StatusUnavailable
			return err
		}

		req, err := build(ctx)
		if err != nil {
			status = domain.StatusUnavailable
			return err
		}

		start := time.Now()
		resp, err := h.client.Do(req)
		if err != nil {
			// Timeouts and transport failures are equivalent for callers.
			status = domain.StatusUnavailable
			h.log.ProviderError(provider, operation, err)
			return err
		}
		defer resp.Body.Close()

		h.log.ProviderCall(provider, operation, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
				status = domain.StatusUnavailable
				return fmt.Errorf("decode %s response: %w", provider, err)
			}
			status = domain.StatusOK
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			status = domain.StatusRateLimited
			h.pacer.TriggerCooldown(opKey)
			return retry.RetryableError(errors.New("rate limited"))
		case resp.StatusCode == http.StatusUnauthorized:
			status = domain.StatusAuthFailed
			return fmt.Errorf("%s rejected credentials", provider)
		case resp.StatusCode == http.StatusForbidden:
			// Plan/tier restriction on an otherwise valid key.
			status = domain.StatusRestricted
			return fmt.Errorf("%s plan restricted", provider)
		case resp.StatusCode == http.StatusNotFound:
			status = domain.StatusNoMatch
			return nil
		default:
			status = domain.StatusUnavailable
			return fmt.Errorf("%s upstream status %d", provider, resp.StatusCode)
		}
	})

	if err != nil && status == domain.StatusOK {
		status = domain.StatusUnavailable
	}
	return status
}
