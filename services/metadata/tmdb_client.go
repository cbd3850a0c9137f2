package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbAttempts     = 3
)

var (
	ErrNotConfigured = errors.New("tmdb api key not configured")
	ErrNotFound      = errors.New("tmdb resource not found")
)

type tmdbClient struct {
	apiKey   string
	language string
	baseURL  string
	httpc    *http.Client
	limiter  *rate.Limiter

	retryDelay time.Duration
}

func newTMDBClient(apiKey, language, baseURL string, requestsPerSecond float64, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = tmdbBaseURL
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &tmdbClient{
		apiKey:     strings.TrimSpace(apiKey),
		language:   language,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpc:      httpc,
		limiter:    rate.NewLimiter(limit, 1),
		retryDelay: 300 * time.Millisecond,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// get performs a throttled GET against endpoint and decodes the JSON body
// into v. 429 and 5xx responses are retried with exponential backoff; other
// failures are returned immediately.
func (c *tmdbClient) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	if !c.isConfigured() {
		return ErrNotConfigured
	}

	target, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return err
	}

	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			q := req.URL.Query()
			for key, values := range params {
				for _, value := range values {
					q.Add(key, value)
				}
			}
			q.Set("api_key", c.apiKey)
			if q.Get("language") == "" {
				q.Set("language", normalizeLanguage(c.language))
			}
			req.URL.RawQuery = q.Encode()

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("tmdb request failed: %s", resp.Status)
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(fmt.Errorf("%w: %s", ErrNotFound, endpoint))
			case resp.StatusCode >= 400:
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode tmdb response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(tmdbAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[tmdb] %s failed (attempt %d/%d): %v", endpoint, n+1, tmdbAttempts, err)
		}),
	)
}

func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if len(lang) == 2 {
		return strings.ToLower(lang) + "-US"
	}
	if len(lang) >= 5 {
		return strings.ToLower(lang[:2]) + "-" + strings.ToUpper(lang[3:])
	}
	return "en-US"
}
