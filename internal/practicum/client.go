// Package practicum fetches homework statuses from the review service API.
package practicum

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"hwbot/internal/homework"
	logx "hwbot/pkg/logx"
)

// DefaultEndpoint is the homework status endpoint of the review service.
const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

type Config struct {
	Endpoint string
	Token    string
	// Timeout bounds one request including reading the body.
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client performs a single request per FetchStatuses call and never retries.
type Client struct {
	endpoint string
	token    string
	timeout  time.Duration
	http     *http.Client
	log      logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, token: cfg.Token, timeout: timeout, http: hc, log: log}
}

// FetchStatuses returns every status change after cursor (a unix timestamp).
//
// Errors: *NetworkError when the request could not be completed,
// *TransportError for a non-200 reply, *homework.MalformedResponseError when
// the body is not a JSON object.
func (c *Client) FetchStatuses(ctx context.Context, cursor int64) (*homework.StatusRecord, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &NetworkError{Endpoint: c.endpoint, Err: errors.Wrap(err, "parse endpoint")}
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(cursor, 10))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, &NetworkError{Endpoint: c.endpoint, Err: errors.Wrap(err, "create request")}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("status request starting", logx.String("endpoint", c.endpoint), logx.Int64("from_date", cursor))
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Endpoint: c.endpoint, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("failed to close response body", logx.Err(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Endpoint: c.endpoint, Err: errors.Wrap(err, "read body")}
	}
	c.log.Debug("status request completed",
		logx.Int("status_code", resp.StatusCode),
		logx.Duration("took", time.Since(start)),
		logx.Int("bytes", len(body)))

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Body: homework.Excerpt(body)}
	}
	return homework.ParseStatusRecord(body)
}
