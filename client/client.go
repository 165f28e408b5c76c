package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"mlboard/utils"
)

// AsyncHttpClient throttles outgoing requests so concurrent sync runs stay
// under the platform's request budget. Callers block in SendRequest until a
// slot is free or their context is cancelled.
type AsyncHttpClient struct {
	mu                   sync.Mutex
	requestTimestamps    []time.Time
	baseURL              *url.URL
	maxRequestsPerSecond float64
	userAgent            string
	client               *http.Client
}

func NewAsyncHttpClient(baseURL *url.URL, userAgent string, maxRequestsPerSecond float64) *AsyncHttpClient {
	return &AsyncHttpClient{
		requestTimestamps:    make([]time.Time, 0),
		baseURL:              baseURL,
		maxRequestsPerSecond: maxRequestsPerSecond,
		userAgent:            userAgent,
		client:               &http.Client{},
	}
}

type RequestArgs struct {
	Endpoint      string
	Token         string
	Method        string
	PathParams    []string
	QueryParams   map[string]string
	Body          *strings.Reader
	BodyRaw       any
	Headers       map[string]string
	IgnoreBaseURL bool
}

func (c *AsyncHttpClient) SendRequest(
	ctx context.Context,
	requestArgs RequestArgs,
) (*http.Response, error) {
	err := error(nil)
	var headers map[string]string
	if requestArgs.Headers == nil {
		headers = map[string]string{}
	} else {
		headers = requestArgs.Headers
	}

	headers["User-Agent"] = c.userAgent

	if requestArgs.Token != "" {
		headers["Authorization"] = "Bearer " + requestArgs.Token
	}

	method := requestArgs.Method
	if method == "" {
		method = "GET"
	}
	if err := c.waitUntilRequestAllowed(ctx); err != nil {
		return nil, err
	}
	var requestUrl *url.URL
	pathParams := make([]any, len(requestArgs.PathParams))
	for i, v := range requestArgs.PathParams {
		pathParams[i] = v
	}
	if requestArgs.IgnoreBaseURL {
		requestUrl, err = url.Parse(fmt.Sprintf(requestArgs.Endpoint, pathParams...))
		if err != nil {
			return nil, err
		}
	} else {
		requestUrl = c.baseURL.ResolveReference(&url.URL{Path: c.baseURL.Path + "/" + fmt.Sprintf(requestArgs.Endpoint, pathParams...)})
	}
	if requestArgs.QueryParams != nil {
		query := requestUrl.Query()
		for k, v := range requestArgs.QueryParams {
			query.Add(k, v)
		}
		requestUrl.RawQuery = query.Encode()
	}

	req := &http.Request{}
	if requestArgs.Body != nil {
		req, err = http.NewRequestWithContext(ctx, method, requestUrl.String(), requestArgs.Body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, requestUrl.String(), nil)
	}

	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.client.Do(req)
}

func (c *AsyncHttpClient) waitUntilRequestAllowed(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.canMakeRequest() {
			c.requestTimestamps = append(c.requestTimestamps, time.Now())
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (c *AsyncHttpClient) canMakeRequest() bool {
	now := time.Now()
	windowStart := now.Add(-time.Second)
	// keep only the last minute of timestamps around
	c.requestTimestamps = utils.Filter(c.requestTimestamps, func(t time.Time) bool {
		return t.After(now.Add(-time.Minute))
	})
	hits := 0
	for _, t := range c.requestTimestamps {
		if t.After(windowStart) {
			hits++
		}
	}
	return float64(hits) < c.maxRequestsPerSecond
}
