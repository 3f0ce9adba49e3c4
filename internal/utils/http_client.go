package utils

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a resty client preconfigured for the JSON sync API.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns a client bound to baseURL. Every request sends and
// accepts JSON; timeout applies per request and zero disables it.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPClient{Client: client}
}

// Request starts a request bound to ctx. A non-empty token is sent as a
// bearer Authorization header.
func (c *HTTPClient) Request(ctx context.Context, token string) *resty.Request {
	req := c.R().SetContext(ctx)
	if token != "" {
		req.SetAuthScheme("Bearer").SetAuthToken(token)
	}
	return req
}
