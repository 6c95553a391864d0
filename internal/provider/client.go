package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"

	"github.com/matheuscscp/lark-oidc-proxy/internal/config"
	"github.com/matheuscscp/lark-oidc-proxy/internal/constants"
)

const (
	endpointAppAccessToken  = "app_access_token"
	endpointUserAccessToken = "user_access_token"
	endpointUserInfo        = "user_info"

	outcomeOK             = "ok"
	outcomeTransportError = "transport_error"
)

// Client talks to the Lark open platform. A returned error always means the
// provider could not be reached or did not answer with JSON; provider-level
// failures come back as a *Response for the caller to inspect.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	requests   *prometheus.CounterVec
}

type Option func(*Client)

// WithHTTPClient replaces the client used for outbound calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(conf *config.ProviderConfig, reg prometheus.Registerer, opts ...Option) (*Client, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lark_oidc_proxy_upstream_requests_total",
		Help: "Number of requests sent to the identity provider",
	}, []string{"endpoint", "outcome"})
	if err := reg.Register(requests); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("failed to register upstream metrics: %w", err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("failed to register upstream metrics: %w", err)
		}
		requests = existing
	}

	c := &Client{
		baseURL:    conf.BaseURL,
		timeout:    conf.Timeout,
		httpClient: http.DefaultClient,
		requests:   requests,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) GetApplicationAccessToken(ctx context.Context, clientID, clientSecret string) (*Response, error) {
	payload := map[string]string{
		"app_id":     clientID,
		"app_secret": clientSecret,
	}
	return c.postJSON(ctx, c.httpClient, endpointAppAccessToken, constants.UpstreamPathAppAccessToken, payload)
}

func (c *Client) GetUserAccessToken(ctx context.Context, appAccessToken, grantType, code string) (*Response, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: appAccessToken,
		TokenType:   "Bearer",
	}))
	payload := map[string]string{
		"grant_type": grantType,
		"code":       code,
	}
	return c.postJSON(ctx, hc, endpointUserAccessToken, constants.UpstreamPathUserAccessToken, payload)
}

// GetUserInfo forwards the caller's end-to-end headers, including its bearer
// token, to the user info endpoint.
func (c *Client) GetUserInfo(ctx context.Context, header http.Header) (*Response, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+constants.UpstreamPathUserInfo, nil)
	if err != nil {
		return nil, c.fail(endpointUserInfo, fmt.Errorf("failed to create user info request: %w", err))
	}
	req.Header = CloneEndToEnd(header, "Accept-Encoding", "Content-Length", "Host")

	return c.do(c.httpClient, endpointUserInfo, req)
}

func (c *Client) postJSON(ctx context.Context, hc *http.Client, endpoint, path string, payload any) (*Response, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, c.fail(endpoint, fmt.Errorf("failed to marshal %s request: %w", endpoint, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, c.fail(endpoint, fmt.Errorf("failed to create %s request: %w", endpoint, err))
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(hc, endpoint, req)
}

func (c *Client) do(hc *http.Client, endpoint string, req *http.Request) (*Response, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, c.fail(endpoint, fmt.Errorf("%s request failed: %w", endpoint, err))
	}
	defer resp.Body.Close()

	body, err := decodeJSON(resp.Body)
	if err != nil {
		return nil, c.fail(endpoint, fmt.Errorf("failed to decode %s response (%s): %w", endpoint, resp.Status, err))
	}

	c.requests.WithLabelValues(endpoint, outcomeOK).Inc()
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) fail(endpoint string, err error) error {
	c.requests.WithLabelValues(endpoint, outcomeTransportError).Inc()
	return err
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func decodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}
