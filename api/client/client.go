package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/vocdoni/demos-tally/api"
	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/types"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = http.MethodGet
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = http.MethodPost
	// HTTPPATCH is the method string used for calling Request()
	HTTPPATCH = http.MethodPatch

	errCodeNot200 = "API error"

	// DefaultRetries this enables Request() to handle the situation where the server connection fails.
	// Get and Patch never retry.
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client
	DefaultTimeout = 10 * time.Second
	// retryDelay is the wait between two attempts of the same request
	retryDelay = 500 * time.Millisecond
	// maxLoggedBody is the number of body bytes included in debug logs
	maxLoggedBody = 512
)

// HTTPclient is the bulletin board data service HTTP client.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
}

// New connects to the API host and returns the handle. The host is checked
// with a ping request.
func New(host string) (*HTTPclient, error) {
	c, err := NewWithoutPing(host)
	if err != nil {
		return nil, err
	}
	if err := c.ping(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewWithoutPing returns a client without checking the host. Absolute URLs
// passed to Get and Patch do not depend on the host.
func NewWithoutPing(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	tr := &http.Transport{
		IdleConnTimeout:    DefaultTimeout,
		DisableCompression: false,
		WriteBufferSize:    1 * 1024 * 1024, // 1 MiB
		ReadBufferSize:     1 * 1024 * 1024, // 1 MiB
	}
	c := &HTTPclient{
		c:       &http.Client{Transport: tr, Timeout: DefaultTimeout},
		host:    hostURL,
		retries: DefaultRetries,
	}
	log.Debugw("http client created", "host", hostURL.String())
	return c, nil
}

func (c *HTTPclient) ping() error {
	data, status, err := c.Request(HTTPGET, nil, nil, api.PingEndpoint)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return nil
}

// SetHostAddr configures the host address of the API server.
func (c *HTTPclient) SetHostAddr(host *url.URL) error {
	c.host = host
	return c.ping()
}

// SetRetries configures the number of attempts of Request. Get and Patch
// always make a single attempt.
func (c *HTTPclient) SetRetries(n int) {
	c.retries = max(n, 1)
}

// SetTimeout configures the timeout for the HTTP client.
func (c *HTTPclient) SetTimeout(d time.Duration) {
	c.c.Timeout = d
	if tr, ok := c.c.Transport.(*http.Transport); ok {
		tr.ResponseHeaderTimeout = d
	}
}

// Request performs a `method` type raw request to the endpoint specified in urlPath parameter.
// If a JSON body is given it is attached to the request. Returns the response,
// the status code and an error.
//
// Supports query parameters via `params` slice. If the slice is not empty, it should contain pairs of strings;
// the first element of each pair is the key, and the second element is the value.
func (c *HTTPclient) Request(method string, jsonBody any, params []string, urlPath ...string) ([]byte, int, error) {
	// Parse the base host URL
	u, err := url.Parse(c.host.String())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse host URL: %w", err)
	}
	// Join path segments
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	setParams(u, params)
	return c.do(context.Background(), method, u, jsonBody, c.retries)
}

// Get requests an absolute URL and decodes the JSON response into out. Any
// status other than 200 is returned as a transport error. A failed
// connection is not retried.
func (c *HTTPclient) Get(ctx context.Context, rawURL string, params []string, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %v", types.ErrTransport, err)
	}
	setParams(u, params)
	data, status, err := c.do(ctx, HTTPGET, u, nil, 1)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: %s: GET %s: %d (%s)", types.ErrTransport, errCodeNot200, u.Path, status, bytes.TrimSpace(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response of %s: %v", types.ErrFormat, u.Path, err)
	}
	return nil
}

// Patch sends body as JSON to an absolute URL. Any status other than 200 is
// returned as a transport error. A failed connection is not retried: the
// server may have applied the body already.
func (c *HTTPclient) Patch(ctx context.Context, rawURL string, body any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %v", types.ErrTransport, err)
	}
	data, status, err := c.do(ctx, HTTPPATCH, u, body, 1)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: %s: PATCH %s: %d (%s)", types.ErrTransport, errCodeNot200, u.Path, status, bytes.TrimSpace(data))
	}
	return nil
}

// setParams adds the params key/value pairs to the query of u, keeping the
// existing ones. If length is odd, the last parameter without a pair is
// ignored.
func setParams(u *url.URL, params []string) {
	if len(params) == 0 {
		return
	}
	values := u.Query()
	for i := 0; i < len(params)-1; i += 2 {
		values.Set(params[i], params[i+1])
	}
	u.RawQuery = values.Encode()
}

// do runs the request up to attempts times while the connection fails.
// Responses with an error status are not retried.
func (c *HTTPclient) do(ctx context.Context, method string, u *url.URL, jsonBody any, attempts int) ([]byte, int, error) {
	var (
		body []byte
		err  error
	)
	// Marshal the JSON body if provided.
	if jsonBody != nil {
		body, err = json.Marshal(jsonBody)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	}

	// Prepare headers
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	if jsonBody != nil {
		headers.Set("Content-Type", "application/json")
	}

	// Log the request details, truncating body if large
	log.Debugw("http client request",
		"type", method,
		"url", u.String(),
		"body", func() string {
			if len(body) > maxLoggedBody {
				return string(body[:maxLoggedBody]) + "..."
			}
			return string(body)
		}(),
	)

	var resp *http.Response
	for i := 1; i <= attempts; i++ {
		// Create a fresh request each attempt
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, rerr := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
		if rerr != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", rerr)
		}
		req.Header = headers.Clone()

		resp, err = c.c.Do(req)
		if err == nil {
			break
		}
		log.Warnw("http request failed", "error", err.Error(), "attempt", i, "attempts", attempts)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("http request failed after %d attempts: %w", attempts, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}
