package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Client is a cookie-aware JSON client for the server, so that consecutive requests share a browser session.
type Client struct {
	client *http.Client
	url    string
}

// NewClient creates a client for the server at url.
func NewClient(url string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		client: &http.Client{Jar: jar}, //nolint:exhaustruct // defaults are fine for tests.
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	for {
		resp, err := c.Get(ctx, urlPath)
		if err == nil {
			if closeErr := resp.Body.Close(); closeErr != nil {
				return fmt.Errorf("close response body: %w", closeErr)
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, urlPath, nil)
}

// GetJSON fetches urlPath and decodes the JSON response into out. The status code is returned for any response
// that could be read, also when out is left untouched.
func (c *Client) GetJSON(ctx context.Context, urlPath string, out any) (int, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return 0, err
	}
	return decodeResponse(resp, out)
}

// PostJSON posts in as JSON to urlPath and decodes the JSON response into out. A nil in sends an empty body.
func (c *Client) PostJSON(ctx context.Context, urlPath string, in any, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	resp, err := c.do(ctx, http.MethodPost, urlPath, body)
	if err != nil {
		return 0, err
	}
	return decodeResponse(resp, out)
}

func (c *Client) do(ctx context.Context, method, urlPath string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) (_ int, err error) {
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close response body: %w", closeErr))
		}
	}()
	if out == nil {
		return resp.StatusCode, nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response with status %d: %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
