package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/mbeoliero/xchange/pkg/errcode"
)

// Client is the SDK client for the XchangeHub API.
// The bearer token is owned by the client instance; nothing is kept in package state.
type Client struct {
	baseURL    string
	httpClient *client.Client

	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	mu    sync.RWMutex
	token string
}

// ClientOption is a function to configure the client
type ClientOption func(*Client)

// WithHertzClient sets a custom Hertz client
func WithHertzClient(httpClient *client.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken sets the authentication token
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeouts overrides the dial, read and write timeouts of the default Hertz client
func WithTimeouts(dial, read, write time.Duration) ClientOption {
	return func(c *Client) {
		if dial > 0 {
			c.dialTimeout = dial
		}
		if read > 0 {
			c.readTimeout = read
		}
		if write > 0 {
			c.writeTimeout = write
		}
	}
}

// NewClient creates a new SDK client. baseURL includes the API prefix, e.g. http://localhost:5000/api.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL:      baseURL,
		dialTimeout:  10 * time.Second,
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		httpClient, err := client.NewClient(
			client.WithDialTimeout(c.dialTimeout),
			client.WithClientReadTimeout(c.readTimeout),
			client.WithWriteTimeout(c.writeTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create http client: %w", err)
		}
		c.httpClient = httpClient
	}

	return c, nil
}

// MustNewClient creates a new SDK client and panics on error
func MustNewClient(baseURL string, opts ...ClientOption) *Client {
	c, err := NewClient(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// SetToken sets the authentication token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// GetToken returns the current token
func (c *Client) GetToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// requireSession blocks gated calls before any request is built
func (c *Client) requireSession() error {
	if c.GetToken() == "" {
		return errcode.ErrLoginRequired
	}
	return nil
}

func (c *Client) newRequest(method, reqURL string) (*protocol.Request, *protocol.Response) {
	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(method)
	req.SetRequestURI(reqURL)
	if token := c.GetToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, resp
}

// request makes a JSON request and decodes the response into result
func (c *Client) request(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	req, resp := c.newRequest(method, c.baseURL+path)
	req.Header.Set("Content-Type", "application/json")

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		req.SetBody(jsonBody)
	}

	return c.do(ctx, req, resp, result)
}

// do sends req and decodes a successful body into result
func (c *Client) do(ctx context.Context, req *protocol.Request, resp *protocol.Response, result interface{}) error {
	if err := c.httpClient.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	status := resp.StatusCode()
	respBody := bytes.TrimSpace(resp.Body())

	if status < 200 || status >= 300 {
		return decodeError(status, respBody)
	}

	// Some endpoints answer 200 with {success:false, error}
	if len(respBody) > 0 && respBody[0] == '{' {
		var eb errorBody
		if err := json.Unmarshal(respBody, &eb); err == nil && eb.Success != nil && !*eb.Success {
			return &Error{Status: status, Code: eb.Code, Msg: eb.msg()}
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func decodeError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		apiErr.Code = eb.Code
		apiErr.Msg = eb.msg()
	}
	return apiErr
}

// get makes a GET request with query parameters
func (c *Client) get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	if len(params) > 0 {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		path += "?" + query.Encode()
	}
	return c.request(ctx, consts.MethodGet, path, nil, result)
}

// post makes a POST request
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.request(ctx, consts.MethodPost, path, body, result)
}

// put makes a PUT request
func (c *Client) put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.request(ctx, consts.MethodPut, path, body, result)
}

// delete makes a DELETE request
func (c *Client) delete(ctx context.Context, path string, result interface{}) error {
	return c.request(ctx, consts.MethodDelete, path, nil, result)
}

// multipart makes a multipart POST with plain fields and file parts
func (c *Client) multipart(ctx context.Context, path string, fields map[string]string, files []*FileUpload, result interface{}) error {
	req, resp := c.newRequest(consts.MethodPost, c.baseURL+path)

	if len(fields) > 0 {
		req.SetMultipartFormData(fields)
	}
	for _, f := range files {
		req.SetFileReader(f.Field, f.FileName, bytes.NewReader(f.Data))
	}

	return c.do(ctx, req, resp, result)
}
