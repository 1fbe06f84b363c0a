// Package apiclient talks to the reviewhub REST API. It implements
// ingest.Backend for batch submission.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cast"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
)

// Client is an authenticated API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	// stream has no overall timeout; uploads and progress streams are
	// bounded by the caller's context.
	stream *http.Client
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api/v1".
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		stream:  &http.Client{},
	}
}

// SetToken replaces the bearer token used for requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends in as JSON and returns the raw response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in interface{}) ([]byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(c.http, req)
}

func (c *Client) send(hc *http.Client, req *http.Request) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	var env envelope
	if json.Unmarshal(data, &env) == nil {
		switch {
		case env.Error != nil:
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		case env.Message != "":
			apiErr.Message = env.Message
		}
	}
	return apiErr
}

// unwrapData returns the envelope's data member, or the body itself when
// the response is not enveloped.
func unwrapData(data []byte) json.RawMessage {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return data
}

// TokenPair is returned by Login.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Login exchanges credentials for tokens and starts using the access token.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	data, err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var tokens TokenPair
	if err := json.Unmarshal(unwrapData(data), &tokens); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	c.token = tokens.AccessToken
	return &tokens, nil
}

// ListCategories returns the product categories.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	data, err := c.doJSON(ctx, http.MethodGet, "/categories", nil)
	if err != nil {
		return nil, err
	}
	var cats []domain.Category
	if err := json.Unmarshal(unwrapData(data), &cats); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}
	return cats, nil
}

// CreateProduct creates a product and returns its id.
func (c *Client) CreateProduct(ctx context.Context, in ingest.ProductInput) (int64, error) {
	data, err := c.doJSON(ctx, http.MethodPost, "/products", in)
	if err != nil {
		return 0, err
	}
	return ProductIDFrom(data)
}

// DeleteProduct removes a product and its reviews.
func (c *Client) DeleteProduct(ctx context.Context, productID int64) error {
	_, err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", productID), nil)
	return err
}

// productIDPaths is the precedence order for locating the id of a newly
// created product in a response body.
var productIDPaths = [][]string{
	{"product", "product_id"},
	{"product_id"},
	{"data", "product", "product_id"},
	{"data", "product_id"},
}

// ProductIDFrom extracts the product id from a create-product response.
func ProductIDFrom(body []byte) (int64, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("decoding product response: %w", err)
	}
	for _, path := range productIDPaths {
		v, ok := lookup(doc, path)
		if !ok || v == nil {
			continue
		}
		id, err := cast.ToInt64E(v)
		if err != nil || id <= 0 {
			continue
		}
		return id, nil
	}
	return 0, fmt.Errorf("product id missing from response")
}

func lookup(doc map[string]interface{}, path []string) (interface{}, bool) {
	var cur interface{} = doc
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
