// Package apiclient talks to the product API on behalf of the dashboard. The
// session cookie set by the API is kept in the client's cookie jar.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// APIError is a non-2xx answer from the API. Message is the server-supplied
// text when the body carried one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Product struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Category  string  `json:"category"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// ProductInput is the body of a create request.
type ProductInput struct {
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
	Status   string  `json:"status,omitempty"`
}

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name     *string  `json:"name,omitempty"`
	SKU      *string  `json:"sku,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Stock    *int     `json:"stock,omitempty"`
	Category *string  `json:"category,omitempty"`
	Status   *string  `json:"status,omitempty"`
}

type Client struct {
	base *url.URL
	http *http.Client
	// stream has no overall timeout; its lifetime is the request context.
	stream *http.Client
}

// New returns a client for the API at baseURL. A nil transport uses
// http.DefaultTransport.
func New(baseURL string, transport http.RoundTripper) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		base:   base,
		http:   &http.Client{Jar: jar, Transport: transport, Timeout: 15 * time.Second},
		stream: &http.Client{Jar: jar, Transport: transport},
	}, nil
}

type userEnvelope struct {
	User *User `json:"user"`
}

type productEnvelope struct {
	Product Product `json:"product"`
}

type productsEnvelope struct {
	Products []Product `json:"products"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Me returns the user of the current session.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.New("session response carried no user")
	}
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.New("login response carried no user")
	}
	return out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ListProducts returns every product, newest first.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out productsEnvelope
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var out productEnvelope
	if err := c.do(ctx, http.MethodPost, "/products", in, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	var out productEnvelope
	if err := c.do(ctx, http.MethodPatch, "/products/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *Client) UpdateProductStatus(ctx context.Context, id, status string) (*Product, error) {
	var out productEnvelope
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/products/"+url.PathEscape(id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

// Ping checks that the API answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		apiErr.Message = envelope.Error
		if apiErr.Message == "" {
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}
