// Package gateway is the HTTP client for the content endpoints served by
// landingcms. It implements contentstore.Gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/curelo/landingcms/internal/cms/contentstore"
	"github.com/curelo/landingcms/internal/domain/models"
	"go.uber.org/zap"
)

// ErrPayloadTooLarge is returned when the server rejects a document for size.
var ErrPayloadTooLarge = contentstore.ErrPayloadTooLarge

// ContentPath is the endpoint serving the site document.
const ContentPath = "/api/cms"

// StatusError is a non-success HTTP response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("content api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("content api: status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Retry      *RetryOptions
	Logger     *zap.Logger
}

// Client talks to the content API.
type Client struct {
	baseURL   string
	apiKey    string
	http      *http.Client
	retryOpts RetryOptions
	logger    *zap.Logger
}

var _ contentstore.Gateway = (*Client)(nil)

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	ro := DefaultRetryOptions()
	if opts.Retry != nil {
		ro = *opts.Retry
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		http:      hc,
		retryOpts: ro,
		logger:    logger,
	}
}

// Fetch returns the stored document, or nil when the server holds none.
func (c *Client) Fetch(ctx context.Context) (*models.SiteDocument, error) {
	var doc *models.SiteDocument
	err := c.retry(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, nil)
		if err != nil {
			return err
		}
		var d models.SiteDocument
		if err := json.Unmarshal(body, &d); err != nil {
			return fmt.Errorf("decode site document: %w", err)
		}
		doc = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		return nil, nil
	}
	return doc, nil
}

// Store overwrites the server's document. Publishing the same document
// twice has the same effect as once, so failed attempts are retried.
func (c *Client) Store(ctx context.Context, doc *models.SiteDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode site document: %w", err)
	}
	c.logger.Debug("publishing site document", zap.Int("bytes", len(payload)))
	return c.retry(ctx, func() error {
		_, err := c.do(ctx, http.MethodPost, payload)
		return err
	})
}

func (c *Client) do(ctx context.Context, method string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ContentPath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: err}
	}

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return nil, fmt.Errorf("%s %s: %w", method, ContentPath, ErrPayloadTooLarge)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
