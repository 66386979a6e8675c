// Package leadsquared forwards captured leads to the LeadSquared CRM.
package leadsquared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the regional API host the account lives on.
const DefaultBaseURL = "https://api-in21.leadsquared.com"

const createOrUpdatePath = "/v2/LeadManagement.svc/Lead.CreateOrUpdate"

var (
	// ErrNotConfigured is returned when the access or secret key is missing.
	ErrNotConfigured = errors.New("leadsquared: credentials not configured")
	// ErrRejected is returned when the CRM answers with Status "Error".
	ErrRejected = errors.New("leadsquared: lead rejected")
)

// Attribute is one field of a lead as the CRM expects it.
type Attribute struct {
	Attribute string `json:"Attribute"`
	Value     string `json:"Value"`
}

// Config holds the CRM credentials.
type Config struct {
	BaseURL   string
	AccessKey string
	SecretKey string
	Timeout   time.Duration
}

// Client submits leads.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New creates a Client. A zero Timeout means 15s.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Configured reports whether both keys are set.
func (c *Client) Configured() bool {
	return c.cfg.AccessKey != "" && c.cfg.SecretKey != ""
}

type createResult struct {
	Status           string `json:"Status"`
	ExceptionMessage string `json:"ExceptionMessage"`
	Message          struct {
		ID string `json:"Id"`
	} `json:"Message"`
}

// CreateOrUpdate submits attrs and returns the CRM lead id, which may be
// empty when the CRM omits it.
func (c *Client) CreateOrUpdate(ctx context.Context, attrs []Attribute) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("encode lead: %w", err)
	}

	q := url.Values{}
	q.Set("postUpdatedLead", "false")
	q.Set("accessKey", c.cfg.AccessKey)
	q.Set("secretKey", c.cfg.SecretKey)
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + createOrUpdatePath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the keys; never log the raw error text.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("leadsquared request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var result createResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if strings.EqualFold(result.Status, "Error") {
		c.logger.Error("leadsquared rejected lead",
			zap.Int("status", resp.StatusCode),
			zap.String("exception", result.ExceptionMessage))
		return "", fmt.Errorf("%w: %s", ErrRejected, result.ExceptionMessage)
	}

	return result.Message.ID, nil
}
