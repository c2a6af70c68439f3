// Package catalog fetches MARC records from a VuFind catalog.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lehigh-university-libraries/marcrank/internal/marc"
)

// Client represents a VuFind catalog client
type Client struct {
	BaseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps requests to reqPerSec with the given burst.
// A non-positive reqPerSec leaves requests unlimited.
func WithRateLimit(reqPerSec float64, burst int) Option {
	return func(c *Client) {
		if reqPerSec <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(reqPerSec), max(burst, 1))
	}
}

// NewClient creates a new catalog client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRecord fetches and decodes the MARC export of a single record
func (c *Client) FetchRecord(ctx context.Context, recordID string) (*marc.Record, error) {
	if recordID == "" {
		return nil, fmt.Errorf("record ID is required")
	}

	data, err := c.fetchMARC(ctx, recordID)
	if err != nil {
		return nil, err
	}

	record, err := marc.DecodeISO2709(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MARC for record %s: %w", recordID, err)
	}

	slog.Debug("Fetched record", "id", recordID, "fields", len(record.Fields))
	return record, nil
}

// FetchRecords fetches several records, stopping at the first failure
func (c *Client) FetchRecords(ctx context.Context, recordIDs ...string) ([]*marc.Record, error) {
	records := make([]*marc.Record, 0, len(recordIDs))
	for _, id := range recordIDs {
		record, err := c.FetchRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// fetchMARC downloads the binary MARC export for a record ID
func (c *Client) fetchMARC(ctx context.Context, recordID string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	marcURL := fmt.Sprintf("%s/Record/%s/Export?style=MARC", c.BaseURL, url.PathEscape(recordID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, marcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch MARC: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("MARC fetch for %s returned status %d: %s", recordID, resp.StatusCode, string(body))
	}

	marcData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read MARC data: %w", err)
	}

	return marcData, nil
}
