package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/metrics"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/upstream"
)

// phoneColumn is the sheet column the search formula matches against.
const phoneColumn = "Student Contact Number (from Student ID)"

// Record is one Airtable record with its raw field map.
type Record struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"createdTime"`
}

// Client queries the Airtable REST API for one base/table.
type Client struct {
	BaseURL string
	BaseID  string
	TableID string
	APIKey  string
	HTTP    *http.Client
}

// New creates a client against the public Airtable API.
func New(baseID, tableID, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: "https://api.airtable.com/v0",
		BaseID:  baseID,
		TableID: tableID,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// SearchByPhone returns up to five records whose student contact column
// equals phone exactly, via an Airtable filter formula. Single quotes in the
// input are escaped so the formula stays a literal comparison.
func (c *Client) SearchByPhone(ctx context.Context, phone string) ([]Record, error) {
	escaped := strings.ReplaceAll(phone, "'", "\\'")
	formula := fmt.Sprintf("{%s} = '%s'", phoneColumn, escaped)

	q := url.Values{
		"filterByFormula": {formula},
		"maxRecords":      {"5"},
	}
	u := c.BaseURL + "/" + c.BaseID + "/" + c.TableID + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("airtable", "error").Inc()
		return nil, fmt.Errorf("airtable request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("airtable", "error").Inc()
		return nil, fmt.Errorf("airtable response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues("airtable", "error").Inc()
		return nil, &upstream.Error{Target: "airtable", StatusCode: resp.StatusCode, Body: body}
	}
	metrics.UpstreamRequests.WithLabelValues("airtable", "ok").Inc()

	var out struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("airtable response decode failed: %w", err)
	}
	return out.Records, nil
}
