// Package zebra is a small client for the Zebra time-tracking REST API.
package zebra

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
)

// ErrNotConfigured is returned when no API URL is set.
var ErrNotConfigured = errors.New("zebra api url is not configured")

// Client talks to one Zebra instance with a personal API token.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		Timeout: 10 * time.Second,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zebra api error: status=%d body=%s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var resp ListEnvelope[Project]
	err := c.do(ctx, http.MethodGet, "projects", nil, &resp)
	return resp.Data.List, err
}

func (c *Client) Timesheets(ctx context.Context, filter TimesheetFilter) ([]Timesheet, error) {
	q := url.Values{}
	if filter.StartDate != "" {
		q.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("end_date", filter.EndDate)
	}
	endpoint := "timesheets"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp ListEnvelope[Timesheet]
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Data.List, err
}

func (c *Client) Timesheet(ctx context.Context, id int) (Timesheet, error) {
	var resp ItemEnvelope[Timesheet]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("timesheets/%d", id), nil, &resp)
	return resp.Data, err
}

func (c *Client) CreateTimesheet(ctx context.Context, ts Timesheet) (Timesheet, error) {
	ts.ID = 0
	ts.UpdatedAt = ""
	var resp ItemEnvelope[Timesheet]
	err := c.do(ctx, http.MethodPost, "timesheets", ts, &resp)
	return resp.Data, err
}

func (c *Client) UpdateTimesheet(ctx context.Context, id int, ts Timesheet) (Timesheet, error) {
	ts.ID = 0
	ts.UpdatedAt = ""
	var resp ItemEnvelope[Timesheet]
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("timesheets/%d", id), ts, &resp)
	return resp.Data, err
}

func (c *Client) DeleteTimesheet(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("timesheets/%d", id), nil, nil)
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var resp ListEnvelope[User]
	err := c.do(ctx, http.MethodGet, "users", nil, &resp)
	return resp.Data.List, err
}

func (c *Client) User(ctx context.Context, id int) (User, error) {
	var resp ItemEnvelope[User]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("users/%d", id), nil, &resp)
	return resp.Data, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrNotConfigured
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
