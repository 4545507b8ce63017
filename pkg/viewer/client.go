package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"airwatch-server/internal/modules/readings/types"
)

// Client talks to the readings REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the API at baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Pagination describes the page window returned alongside a page of readings.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type pageResponse struct {
	Data       []types.Reading `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Latest fetches the most recent reading. An empty store yields the server's
// placeholder reading, so this never returns "not found".
func (c *Client) Latest(ctx context.Context) (types.Reading, error) {
	var reading types.Reading
	err := c.getJSON(ctx, "/readings/latest", &reading)
	return reading, err
}

// Page fetches one page of readings, newest first.
func (c *Client) Page(ctx context.Context, page, limit int) ([]types.Reading, Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	var resp pageResponse
	if err := c.getJSON(ctx, "/readings?"+q.Encode(), &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Data, resp.Pagination, nil
}

// Range fetches readings between from and to inclusive, newest first.
func (c *Client) Range(ctx context.Context, from, to time.Time) ([]types.Reading, error) {
	q := url.Values{}
	q.Set("start", from.Format(time.RFC3339))
	q.Set("end", to.Format(time.RFC3339))
	var readings []types.Reading
	if err := c.getJSON(ctx, "/readings/range?"+q.Encode(), &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		var envelope errorResponse
		if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
			apiErr.Message = envelope.Message
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
