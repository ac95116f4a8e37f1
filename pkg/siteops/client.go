// Package siteops provides a Go client for the siteops-server API.
package siteops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a running siteops-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// DayTotal mirrors the server's per-day P&L row.
type DayTotal struct {
	Date     string `json:"date"`
	Gross    int64  `json:"gross"`
	Tax      int64  `json:"tax"`
	Net      int64  `json:"net"`
	Covers   int    `json:"covers"`
	Receipts int    `json:"receipts"`
}

// Summary mirrors the server's range summary.
type Summary struct {
	Gross       int64 `json:"gross"`
	Tax         int64 `json:"tax"`
	Net         int64 `json:"net"`
	Covers      int   `json:"covers"`
	Receipts    int   `json:"receipts"`
	TradingDays int   `json:"tradingDays"`
}

// PNL pairs day rows with their summary.
type PNL struct {
	Start  string     `json:"start"`
	End    string     `json:"end"`
	Days   []DayTotal `json:"days"`
	Totals Summary    `json:"totals"`
}

type missingCashupsResponse struct {
	Success bool     `json:"success"`
	Dates   []string `json:"dates"`
	Error   string   `json:"error"`
}

type pnlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	PNL
}

// MissingCashupDates returns the site's missing cash-up dates, newest first.
// daysBack <= 0 uses the server's default window.
func (c *Client) MissingCashupDates(ctx context.Context, siteID string, daysBack int) ([]string, error) {
	u := fmt.Sprintf("%s/api/sites/%s/cashups/missing", c.baseURL, url.PathEscape(siteID))
	if daysBack > 0 {
		u += "?days=" + strconv.Itoa(daysBack)
	}

	var resp missingCashupsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New(resp.Error)
	}
	return resp.Dates, nil
}

// SitePNL returns daily takings and a summary for [start, end], both
// YYYY-MM-DD. Empty bounds use the server's default trailing window.
func (c *Client) SitePNL(ctx context.Context, siteID, start, end string) (*PNL, error) {
	u := fmt.Sprintf("%s/api/sites/%s/pnl", c.baseURL, url.PathEscape(siteID))
	q := url.Values{}
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var resp pnlResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New(resp.Error)
	}
	return &resp.PNL, nil
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/api/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", resp.Status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// Failure responses still carry a JSON body with an error message, so
	// decode before judging the status code.
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s (status %d): %w", url, res.StatusCode, err)
	}
	return nil
}
