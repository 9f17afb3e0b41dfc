package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrUpstream wraps any failure to reach the tracker service.
var ErrUpstream = errors.New("tracker upstream")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxBodyBytes caps how much of a tracker response is read.
const maxBodyBytes = 8 << 20

type Client struct {
	statusURL string
	feedURL   string
	client    *http.Client
	now       func() time.Time
}

func NewClient(statusURL, feedURL string, timeout time.Duration) *Client {
	return &Client{
		statusURL: statusURL,
		feedURL:   feedURL,
		client: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// FetchStatus downloads and decodes the telemetry status document.
func (c *Client) FetchStatus(ctx context.Context) (Status, error) {
	u, err := url.Parse(c.statusURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad status url: %v", ErrUpstream, err)
	}
	q := u.Query()
	q.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	status, err := DecodeStatus(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return status, nil
}

// FetchFeed downloads the map page script as text.
func (c *Client) FetchFeed(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.feedURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) HasFeed() bool {
	return c.feedURL != ""
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}
	return body, nil
}
