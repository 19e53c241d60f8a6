package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/ports"
)

const (
	DefaultBaseURL = "https://schutztat.iil.pet/api/v1"
	DefaultTimeout = 30 * time.Second

	// bodyExcerptLimit bounds how much of an error response is kept in the
	// audit trail.
	bodyExcerptLimit = 512
)

// Client fetches pages from the risk hub API.
type Client struct {
	http *resty.Client
}

var _ ports.RemoteSource = (*Client)(nil)

// NewClient returns a client for settings. The API key must be present;
// callers decide earlier whether a missing key means "skip".
func NewClient(settings ports.RemoteSettings) (*Client, error) {
	apiKey := strings.TrimSpace(settings.APIKey)
	if apiKey == "" {
		return nil, riskhub.ErrConfigurationMissing
	}

	baseURL := strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient}, nil
}

// NewSourceFactory adapts NewClient to ports.RemoteSourceFactory.
func NewSourceFactory() ports.RemoteSourceFactory {
	return func(settings ports.RemoteSettings) (ports.RemoteSource, error) {
		return NewClient(settings)
	}
}

func (c *Client) FetchPage(ctx context.Context, endpoint string, offset int, limit int) ([]ports.RemoteItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if offset < 0 {
		return nil, errors.New("offset must not be negative")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}).
		Get(endpoint)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "GET %s offset=%d", endpoint, offset), riskhub.ErrRemoteUnavailable)
	}
	if !resp.IsSuccess() {
		return nil, errs.Mark(
			fmt.Errorf("GET %s offset=%d: status %s: %s", endpoint, offset, resp.Status(), excerpt(resp.Body())),
			riskhub.ErrRemoteStatus,
		)
	}

	return decodeItems(resp.Body())
}

// decodeItems keeps numbers as json.Number so integer ids and scores survive
// without float rounding.
func decodeItems(body []byte) ([]ports.RemoteItem, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var items []ports.RemoteItem
	if err := dec.Decode(&items); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode page"), riskhub.ErrRemotePayload)
	}
	return items, nil
}

func excerpt(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > bodyExcerptLimit {
		return text[:bodyExcerptLimit] + "..."
	}
	return text
}
