// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package contentful

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://cdn.contentful.com"
	DefaultEnvironment = "master"
	DefaultPageSize    = 100

	// The delivery API allows 55 req/s for cached content; stay well under.
	DefaultRateLimit = 7
	DefaultBurst     = 7

	// maxPageSize is the hard limit the API enforces on ?limit.
	maxPageSize = 1000
)

// Config holds the client settings. Only SpaceID and Token are required.
type Config struct {
	BaseURL     string
	SpaceID     string
	Environment string
	Token       string
	PageSize    int
	RateLimit   float64
	Burst       int
	HTTPClient  *http.Client
}

// Client is a read-only client for the content delivery API.
type Client struct {
	baseURL     *url.URL
	space       string
	environment string
	token       string
	pageSize    int
	limiter     *rate.Limiter
	http        *http.Client
}

// NewClient validates cfg, applies defaults and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SpaceID == "" {
		return nil, ErrSpaceNotSet
	}
	if cfg.Token == "" {
		return nil, ErrTokenNotSet
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	if cfg.Environment == "" {
		cfg.Environment = DefaultEnvironment
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = cleanhttp.DefaultPooledClient()
	}

	return &Client{
		baseURL:     base,
		space:       cfg.SpaceID,
		environment: cfg.Environment,
		token:       cfg.Token,
		pageSize:    cfg.PageSize,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		http:        cfg.HTTPClient,
	}, nil
}

// Entries lists every entry of the given content type, following pagination.
// Entry order is the order the API returns them in.
func (c *Client) Entries(ctx context.Context, contentType string) ([]Entry, error) {
	ec := ErrorContext{
		Space:       c.space,
		Environment: c.environment,
		ContentType: contentType,
		Operation:   "list entries",
	}

	var results []Entry
	skip := 0

	// Paginate through the dataset
	for {
		q := url.Values{}
		q.Set("content_type", contentType)
		q.Set("include", "1")
		q.Set("skip", strconv.Itoa(skip))
		q.Set("limit", strconv.Itoa(c.pageSize))

		raw, err := c.get(ctx, c.entriesPath(), q)
		if err != nil {
			return nil, Friendly(err, ec)
		}

		p, err := parsePage(raw)
		if err != nil {
			return nil, Friendly(err, ec)
		}
		results = append(results, p.Entries...)

		log.Debugf("entries page: skip=%d got=%d total=%d", skip, len(p.Entries), p.Total)

		if len(p.Entries) == 0 || len(results) >= p.Total {
			break
		}
		skip += len(p.Entries)
	}

	if results == nil {
		results = []Entry{}
	}

	return results, nil
}

// String renders the client without the token.
func (c *Client) String() string {
	return fmt.Sprintf("Client{base=%s space=%s environment=%s token=********}",
		c.baseURL, c.space, c.environment)
}

func (c *Client) entriesPath() string {
	return fmt.Sprintf("/spaces/%s/environments/%s/entries", c.space, c.environment)
}

// get issues a bearer-authenticated GET and returns the body of a 2xx
// response.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := *c.baseURL
	u.Path += path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := gjson.ParseBytes(doc.Bytes())
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    body.Get("message").String(),
			RequestID:  firstNonEmpty(body.Get("requestId").String(), resp.Header.Get("X-Contentful-Request-Id")),
		}
	}

	if !gjson.ValidBytes(doc.Bytes()) {
		return nil, fmt.Errorf("%w: body is not JSON (content-type %q)",
			ErrMalformedResponse, resp.Header.Get("Content-Type"))
	}

	return doc.Bytes(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
