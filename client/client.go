// Package client talks to the curius.app REST API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"curius/models"
)

const DefaultBaseURL = "https://curius.app/api"

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curius_api_requests_total",
		Help: "The total number of curius API requests",
	}, []string{"endpoint"})

	apiRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curius_api_request_errors_total",
		Help: "The total number of failed curius API requests",
	}, []string{"endpoint"})

	apiRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "curius_api_request_duration_seconds",
		Help:    "Duration of curius API requests",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // Start at 10ms, double each bucket, 10 buckets
	})
)

// ErrUserNotFound is returned when a profile lookup answers 404.
var ErrUserNotFound = errors.New("user not found")

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("curius API returned status %d for %s", e.Code, e.URL)
}

// Client is a thin wrapper around the curius.app HTTP API. The zero value
// is not usable, construct with New.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithBaseURL points the client at another API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken attaches a JWT sent as a bearer token on every request. An
// empty token leaves the client unauthenticated.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User fetches a profile by user link, the slug in a curius profile URL.
func (c *Client) User(ctx context.Context, userLink string) (*models.User, error) {
	var payload struct {
		User *models.User `json:"user"`
	}
	path := "/users/" + url.PathEscape(userLink)
	if err := c.getJSON(ctx, "user", path, nil, &payload); err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return nil, fmt.Errorf("user %s: %w", userLink, ErrUserNotFound)
		}
		return nil, err
	}
	if payload.User == nil {
		return nil, fmt.Errorf("user %s: %w", userLink, ErrUserNotFound)
	}
	return payload.User, nil
}

// Links fetches a user's saved links without pagination.
func (c *Client) Links(ctx context.Context, userId int64) ([]*models.Link, error) {
	var payload linksPayload
	path := fmt.Sprintf("/users/%d/links", userId)
	if err := c.getJSON(ctx, "links", path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.links()
}

// LinksPage fetches one zero-based page of a user's saved links, newest
// first. Pages past the end come back empty.
func (c *Client) LinksPage(ctx context.Context, userId int64, page int) ([]*models.Link, error) {
	var payload linksPayload
	path := fmt.Sprintf("/users/%d/links", userId)
	query := url.Values{"page": []string{strconv.Itoa(page)}}
	if err := c.getJSON(ctx, "links_page", path, query, &payload); err != nil {
		return nil, err
	}
	return payload.links()
}

// Network fetches the cross-user view of a URL: who saved it and what they
// highlighted.
func (c *Client) Network(ctx context.Context, target string) (*models.Network, error) {
	body, err := json.Marshal(map[string]string{"url": target})
	if err != nil {
		return nil, fmt.Errorf("failed to encode network request: %w", err)
	}
	data, err := c.do(ctx, "network", http.MethodPost, "/links/url/network", nil, body)
	if err != nil {
		return nil, err
	}
	network, err := models.ParseNetworkPayload(data)
	if err != nil {
		return nil, fmt.Errorf("network payload for %s: %w", target, err)
	}
	return network, nil
}

// linksPayload tolerates the key names the links endpoints use across
// deployments.
type linksPayload map[string]json.RawMessage

func (p linksPayload) links() ([]*models.Link, error) {
	for _, key := range []string{"links", "items", "data", "userSaved", "results"} {
		raw, ok := p[key]
		if !ok || len(raw) == 0 || raw[0] != '[' {
			continue
		}
		var links []*models.Link
		if err := json.Unmarshal(raw, &links); err != nil {
			return nil, fmt.Errorf("failed to decode %s list: %w", key, err)
		}
		return links, nil
	}
	return nil, errors.New("links payload did not contain a links list")
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	data, err := c.do(ctx, endpoint, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body []byte) ([]byte, error) {
	apiRequests.WithLabelValues(endpoint).Inc()
	start := time.Now()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		apiRequestErrors.WithLabelValues(endpoint).Inc()
		return nil, fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log.WithFields(log.Fields{
		"method": method,
		"url":    target,
	}).Debug("curius API request")

	resp, err := c.http.Do(req)
	if err != nil {
		apiRequestErrors.WithLabelValues(endpoint).Inc()
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	apiRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		apiRequestErrors.WithLabelValues(endpoint).Inc()
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiRequestErrors.WithLabelValues(endpoint).Inc()
		log.WithFields(log.Fields{
			"status": resp.StatusCode,
			"url":    target,
		}).Error("curius API request rejected")
		return nil, &StatusError{Code: resp.StatusCode, URL: target}
	}
	return data, nil
}
