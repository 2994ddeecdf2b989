// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

package dispatch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pacure/chatcore/model"
)

const (
	// DefaultTimeout bounds a single query round-trip.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps the response body read to keep a misbehaving
	// backend from exhausting memory.
	MaxResponseSize = 10 * 1024 * 1024
)

// queryRequest is the wire format of a query submission. The attachment
// travels base64-encoded under "image"; its filename rides along in "files".
type queryRequest struct {
	Query string   `json:"query"`
	Image string   `json:"image,omitempty"`
	Files []string `json:"files,omitempty"`
}

// queryResponse is the wire format of a backend reply. Error is set instead
// of the content fields when the backend reports a handled failure.
type queryResponse struct {
	Title           string       `json:"title"`
	Text            string       `json:"text"`
	URL             string       `json:"url"`
	ExternalSources []wireSource `json:"external_sources"`
	Source          string       `json:"source"`
	Error           string       `json:"error"`
}

type wireSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Client submits queries to the PACURE backend. Each call is a single POST
// with no retry: the caller surfaces failures to the user immediately.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client for the query endpoint at endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: zerolog.Nop(),
	}
}

// WithTimeout sets the round-trip timeout. Returns the client for chaining.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log
	return c
}

// Respond submits query (and the optional attachment) and returns the
// backend's answer. Failures are always a *Error carrying the Kind.
func (c *Client) Respond(ctx context.Context, query string, attachment *model.Attachment) (*Answer, error) {
	reqBody := queryRequest{Query: query}
	if attachment != nil {
		reqBody.Image = base64.StdEncoding.EncodeToString(attachment.Data)
		reqBody.Files = []string{attachment.Name}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("Backend unreachable")
		return nil, newError(KindNetwork, 0, "backend unreachable", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, newError(KindNetwork, resp.StatusCode, "failed to read response", err)
	}
	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Query round-trip complete")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.serverError(resp.StatusCode, body)
	}

	var wire queryResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, newError(KindMalformed, resp.StatusCode, "unparseable response body", err)
	}
	if wire.Error != "" {
		return nil, newError(KindServer, resp.StatusCode, wire.Error, nil)
	}
	if wire.Text == "" && wire.Title == "" {
		return nil, newError(KindMalformed, resp.StatusCode, "response carries neither text nor title", nil)
	}

	return wire.answer(), nil
}

// serverError classifies a non-2xx reply, preferring the backend's own
// error message when the body parses.
func (c *Client) serverError(status int, body []byte) *Error {
	var wire queryResponse
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error != "" {
		return newError(KindServer, status, wire.Error, nil)
	}
	return newError(KindServer, status, http.StatusText(status), nil)
}

// answer converts the wire reply into the domain answer.
func (r *queryResponse) answer() *Answer {
	ans := &Answer{
		Title:       r.Title,
		Text:        r.Text,
		ResourceURL: r.URL,
		Origin:      r.Source,
	}
	for _, s := range r.ExternalSources {
		if s.URL == "" {
			continue
		}
		name := s.Name
		if name == "" {
			name = s.URL
		}
		ans.Sources = append(ans.Sources, model.Source{Name: name, URL: s.URL})
	}
	return ans
}

// readResponse reads the body under MaxResponseSize. Hitting the limit is
// an error: a truncated payload must not be parsed as a complete one.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
