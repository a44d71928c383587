// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-index/meridian/lib/addr"
)

// maxResponseBytes bounds the fetch response body. The largest
// on-chain package objects are low single-digit megabytes; 64 MiB is
// far above any legitimate object.
const maxResponseBytes = 64 << 20

// Fetcher retrieves one object by id. It is the remote fallback used
// by the local-persistent package store when an object is missing
// from the local table. Implementations must be safe for concurrent
// use.
type Fetcher interface {
	Object(ctx context.Context, id addr.Address) (*Object, error)
}

// FetchError is a non-2xx response from the fetch endpoint.
type FetchError struct {
	// ID is the object id that was requested.
	ID addr.Address

	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the response body, truncated.
	Message string
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fetching object %s: HTTP %d", e.ID.Short(), e.StatusCode)
	}
	return fmt.Sprintf("fetching object %s: HTTP %d: %s", e.ID.Short(), e.StatusCode, e.Message)
}

// IsFetchNotFound reports whether err is a fetch-endpoint 404.
func IsFetchNotFound(err error) bool {
	var fetchError *FetchError
	return errors.As(err, &fetchError) && fetchError.StatusCode == http.StatusNotFound
}

// ClientConfig holds the parameters for creating a fetch client.
type ClientConfig struct {
	// BaseURL is the root URL of the object fetch endpoint.
	// Required. Objects are fetched from "{BaseURL}/objects/{id}".
	BaseURL string

	// HTTPClient is used for all requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives one Debug line per fetch. If nil, a no-op
	// logger is used.
	Logger *slog.Logger
}

// Client fetches object envelopes over HTTP. Responses are CBOR
// object envelopes; any non-200 status becomes a *FetchError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a fetch client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("fetch client: BaseURL is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Object fetches one object envelope by id.
func (c *Client) Object(ctx context.Context, id addr.Address) (*Object, error) {
	url := c.baseURL + "/objects/" + id.String()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching object %s: %w", id.Short(), err)
	}
	request.Header.Set("Accept", "application/cbor")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching object %s: %w", id.Short(), err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("fetching object %s: reading response: %w", id.Short(), err)
	}

	if response.StatusCode != http.StatusOK {
		message := strings.TrimSpace(string(body))
		if len(message) > 256 {
			message = message[:256]
		}
		return nil, &FetchError{ID: id, StatusCode: response.StatusCode, Message: message}
	}

	object, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("fetching object %s: %w", id.Short(), err)
	}
	if object.ID != id {
		return nil, fmt.Errorf("fetching object %s: endpoint returned object %s", id.Short(), object.ID.Short())
	}

	c.logger.Debug("fetched object",
		"id", id.Short(),
		"version", object.Version,
		"package", object.IsPackage(),
	)
	return object, nil
}
