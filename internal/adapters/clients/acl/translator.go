package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/account-gateway/internal/adapters/clients"
)

// maxResponseBody caps how much of a successful response is decoded.
const maxResponseBody = 1 << 20

// BaseAdapter carries the client and names shared by provider adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
	displayName string
}

// NewBaseAdapter creates a BaseAdapter.
func NewBaseAdapter(client *clients.Client, serviceName, displayName string) BaseAdapter {
	return BaseAdapter{client: client, serviceName: serviceName, displayName: displayName}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName returns the downstream name.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get performs a GET and returns the body of a 2xx response; the caller
// closes it. Any other outcome is a mapped domain error.
func (a *BaseAdapter) Get(ctx context.Context, path string, query url.Values, opts ...clients.RequestOption) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path, query, opts...)
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, a.displayName)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, a.displayName)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(io.LimitReader(body, maxResponseBody)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}
