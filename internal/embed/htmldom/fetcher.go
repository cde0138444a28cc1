package htmldom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/plinth-cms/plinth/internal/embed"
)

// maxResponseBytes caps a response body read into memory.
const maxResponseBytes = 8 << 20

// ErrResponseTooLarge is returned for bodies over maxResponseBytes.
var ErrResponseTooLarge = errors.New("response too large")

// HTTPFetcher performs runtime requests over an *http.Client.
type HTTPFetcher struct {
	client *http.Client
	limit  int64
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client uses http.DefaultClient.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, limit: maxResponseBytes}
}

// Fetch sends req and reads the whole response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *embed.Request) (*embed.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.limit+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > f.limit {
		return nil, fmt.Errorf("%w: %s %s exceeds %d bytes", ErrResponseTooLarge, req.Method, req.URL, f.limit)
	}
	return &embed.Response{StatusCode: resp.StatusCode, Body: data}, nil
}
