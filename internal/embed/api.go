package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RenderResult is the data of a successful render response.
type RenderResult struct {
	HTML string          `json:"html"`
	CSS  string          `json:"css"`
	Data json.RawMessage `json:"data"`
	Meta RenderMeta      `json:"meta"`
}

// RenderMeta is the pagination block of a render response.
type RenderMeta struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Layout     string `json:"layout"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// trackBody is the body of POST /widgets/{id}/track.
type trackBody struct {
	EventType string `json:"event_type"`
	ContentID string `json:"content_id,omitempty"`
	URL       string `json:"url,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

func fetchRender(ctx context.Context, p Platform, rawURL string) (*RenderResult, error) {
	resp, err := p.Fetch(ctx, &Request{
		Method: http.MethodGet,
		URL:    rawURL,
		Header: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
		if decodeErr == nil && env.Error != nil {
			httpErr.Code, httpErr.Message = env.Error.Code, env.Error.Message
		}
		return nil, httpErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode render response: %w", decodeErr)
	}

	var result RenderResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("decode render data: %w", err)
	}
	return &result, nil
}

func postTrack(ctx context.Context, p Platform, rawURL string, body trackBody) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := p.Fetch(ctx, &Request{
		Method: http.MethodPost,
		URL:    rawURL,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   data,
	})
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}
