package classcharts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chartsbridge/internal/metrics"
)

// get issues an authenticated GET and returns status and body. The token is
// re-read per attempt so a retry after a forced refresh picks up a rotated
// token.
func (c *Client) get(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	token := c.token()
	if token == "" {
		return 0, nil, ErrNoSession
	}

	target, err := c.endpoint(path, query)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, &RequestError{Op: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Basic "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, &RequestError{Op: "get " + path, Err: err}
	}
	body, err := readBody(resp)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// getData performs one authenticated GET and classifies the body, returning
// the envelope's data payload on success.
func (c *Client) getData(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	status, body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &ServerError{StatusCode: status}
	}
	if len(body) == 0 {
		return nil, ErrNoData
	}

	env, verdict := classifyResponse(body)
	switch verdict {
	case classifiedExpired:
		return nil, ErrSessionExpired
	case classifiedMalformed:
		return nil, fmt.Errorf("classify %s response: %w", path, ErrInvalidResponse)
	}
	return env.Data, nil
}

// fetchData is the template every list-style resource operation follows:
// ensure a fresh session, issue the request, and on a reported expiry force
// exactly one heartbeat and retry exactly once. Worst case this costs two
// heartbeats and two resource calls; there is never a loop.
func (c *Client) fetchData(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}

	data, err := c.getData(ctx, path, query)
	if !errors.Is(err, ErrSessionExpired) {
		return data, err
	}

	metrics.SessionRetries.Inc()
	c.publish(EventExpired)
	c.logger.Info("session expired mid-call, refreshing and retrying", "path", path)

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	return c.getData(ctx, path, query)
}
