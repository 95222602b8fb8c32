package xclient

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// StreamFilter describes a statuses/filter.json subscription.
type StreamFilter struct {
	Track     []string
	Follow    []string
	Languages []string
}

// StreamConn is a long-lived streaming connection delivering raw event
// records one line at a time. Closing the connection (or cancelling the
// context passed to OpenStream) unblocks a pending Next.
type StreamConn struct {
	body    interface{ Close() error }
	scanner *bufio.Scanner
}

// OpenStream connects to the filtered statuses stream. Authentication
// or abuse rejections surface as ErrStreamAuth, the only stream error
// the daemon treats as fatal.
func (c *Client) OpenStream(ctx context.Context, f StreamFilter) (*StreamConn, error) {
	params := map[string]string{}
	if len(f.Track) > 0 {
		params["track"] = strings.Join(f.Track, ",")
	}
	if len(f.Follow) > 0 {
		params["follow"] = strings.Join(f.Follow, ",")
	}
	if len(f.Languages) > 0 {
		params["language"] = strings.Join(f.Languages, ",")
	}
	reqURL := c.streamURL + "/statuses/filter.json"
	if len(params) > 0 {
		reqURL += "?" + encodeQuery(params)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.oauth1Sign(req, params)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	// No client timeout: the connection stays open for the process lifetime.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == 420:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrStreamAuth, resp.StatusCode)
	case resp.StatusCode >= 400:
		apiErr := newAPIError(resp)
		_ = resp.Body.Close()
		return nil, apiErr
	}
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	conn := &StreamConn{body: resp.Body, scanner: sc}
	go func() {
		<-ctx.Done()
		_ = resp.Body.Close()
	}()
	return conn, nil
}

// Next returns the next raw event record, skipping keepalive blank lines.
func (s *StreamConn) Next(ctx context.Context) ([]byte, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("stream closed")
}

func (s *StreamConn) Close() error { return s.body.Close() }
