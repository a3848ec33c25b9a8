package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrStreamClosed is returned when the API ends the product stream.
var ErrStreamClosed = errors.New("product stream closed by server")

// StreamProducts reads GET /products/stream and calls onSnapshot for every
// snapshot event until ctx is done or the connection drops.
func (c *Client) StreamProducts(ctx context.Context, onSnapshot func([]Product)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/products/stream"), nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("open product stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64<<10), 16<<20)

	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event == "snapshot" && data.Len() > 0 {
				var payload productsEnvelope
				if err := json.Unmarshal([]byte(data.String()), &payload); err != nil {
					return fmt.Errorf("decode snapshot: %w", err)
				}
				onSnapshot(payload.Products)
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// heartbeat
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read product stream: %w", err)
	}
	return ErrStreamClosed
}
