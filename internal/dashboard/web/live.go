package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const liveHeartbeat = 25 * time.Second

// live streams one "change" event per store version so open pages can
// reload themselves.
func (h *pages) live(c echo.Context) error {
	versions, cancel := h.store.Subscribe()
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	heartbeat := time.NewTicker(liveHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
		case v := <-versions:
			if _, err := fmt.Fprintf(res, "event: change\ndata: %d\n\n", v); err != nil {
				return nil
			}
		}
		res.Flush()
	}
}
