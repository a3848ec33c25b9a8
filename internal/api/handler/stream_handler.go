package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-dashboard/internal/api/metrics"
	"github.com/99minutos/product-dashboard/internal/infrastructure/feed"
)

const heartbeatInterval = 25 * time.Second

// SnapshotHub hands out live product snapshots to stream clients.
type SnapshotHub interface {
	Join() (updates <-chan []feed.Record, leave func())
}

// StreamHandler serves the live product feed as server-sent events.
type StreamHandler struct {
	hub SnapshotHub
}

func NewStreamHandler(hub SnapshotHub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

type snapshotEvent struct {
	Products []feed.Record `json:"products"`
}

// Stream handles GET /products/stream. Every event is a complete snapshot
// ordered by createdAt, newest first.
//
// @Summary      Live product snapshots
// @Tags         products
// @Produce      text/event-stream
// @Security     SessionCookie
// @Success      200  {object}  snapshotEvent  "event: snapshot"
// @Failure      401  {object}  errorResponse
// @Router       /products/stream [get]
func (h *StreamHandler) Stream(c echo.Context) error {
	updates, leave := h.hub.Join()
	defer leave()
	metrics.FeedSubscribers.Inc()
	defer metrics.FeedSubscribers.Dec()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
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
			res.Flush()
		case snapshot, ok := <-updates:
			if !ok {
				return nil
			}
			if snapshot == nil {
				snapshot = []feed.Record{}
			}
			data, err := json.Marshal(snapshotEvent{Products: snapshot})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
