package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/olahol/melody"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Compile-time interface check.
var _ domain.NotificationSink = (*WSSink)(nil)

const keyMinPriority = "min_priority"

// WSSink pushes notifications to connected WebSocket clients as JSON.
// Clients may connect with ?min=medium or ?min=high to filter by priority.
type WSSink struct {
	m   *melody.Melody
	log *logger.Logger
}

// message is the frame clients receive.
type message struct {
	Type string              `json:"type"`
	Data domain.Notification `json:"data"`
}

// NewWSSink creates a sink with no clients.
func NewWSSink(log *logger.Logger) *WSSink {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		log.Debug("ws: client connected from %s", s.Request.RemoteAddr)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		log.Debug("ws: client disconnected from %s", s.Request.RemoteAddr)
	})
	m.HandleError(func(s *melody.Session, err error) {
		log.Warn("ws: %v", err)
	})

	return &WSSink{m: m, log: log}
}

// ServeHTTP upgrades the request and registers the client.
func (w *WSSink) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	floor, err := parsePriority(r.URL.Query().Get("min"))
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	keys := map[string]any{keyMinPriority: floor}
	if err := w.m.HandleRequestWithKeys(rw, r, keys); err != nil {
		w.log.Error("ws: upgrade failed: %v", err)
	}
}

// Send broadcasts n to every client whose filter admits it.
func (w *WSSink) Send(_ context.Context, n domain.Notification) error {
	msg, err := json.Marshal(message{Type: "notification", Data: n})
	if err != nil {
		return fmt.Errorf("encoding notification %s: %w", n.ID, err)
	}
	return w.m.BroadcastFilter(msg, func(s *melody.Session) bool {
		v, ok := s.Get(keyMinPriority)
		if !ok {
			return true
		}
		floor, _ := v.(domain.Priority)
		return n.Priority >= floor
	})
}

// Clients returns the number of connected clients.
func (w *WSSink) Clients() int {
	return w.m.Len()
}

// Close disconnects every client.
func (w *WSSink) Close() error {
	return w.m.Close()
}

func parsePriority(s string) (domain.Priority, error) {
	switch s {
	case "", "low":
		return domain.PriorityLow, nil
	case "medium":
		return domain.PriorityMedium, nil
	case "high":
		return domain.PriorityHigh, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}
