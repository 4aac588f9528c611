// Package notify provides notification sinks: a bounded in-memory inbox, a
// WebSocket broadcaster, and a fanout over several sinks.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.NotificationSink = (*Inbox)(nil)
	_ domain.BatchSink        = (*Inbox)(nil)
)

// DefaultInboxSize is how many notifications an Inbox keeps.
const DefaultInboxSize = 200

// Inbox keeps the most recent notifications for a dashboard to page
// through. Safe for concurrent use.
type Inbox struct {
	mu    sync.RWMutex
	items []domain.Notification // oldest first
	size  int
	log   *logger.Logger
}

// NewInbox creates an inbox keeping at most size notifications
// (DefaultInboxSize when size <= 0).
func NewInbox(log *logger.Logger, size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{size: size, log: log}
}

// Send stores n, evicting the oldest notification when full.
func (in *Inbox) Send(_ context.Context, n domain.Notification) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.push(n)
	return nil
}

// SendBatch stores every notification in ns.
func (in *Inbox) SendBatch(_ context.Context, ns []domain.Notification) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, n := range ns {
		in.push(n)
	}
	return nil
}

func (in *Inbox) push(n domain.Notification) {
	in.items = append(in.items, n)
	if over := len(in.items) - in.size; over > 0 {
		in.items = append([]domain.Notification(nil), in.items[over:]...)
	}
	in.log.Debug("inbox: %s", n)
}

// List returns up to limit notifications, newest first. limit <= 0 means
// all of them.
func (in *Inbox) List(unreadOnly bool, limit int) []domain.Notification {
	in.mu.RLock()
	defer in.mu.RUnlock()

	var out []domain.Notification
	for i := len(in.items) - 1; i >= 0; i-- {
		n := in.items[i]
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// MarkRead flags one notification as read.
func (in *Inbox) MarkRead(id string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i := range in.items {
		if in.items[i].ID == id {
			in.items[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
}

// MarkAllRead flags everything as read and returns how many changed.
func (in *Inbox) MarkAllRead() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	n := 0
	for i := range in.items {
		if !in.items[i].Read {
			in.items[i].Read = true
			n++
		}
	}
	return n
}

// UnreadCount returns the number of unread notifications.
func (in *Inbox) UnreadCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()

	n := 0
	for _, item := range in.items {
		if !item.Read {
			n++
		}
	}
	return n
}
