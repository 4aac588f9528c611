package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kr/text"

	"github.com/hammamikhairi/hppkit/internal/domain"
)

// Compile-time interface check.
var _ domain.NotificationSink = (*TerminalSink)(nil)

// TerminalSink prints notifications as styled lines. Safe for concurrent
// use; lines from different notifications never interleave.
type TerminalSink struct {
	mu    sync.Mutex
	out   io.Writer
	width int
}

// NewTerminalSink writes to out, wrapping messages at width columns.
func NewTerminalSink(out io.Writer, width int) *TerminalSink {
	if width <= 20 {
		width = 80
	}
	return &TerminalSink{out: out, width: width}
}

// Send prints n.
func (t *TerminalSink) Send(_ context.Context, n domain.Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	style, ok := priorityStyles[n.Priority.String()]
	if !ok {
		style = primaryStyle
	}
	tag := style.Render(fmt.Sprintf("[%s]", strings.ToUpper(n.Priority.String())))

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", secondaryStyle.Render(n.CreatedAt.Format("15:04:05")), tag, primaryStyle.Render(n.Title))
	if n.Message != "" {
		body := text.Indent(text.Wrap(n.Message, t.width-4), "    ")
		b.WriteString(secondaryStyle.Render(body))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(t.out, b.String())
	return err
}
