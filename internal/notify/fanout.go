package notify

import (
	"context"
	"errors"

	"github.com/hammamikhairi/hppkit/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.NotificationSink = Fanout(nil)
	_ domain.BatchSink        = Fanout(nil)
)

// Fanout delivers to every sink in order. One sink failing does not stop
// delivery to the rest; the errors are joined.
type Fanout []domain.NotificationSink

// Send delivers n to every sink.
func (f Fanout) Send(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, s := range f {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendBatch delivers ns to every sink, as one batch where the sink
// supports it.
func (f Fanout) SendBatch(ctx context.Context, ns []domain.Notification) error {
	var errs []error
	for _, s := range f {
		if bs, ok := s.(domain.BatchSink); ok {
			if err := bs.SendBatch(ctx, ns); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, n := range ns {
			if err := s.Send(ctx, n); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
