// Package alert turns recalculation outcomes into classified notifications
// and delivers them to a sink, in paced batches when there are many.
package alert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hammamikhairi/hppkit/internal/currency"
	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Thresholds on |Δ%| of an ingredient price or recipe cost.
const (
	HighImpactPercent   = 10.0
	MediumImpactPercent = 5.0

	// RecipeAlertPercent is the per-recipe change that earns its own
	// notification during a high-impact price event.
	RecipeAlertPercent = 5.0
)

// Option configures the service.
type Option func(*Service)

// WithFormatter sets the currency formatter used in message text.
func WithFormatter(f currency.Formatter) Option {
	return func(s *Service) {
		s.format = f
	}
}

// WithBatchSize sets the default SendBulk batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchPause sets the minimum pause between bulk batches.
func WithBatchPause(d time.Duration) Option {
	return func(s *Service) {
		s.batchPause = d
	}
}

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDFunc sets the notification id generator.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// Service builds notifications and hands them to a sink.
type Service struct {
	sink       domain.NotificationSink
	log        *logger.Logger
	format     currency.Formatter
	batchSize  int
	batchPause time.Duration
	now        func() time.Time
	newID      func() string
}

// New creates an alerting service delivering to sink.
func New(sink domain.NotificationSink, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		sink:       sink,
		log:        log,
		format:     currency.IDR,
		batchSize:  10,
		batchPause: time.Second,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClassifyPriceChange grades an ingredient price move by |Δ%|.
func ClassifyPriceChange(changePercent float64) domain.ImpactLevel {
	abs := math.Abs(changePercent)
	switch {
	case abs > HighImpactPercent:
		return domain.ImpactHigh
	case abs > MediumImpactPercent:
		return domain.ImpactMedium
	default:
		return domain.ImpactLow
	}
}

// PriorityFor maps an impact level to a notification priority.
func PriorityFor(level domain.ImpactLevel) domain.Priority {
	if level == domain.ImpactHigh {
		return domain.PriorityHigh
	}
	return domain.PriorityMedium
}

// OnPriceChange reports an ingredient price move. It always emits one
// aggregate notification; on high impact it adds one per recipe whose own
// cost per serving moved more than RecipeAlertPercent.
func (s *Service) OnPriceChange(ctx context.Context, ingredientID, ingredientName string, oldPrice, newPrice float64, affected []domain.RecalculationResult) ([]domain.Notification, error) {
	if ingredientName == "" {
		ingredientName = ingredientID
	}
	pct := domain.PercentChange(oldPrice, newPrice)
	impact := ClassifyPriceChange(pct)
	priority := PriorityFor(impact)

	aggregate, err := s.build(domain.CategoryPriceChange, priority,
		priceTitle(ingredientName, pct),
		s.priceMessage(ingredientName, oldPrice, newPrice, pct, len(affected)),
		domain.PriceChangePayload{
			PriceChange: domain.PriceChange{
				IngredientID:  ingredientID,
				OldPrice:      oldPrice,
				NewPrice:      newPrice,
				ChangePercent: pct,
			},
			Impact:          impact,
			AffectedRecipes: len(affected),
		})
	if err != nil {
		return nil, err
	}
	aggregate.ActionRef = "/ingredients/" + ingredientID
	out := []domain.Notification{aggregate}

	if impact == domain.ImpactHigh {
		for _, r := range affected {
			if math.Abs(r.ChangePercent) <= RecipeAlertPercent {
				continue
			}
			n, err := s.build(domain.CategoryRecipeImpact, PriorityFor(r.Impact),
				fmt.Sprintf("%s cost changed %+.1f%%", r.RecipeName, r.ChangePercent),
				fmt.Sprintf("%s: cost per serving %s -> %s (%s). Review the selling price.",
					r.RecipeName, s.format(r.OldCostPerServing), s.format(r.NewCostPerServing), s.signed(r.Change)),
				domain.RecipeImpactPayload{IngredientID: ingredientID, Result: r})
			if err != nil {
				return nil, err
			}
			n.ActionRef = "/recipes/" + r.RecipeID + "/cost"
			out = append(out, n)
		}
	}

	s.log.Info("alert: price change %s %.1f%% (%s), %d notifications", ingredientID, pct, impact, len(out))
	return out, s.deliver(ctx, out)
}

// OnCostChange reports an operational cost edit.
func (s *Service) OnCostChange(ctx context.Context, costID, name string, oldAmount, newAmount float64, autoAllocated bool) (domain.Notification, error) {
	if name == "" {
		name = costID
	}
	msg := fmt.Sprintf("%s changed from %s to %s.", name, s.format(oldAmount), s.format(newAmount))
	if autoAllocated {
		msg += " All recipe costs are being recalculated."
	} else {
		msg += " Recipe costs were not recalculated automatically."
	}

	n, err := s.build(domain.CategoryCostChange, domain.PriorityMedium,
		fmt.Sprintf("Operational cost updated: %s", name), msg,
		domain.CostChangePayload{CostID: costID, Name: name, OldAmount: oldAmount, NewAmount: newAmount, AutoAllocated: autoAllocated})
	if err != nil {
		return domain.Notification{}, err
	}
	n.ActionRef = "/operational-costs/" + costID
	return n, s.deliver(ctx, []domain.Notification{n})
}

// OnBatchRecalculation reports the outcome of a batch recomputation.
func (s *Service) OnBatchRecalculation(ctx context.Context, reason string, processed, total int) (domain.Notification, error) {
	title := "Recipe costs recalculated"
	msg := fmt.Sprintf("%d of %d recipes recalculated (%s).", processed, total, reason)
	if processed < total {
		title = "Recipe cost recalculation incomplete"
		msg += fmt.Sprintf(" %d recipes failed and keep their previous cost.", total-processed)
	}

	n, err := s.build(domain.CategoryBatch, domain.PriorityMedium, title, msg,
		domain.BatchPayload{Reason: reason, Processed: processed, Total: total})
	if err != nil {
		return domain.Notification{}, err
	}
	return n, s.deliver(ctx, []domain.Notification{n})
}

// OnSystemHealth reports an engine health condition.
func (s *Service) OnSystemHealth(ctx context.Context, level domain.HealthLevel, title, message string) (domain.Notification, error) {
	priority := domain.PriorityLow
	switch level {
	case domain.HealthWarning:
		priority = domain.PriorityMedium
	case domain.HealthCritical:
		priority = domain.PriorityHigh
	}

	n, err := s.build(domain.CategorySystemHealth, priority, title, message, domain.HealthPayload{Level: level})
	if err != nil {
		return domain.Notification{}, err
	}
	return n, s.deliver(ctx, []domain.Notification{n})
}

// OnDrift reports a historical cost drift.
func (s *Service) OnDrift(ctx context.Context, d domain.DriftAlert) (domain.Notification, error) {
	priority := domain.PriorityMedium
	if d.Severity == domain.DriftHigh || d.Severity == domain.DriftCritical {
		priority = domain.PriorityHigh
	}

	n, err := s.build(domain.CategoryCostDrift, priority,
		fmt.Sprintf("%s cost drifted %+.1f%%", d.RecipeName, d.ChangePercent),
		fmt.Sprintf("%s: cost per serving moved from %s to %s since the previous snapshot (%s).",
			d.RecipeName, s.format(d.Previous), s.format(d.Current), d.Severity),
		domain.DriftPayload{Drift: d})
	if err != nil {
		return domain.Notification{}, err
	}
	n.ActionRef = "/recipes/" + d.RecipeID + "/snapshots"
	return n, s.deliver(ctx, []domain.Notification{n})
}

// BulkResult summarizes a SendBulk call.
type BulkResult struct {
	Batches int `json:"batches"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// SendBulk delivers notifications in batches of batchSize (the service
// default when batchSize <= 0), pausing between batches. A failed batch is
// counted and skipped; later batches still go out.
func (s *Service) SendBulk(ctx context.Context, ns []domain.Notification, batchSize int) (BulkResult, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	var limiter *rate.Limiter
	if s.batchPause > 0 {
		limiter = rate.NewLimiter(rate.Every(s.batchPause), 1)
	}

	var res BulkResult
	for start := 0; start < len(ns); start += batchSize {
		end := min(start+batchSize, len(ns))
		batch := ns[start:end]

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				res.Failed += len(ns) - start
				return res, fmt.Errorf("bulk send interrupted after %d batches: %w", res.Batches, err)
			}
		}
		res.Batches++

		if err := s.sendBatch(ctx, batch); err != nil {
			s.log.Error("alert: batch %d (%d notifications) failed: %v", res.Batches, len(batch), err)
			res.Failed += len(batch)
			continue
		}
		res.Sent += len(batch)
	}

	s.log.Debug("alert: bulk send done, %d sent, %d failed in %d batches", res.Sent, res.Failed, res.Batches)
	return res, nil
}

func (s *Service) sendBatch(ctx context.Context, batch []domain.Notification) error {
	if bs, ok := s.sink.(domain.BatchSink); ok {
		return bs.SendBatch(ctx, batch)
	}
	var errs []error
	for _, n := range batch {
		if err := s.sink.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deliver sends small notification sets straight through; larger ones go
// through SendBulk so the sink is never flooded.
func (s *Service) deliver(ctx context.Context, ns []domain.Notification) error {
	if len(ns) > s.batchSize {
		res, err := s.SendBulk(ctx, ns, s.batchSize)
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d of %d notifications not delivered", res.Failed, len(ns))
		}
		return nil
	}
	if err := s.sendBatch(ctx, ns); err != nil {
		return fmt.Errorf("delivering notifications: %w", err)
	}
	return nil
}

func (s *Service) build(category domain.NotificationCategory, priority domain.Priority, title, message string, payload domain.Payload) (domain.Notification, error) {
	return domain.NewNotification(s.newID(), category, priority, title, message, payload, s.now())
}

func (s *Service) signed(v float64) string {
	if v >= 0 {
		return "+" + s.format(v)
	}
	return s.format(v)
}

func (s *Service) priceMessage(name string, oldPrice, newPrice, pct float64, affected int) string {
	verb := "rose"
	if newPrice < oldPrice {
		verb = "fell"
	}
	return fmt.Sprintf("%s %s from %s to %s (%+.1f%%). %d recipes were recalculated.",
		name, verb, s.format(oldPrice), s.format(newPrice), currency.Round2(pct), affected)
}

func priceTitle(name string, pct float64) string {
	return fmt.Sprintf("Price change: %s %+.1f%%", name, pct)
}
