package engine

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/hppkit/internal/domain"
)

// CostChangeReport is the outcome of an operational cost edit.
type CostChangeReport struct {
	CostID        string                `json:"cost_id"`
	Name          string                `json:"name"`
	OldAmount     float64               `json:"old_amount"`
	NewAmount     float64               `json:"new_amount"`
	AutoAllocated bool                  `json:"auto_allocated"`
	Changed       bool                  `json:"changed"`
	Summary       *domain.BatchSummary  `json:"summary,omitempty"`
	Notifications []domain.Notification `json:"notifications"`
}

// OnOperationalCostChange updates a cost item. When the item auto-allocates,
// every recipe is recomputed and a batch notification follows the change
// notification; otherwise only the change is reported. Setting the amount
// it already has does nothing.
func (e *Engine) OnOperationalCostChange(ctx context.Context, costID string, amount float64) (*CostChangeReport, error) {
	e.mu.Lock()
	change, err := e.registry.Update(costID, amount)
	if err == nil {
		e.lastCosts[costID] = amount
	}
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if !change.Changed() {
		e.log.Debug("operational cost %s unchanged at %.2f", costID, amount)
		return &CostChangeReport{
			CostID:        costID,
			Name:          change.Item.Name,
			OldAmount:     change.OldAmount,
			NewAmount:     change.NewAmount,
			AutoAllocated: change.Item.AutoAllocate,
		}, nil
	}

	report := e.reportCostChange(ctx, change.Item, change.OldAmount, change.NewAmount)
	if change.Item.AutoAllocate {
		e.recalculateAfterCosts(ctx, fmt.Sprintf("%s changed", change.Item.Name), report)
	}
	return report, nil
}

// reportCostChange emits the change notification for one item.
func (e *Engine) reportCostChange(ctx context.Context, item domain.OperationalCost, oldAmount, newAmount float64) *CostChangeReport {
	report := &CostChangeReport{
		CostID:        item.ID,
		Name:          item.Name,
		OldAmount:     oldAmount,
		NewAmount:     newAmount,
		AutoAllocated: item.AutoAllocate,
		Changed:       true,
	}
	n, err := e.alerts.OnCostChange(ctx, item.ID, item.Name, oldAmount, newAmount, item.AutoAllocate)
	if err != nil {
		e.log.Error("cost change alert for %s: %v", item.ID, err)
	} else {
		report.Notifications = append(report.Notifications, n)
	}
	return report
}

// recalculateAfterCosts recomputes every recipe and reports the batch on
// report.
func (e *Engine) recalculateAfterCosts(ctx context.Context, reason string, report *CostChangeReport) {
	summary, err := e.RecalculateAll(ctx, reason)
	if err != nil {
		e.log.Error("recalculating after %s: %v", reason, err)
		if _, herr := e.alerts.OnSystemHealth(ctx, domain.HealthWarning, "Recipe costs not recalculated",
			fmt.Sprintf("Recalculation after %s failed: %v", reason, err)); herr != nil {
			e.log.Error("health alert: %v", herr)
		}
		return
	}
	report.Summary = &summary

	n, err := e.alerts.OnBatchRecalculation(ctx, reason, summary.Processed, summary.Total)
	if err != nil {
		e.log.Error("batch alert: %v", err)
		return
	}
	report.Notifications = append(report.Notifications, n)
}
