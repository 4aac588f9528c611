package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/engine"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"monitoring": s.eng.MonitorStatus().Active,
	})
}

func (s *Server) handleComputeCost(w http.ResponseWriter, r *http.Request) {
	b, err := s.eng.ComputeCost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCachedCost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, ok := s.eng.GetCached(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cached cost for " + id})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 20)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snaps, err := s.eng.Snapshots(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleDrift(w http.ResponseWriter, r *http.Request) {
	d, err := s.eng.Drift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drift": d != nil, "alert": d})
}

type priceRequest struct {
	OldPrice *float64 `json:"old_price"`
	NewPrice *float64 `json:"new_price"`
}

// handlePriceChange takes old_price from the body when given; otherwise the
// engine works it out from the provider or the price history.
func (s *Server) handlePriceChange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.NewPrice == nil {
		s.writeError(w, domain.Invalid("new_price", "is required"))
		return
	}

	var (
		report *engine.PriceChangeReport
		err    error
	)
	if req.OldPrice != nil {
		report, err = s.eng.OnIngredientPriceChange(r.Context(), id, *req.OldPrice, *req.NewPrice)
	} else {
		report, err = s.eng.UpdateIngredientPrice(r.Context(), id, *req.NewPrice)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.PriceHistory(chi.URLParam(r, "id")))
}

func (s *Server) handleListCosts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.ListOperationalCosts())
}

type costRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleUpdateCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.eng.OnOperationalCostChange(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleToggleAuto(w http.ResponseWriter, r *http.Request) {
	item, err := s.eng.ToggleAutoAllocate(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleRecalculateAll(w http.ResponseWriter, r *http.Request) {
	summary, err := s.eng.RecalculateAll(r.Context(), "manual")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.CacheStats())
}

func (s *Server) handleMonitorStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.MonitorStatus())
}

func (s *Server) handleForceCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.ForceCheck(r.Context()))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 50)
	if err != nil {
		s.writeError(w, err)
		return
	}
	unread := r.URL.Query().Get("unread") == "true"
	writeJSON(w, http.StatusOK, map[string]any{
		"unread_count":  s.inbox.UnreadCount(),
		"notifications": s.inbox.List(unread, limit),
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox.MarkRead(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"marked": s.inbox.MarkAllRead()})
}
