package http

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/metrics"
)

// handleDashboard serves the month overview: totals, daily series, and
// budget progress. Results are cached per user and month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	year, month, ok := yearMonthParams(r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	key := monthCacheKey(userID, year, month)
	if cached, found := s.dashboardCache.Get(key); found {
		metrics.CacheHits.WithLabelValues("dashboard", "hit").Inc()
		writeJSON(w, http.StatusOK, cached)
		return
	}
	metrics.CacheHits.WithLabelValues("dashboard", "miss").Inc()

	var (
		transactions []core.Transaction
		budgets      []core.Budget
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		transactions, err = s.monthTransactions(ctx, userID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.budgets.List(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	summary := core.Summarize(transactions, summaryClock(year, month))
	progress := core.ProgressFor(budgets, transactions)

	resp := toDashboardResponse(summary, progress)
	s.dashboardCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// summaryClock picks the reference time for the daily series: today for
// the current month, the month's last day for past months.
func summaryClock(year, month int) time.Time {
	now := time.Now()
	if now.Year() == year && int(now.Month()) == month {
		return now
	}
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}
