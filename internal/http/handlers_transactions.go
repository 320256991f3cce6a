package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/metrics"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := req.toTransaction(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := t.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.transactions.Create(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}

	metrics.TransactionsCreated.WithLabelValues(string(t.Type)).Inc()
	s.invalidateMonth(userID, t.Date)

	// Budget alerts are best-effort and must not delay the response.
	if t.Type == core.TypeExpense {
		go s.checkBudgetThresholds(context.WithoutCancel(r.Context()), userID)
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) checkBudgetThresholds(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.budgets.CheckThresholds(ctx, userID, time.Now()); err != nil {
		slog.WarnContext(ctx, "Budget threshold check failed", "error", err, "user_id", userID)
	}
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	t, err := s.transactions.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

// handleListTransactions serves either an explicit from/to range or a
// year/month window (current month by default). Only the month form is
// cached.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	q := r.URL.Query()

	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := time.Parse(dateLayout, q.Get("from"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		to, err := time.Parse(dateLayout, q.Get("to"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		items, err := s.transactions.List(r.Context(), userID, from, to.AddDate(0, 0, 1))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponses(items))
		return
	}

	year, month, ok := yearMonthParams(q.Get("year"), q.Get("month"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid year or month")
		return
	}
	items, err := s.monthTransactions(r.Context(), userID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(items))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Split != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "split details cannot be changed after creation")
		return
	}

	existing, err := s.transactions.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := req.toTransaction(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = existing.ID
	t.IsSplit = existing.IsSplit
	t.Split = existing.Split
	t.CreatedAt = existing.CreatedAt
	if err := t.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.transactions.Update(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}

	// The transaction may have moved between months.
	s.invalidateMonth(userID, existing.Date)
	s.invalidateMonth(userID, t.Date)
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	id := r.PathValue("id")

	existing, err := s.transactions.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateMonth(userID, existing.Date)
	w.WriteHeader(http.StatusNoContent)
}

type participantPaidRequest struct {
	Paid bool `json:"paid"`
}

func (s *Server) handleMarkParticipantPaid(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req participantPaidRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date, err := s.transactions.MarkParticipantPaid(r.Context(), userID, r.PathValue("id"), req.Paid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateMonth(userID, date)
	writeJSON(w, http.StatusOK, map[string]bool{"paid": req.Paid})
}

// yearMonthParams parses optional year/month query values, defaulting to
// the current month.
func yearMonthParams(yearStr, monthStr string) (int, int, bool) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil || y < 1970 || y > 9999 {
			return 0, 0, false
		}
		year = y
	}
	if monthStr != "" {
		m, err := strconv.Atoi(monthStr)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, false
		}
		month = m
	}
	return year, month, true
}
