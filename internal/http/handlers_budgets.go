package http

import (
	"net/http"
	"time"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := req.toBudget(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := b.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.budgets.Create(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCurrentMonth(userID)
	writeJSON(w, http.StatusCreated, toBudgetResponse(b))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	list, err := s.budgets.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, len(list))
	for i := range list {
		out[i] = toBudgetResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := req.toBudget(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = r.PathValue("id")
	if err := b.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.budgets.Update(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCurrentMonth(userID)
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	if err := s.budgets.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCurrentMonth(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	progress, err := s.budgets.Progress(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetProgressResponses(progress))
}
