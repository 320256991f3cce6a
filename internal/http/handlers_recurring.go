package http

import (
	"net/http"
)

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req recurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rt, err := req.toRecurring(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateRecurring(r.Context(), rt); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringResponse(rt))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	list, err := s.store.ListRecurring(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]recurringResponse, len(list))
	for i := range list {
		out[i] = toRecurringResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req recurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rt, err := req.toRecurring(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.ID = r.PathValue("id")
	if err := rt.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateRecurring(r.Context(), rt); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(rt))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	if err := s.store.DeleteRecurring(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
