package http

import (
	"net/http"
)

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := req.toGoal(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := g.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateGoal(r.Context(), g); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(g))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	list, err := s.store.ListGoals(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalResponse, len(list))
	for i := range list {
		out[i] = toGoalResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := req.toGoal(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g.ID = r.PathValue("id")
	if err := g.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateGoal(r.Context(), g); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	if err := s.store.DeleteGoal(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"

	list, err := s.store.ListNotifications(r.Context(), userID, unreadOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]notificationResponse, len(list))
	for i := range list {
		out[i] = toNotificationResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	if err := s.store.MarkNotificationRead(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	if err := s.store.MarkAllNotificationsRead(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
