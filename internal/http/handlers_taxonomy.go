package http

import (
	"net/http"

	"github.com/AlynxNeko/sangu/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c := &core.Category{
		UserID:   userID,
		Name:     sanitizeInput(req.Name),
		Type:     core.EntryType(req.Type),
		Icon:     req.Icon,
		Color:    req.Color,
		IsCustom: true,
	}
	if err := c.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.CreateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	list, err := s.store.ListCategories(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, len(list))
	for i := range list {
		out[i] = toCategoryResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := s.store.GetCategory(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.Name = sanitizeInput(req.Name)
	c.Type = core.EntryType(req.Type)
	c.Icon = req.Icon
	c.Color = req.Color
	if err := c.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	if err := s.store.DeleteCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req paymentMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m := &core.PaymentMethod{
		UserID:   userID,
		Name:     sanitizeInput(req.Name),
		Type:     core.MethodType(req.Type),
		IsActive: true,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := m.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.CreatePaymentMethod(r.Context(), m); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentMethodResponse(m))
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	list, err := s.store.ListPaymentMethods(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]paymentMethodResponse, len(list))
	for i := range list {
		out[i] = toPaymentMethodResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req paymentMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := s.store.GetPaymentMethod(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	m.Name = sanitizeInput(req.Name)
	m.Type = core.MethodType(req.Type)
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := m.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdatePaymentMethod(r.Context(), m); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentMethodResponse(m))
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	if err := s.store.DeletePaymentMethod(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
