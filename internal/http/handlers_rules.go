package http

import (
	"net/http"

	"github.com/AlynxNeko/sangu/internal/core"
)

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req ruleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rule, err := req.toRule(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.rules.Create(r.Context(), rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleResponse(rule))
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	list, err := s.rules.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]ruleResponse, len(list))
	for i := range list {
		out[i] = toRuleResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	rule, err := s.rules.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req ruleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rule, err := req.toRule(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rule.ID = r.PathValue("id")
	if err := s.rules.Update(r.Context(), rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	if err := s.rules.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateRule(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	id := r.PathValue("id")
	if err := s.rules.Activate(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}

	rule, err := s.rules.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (s *Server) handleGetActiveRule(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	rule, err := s.rules.GetActive(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleResponse(rule))
}

// handlePreviewRule computes the allocation waterfall for a gross income
// figure without persisting anything. An explicit rule_id previews that
// rule; otherwise the active rule is used.
func (s *Server) handlePreviewRule(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req previewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	gross, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.rules.Preview(r.Context(), userID, req.RuleID, gross)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewResponse(result))
}
