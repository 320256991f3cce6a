package http

import (
	"log/slog"
	"net/http"

	"github.com/AlynxNeko/sangu/internal/core"
)

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Currency    string `json:"currency"`
	Theme       string `json:"theme"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := &core.UserProfile{
		Email:       sanitizeInput(req.Email),
		DisplayName: sanitizeInput(req.DisplayName),
		Currency:    req.Currency,
		Theme:       req.Theme,
	}
	if err := s.passwords.Register(r.Context(), user, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.passwords.Authenticate(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Currency    string `json:"currency"`
	Theme       string `json:"theme"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.DisplayName != "" {
		user.DisplayName = sanitizeInput(req.DisplayName)
	}
	if req.Currency != "" {
		user.Currency = req.Currency
	}
	if req.Theme != "" {
		user.Theme = req.Theme
	}

	if err := s.store.UpdateUserProfile(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.passwords.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Password changed", "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
