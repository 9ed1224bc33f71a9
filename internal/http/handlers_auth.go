package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"cashflow/internal/auth"
	"cashflow/internal/core"
	"cashflow/internal/store"
)

type authPageData struct {
	Error   string
	Success string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// Already signed in? Straight to the dashboard.
	if _, err := s.sessionClaims(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", authPageData{
		Error:   r.URL.Query().Get("error"),
		Success: r.URL.Query().Get("success"),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, "/login", "error", "Invalid request")
		return
	}

	username := sanitizeInput(r.Form.Get("username"))
	password := r.Form.Get("password")
	if username == "" || password == "" {
		redirectWithFlash(w, r, "/login", "error", "Username and password are required")
		return
	}

	user, err := s.backend.UserByUsername(r.Context(), username)
	if errors.Is(err, core.ErrNotFound) {
		redirectWithFlash(w, r, "/login", "error", "Invalid username or password")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "User lookup failed", "username", username, "error", err)
		redirectWithFlash(w, r, "/login", "error", "Something went wrong, try again")
		return
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		slog.WarnContext(r.Context(), "Failed login attempt", "username", username)
		redirectWithFlash(w, r, "/login", "error", "Invalid username or password")
		return
	}

	token, err := s.jwt.Issue(user.ID, user.Username)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token issue failed", "username", username, "error", err)
		redirectWithFlash(w, r, "/login", "error", "Something went wrong, try again")
		return
	}

	s.setSessionCookie(w, token)
	slog.InfoContext(r.Context(), "User logged in", "username", username, "user_id", user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", authPageData{
		Error: r.URL.Query().Get("error"),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, "/register", "error", "Invalid request")
		return
	}

	username := sanitizeInput(r.Form.Get("username"))
	email := sanitizeInput(r.Form.Get("email"))
	fullName := sanitizeInput(r.Form.Get("full_name"))
	password := r.Form.Get("password")

	switch {
	case username == "" || password == "":
		redirectWithFlash(w, r, "/register", "error", "Username and password are required")
		return
	case len(password) < 8:
		redirectWithFlash(w, r, "/register", "error", "Password must be at least 8 characters")
		return
	case email != "" && !strings.Contains(email, "@"):
		redirectWithFlash(w, r, "/register", "error", "Invalid email address")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.ErrorContext(r.Context(), "Password hash failed", "error", err)
		redirectWithFlash(w, r, "/register", "error", "Something went wrong, try again")
		return
	}

	_, err = s.backend.CreateUser(r.Context(), store.User{
		Username: username,
		Email:    email,
		FullName: fullName,
		Password: hash,
	})
	if errors.Is(err, store.ErrUsernameTaken) {
		redirectWithFlash(w, r, "/register", "error", "Username is already taken")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "User creation failed", "username", username, "error", err)
		redirectWithFlash(w, r, "/register", "error", "Something went wrong, try again")
		return
	}

	slog.InfoContext(r.Context(), "User registered", "username", username)
	redirectWithFlash(w, r, "/login", "success", "Account created, you can sign in now")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
