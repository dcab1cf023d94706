package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/ui"
	"github.com/templui/spaces/internal/ui/pages"
	"github.com/templui/spaces/internal/validation"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{authService: authService}
}

func (h *authHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Login(pages.LoginPage{Layout: layout(w, r, "Sign in")}))
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	page := pages.LoginPage{Layout: layout(w, r, "Sign in"), Email: email}

	if email == "" || password == "" {
		page.Error = "Email and password are required"
		ui.Render(w, r, pages.Login(page))
		return
	}

	err := validation.ValidateEmail(email)
	if err != nil {
		page.Error = "Please provide a valid email address"
		ui.Render(w, r, pages.Login(page))
		return
	}

	user, err := h.authService.Login(email, password)
	if err != nil {
		slog.Warn("password login failed", "error", err, "email", email)
		page.Error = "Invalid email or password"
		ui.Render(w, r, pages.Login(page))
		return
	}

	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		page.Error = "An error occurred. Please try again."
		ui.Render(w, r, pages.Login(page))
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, h.authService.Expiry())

	slog.Info("user logged in with password", "user_id", user.ID, "email", user.Email)
	http.Redirect(w, r, "/spaces", http.StatusSeeOther)
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
