package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taskdocs/agentic-web-ui/internal/models"
)

type authPageData struct {
	Error string
}

// HandleLogin renders the login form and, on POST, exchanges the credentials for a bearer token
// which becomes the stored credential.
func (m Main) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		m.renderAuthPage(w, "login.html", "")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, err := m.gateway.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		m.logger.Error("Login failed", slog.String(errLoggerKey, err.Error()))
		m.renderAuthPage(w, "login.html", "sign in failed, check your credentials")
		return
	}
	if err := m.tokens.SetToken(token); err != nil {
		m.logger.Error("Failed to store credential", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "could not store credential", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRegister renders the registration form and, on POST, creates the account and signs the
// user in with the token the service issues.
func (m Main) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		m.renderAuthPage(w, "register.html", "")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, err := m.gateway.Register(r.Context(), models.UserCreate{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	})
	if err != nil {
		m.logger.Error("Registration failed", slog.String(errLoggerKey, err.Error()))
		m.renderAuthPage(w, "register.html", "registration failed")
		return
	}
	if err := m.tokens.SetToken(token); err != nil {
		m.logger.Error("Failed to store credential", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "could not store credential", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout tears the session context down: the stored credential is discarded and the active
// document session cleared.
func (m Main) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := m.tokens.ClearToken(); err != nil {
		m.logger.Error("Failed to clear stored credential", slog.String(errLoggerKey, err.Error()))
	}
	_ = m.session.SelectDocument(context.Background(), "")

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (m Main) renderAuthPage(w http.ResponseWriter, page, errMsg string) {
	if err := m.templates.ExecuteTemplate(w, page, authPageData{Error: errMsg}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
