package handlers

import (
	"log/slog"
	"net/http"

	"github.com/taskdocs/agentic-web-ui/internal/models"
)

type homePageData struct {
	User      models.User
	Documents []models.Document
	Session   sessionView
}

// HandleHome renders the assistant page: the document sidebar and the chat panel for the current
// selection. An unauthenticated visitor is sent to the login page.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	token, err := m.tokens.Token()
	if err != nil {
		m.logger.Error("Failed to read stored credential", slog.String(errLoggerKey, err.Error()))
	}
	if token == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := m.gateway.CurrentUser(r.Context())
	if err != nil {
		if m.handleUnauthorized(w, r, err) {
			return
		}
		m.logger.Error("Failed to fetch current user", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "could not reach the service", http.StatusBadGateway)
		return
	}

	if err := m.registry.Refresh(r.Context()); err != nil {
		// The page still renders with the cached list.
		m.logger.Error("Failed to refresh documents", slog.String(errLoggerKey, err.Error()))
	}

	data := homePageData{
		User:      user,
		Documents: m.registry.Documents(),
		Session:   m.sessionView(),
	}
	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
