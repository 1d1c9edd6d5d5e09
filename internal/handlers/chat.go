package handlers

import (
	"log/slog"
	"net/http"
)

// HandleAsk submits a question about the selected document. The request goroutine carries the
// in-flight ask: the pending bubble is broadcast over SSE the moment it is appended, and the
// response body carries the final chat panel once the answer lands (or the rollback happens).
// Overlapping submissions and blank questions are no-ops in the session manager; the handler only
// rejects requests that are malformed at the HTTP level.
func (m Main) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	question := r.FormValue("message")
	if question == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	if err := m.session.Ask(r.Context(), question); err != nil {
		if m.handleUnauthorized(w, r, err) {
			return
		}
		// The placeholder has been rolled back and the error recorded on the session; the panel
		// below shows it.
		m.logger.Error("Ask failed", slog.String(errLoggerKey, err.Error()))
	}

	if err := m.templates.ExecuteTemplate(w, "chat_panel", m.sessionView()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
