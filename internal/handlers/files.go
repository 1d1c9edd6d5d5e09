package handlers

import (
	"log/slog"
	"net/http"

	"github.com/taskdocs/agentic-web-ui/internal/session"
)

// HandleSelect switches the active session to the posted document id. An empty id deselects.
func (m Main) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := m.session.SelectDocument(r.Context(), r.FormValue("file_id")); err != nil {
		if m.handleUnauthorized(w, r, err) {
			return
		}
		// The session manager has already recorded the user-facing error; the page shows it.
		m.logger.Error("Select failed", slog.String(errLoggerKey, err.Error()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleUpload accepts a multipart upload, runs it through the session manager (which applies the
// local policy before any network call), and returns to the home page. The new document becomes
// the active selection on success.
func (m Main) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(session.MaxUploadSize + 1); err != nil {
		http.Error(w, "could not parse upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "a file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mediaType := header.Header.Get("Content-Type")
	if _, uploadErr := m.session.UploadDocument(r.Context(), header.Filename, mediaType, header.Size, file); uploadErr != nil {
		if m.handleUnauthorized(w, r, uploadErr) {
			return
		}
		m.logger.Error("Upload failed",
			slog.String("filename", header.Filename),
			slog.String(errLoggerKey, uploadErr.Error()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleDelete removes the posted document id. Deleting the selected document clears the session.
func (m Main) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("file_id")
	if id == "" {
		http.Error(w, "file_id is required", http.StatusBadRequest)
		return
	}

	if err := m.session.DeleteDocument(r.Context(), id); err != nil {
		if m.handleUnauthorized(w, r, err) {
			return
		}
		m.logger.Error("Delete failed",
			slog.String("documentID", id),
			slog.String(errLoggerKey, err.Error()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
