package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taskdocs/agentic-web-ui/internal/gateway"
	"github.com/taskdocs/agentic-web-ui/internal/models"
)

// State identifies the lifecycle phase of the active document session.
type State string

const (
	// StateEmpty means no document is selected.
	StateEmpty State = "empty"
	// StateLoading means a history fetch is in flight after a selection.
	StateLoading State = "loading"
	// StateReady means history is loaded and no question is in flight.
	StateReady State = "ready"
	// StateAsking means a question is in flight.
	StateAsking State = "asking"
)

// Gateway is the slice of the remote API the session manager drives.
type Gateway interface {
	Upload(ctx context.Context, filename, mediaType string, content io.Reader) (models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	FetchHistory(ctx context.Context, id string) ([]models.ChatMessage, error)
	Ask(ctx context.Context, id, question string) (models.ChatMessage, error)
}

// Manager owns the active document selection and its message history. All transitions run under
// one mutex which is released across network calls, so state changes are atomic and interleaving
// happens only at I/O boundaries. Every in-flight call captures the selection's document id and a
// generation counter; a result is applied only if both still match when it lands, otherwise it is
// dropped. That pair of tags is the sole defense against a stale response mutating a session the
// user has already moved away from.
type Manager struct {
	gateway  Gateway
	registry *Registry
	logger   *slog.Logger

	mu         sync.Mutex
	state      State
	selected   string
	generation uint64
	history    []models.ChatMessage
	lastErr    string

	onChange func()
}

// Snapshot is a consistent copy of the session state for rendering.
type Snapshot struct {
	State    State
	Selected string
	History  []models.ChatMessage
	LastErr  string
}

// NewManager creates a session manager in the Empty state.
func NewManager(gw Gateway, registry *Registry, logger *slog.Logger) *Manager {
	return &Manager{
		gateway:  gw,
		registry: registry,
		logger:   logger.With(slog.String("module", "session")),
		state:    StateEmpty,
	}
}

// SetOnChange registers a hook fired after every state transition, outside the manager's lock.
// The view layer uses it to push re-renders.
func (m *Manager) SetOnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Manager) notify() {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// clearLocked resets the session to Empty and invalidates every outstanding in-flight call by
// bumping the generation. Callers hold m.mu.
func (m *Manager) clearLocked() {
	m.generation++
	m.state = StateEmpty
	m.selected = ""
	m.history = nil
	m.lastErr = ""
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]models.ChatMessage, len(m.history))
	copy(history, m.history)
	return Snapshot{
		State:    m.state,
		Selected: m.selected,
		History:  history,
		LastErr:  m.lastErr,
	}
}

// SelectDocument switches the active session to the document with the given id and fetches its
// history fresh from the service; history is never carried over from a previous selection. An
// empty id deselects. An id the registry does not list clears the session and reports a local
// error. If the fetch fails the session ends up Empty rather than half-initialized. A selection
// made while an earlier fetch or ask is still in flight supersedes it: the stale result is
// dropped when it lands.
func (m *Manager) SelectDocument(ctx context.Context, id string) error {
	m.mu.Lock()
	if id == "" {
		m.clearLocked()
		m.mu.Unlock()
		m.notify()
		return nil
	}
	if !m.registry.Contains(id) {
		m.clearLocked()
		m.lastErr = "that document is no longer available"
		m.mu.Unlock()
		m.notify()
		return errors.New("unknown document id: " + id)
	}

	m.generation++
	gen := m.generation
	m.state = StateLoading
	m.selected = id
	m.history = nil
	m.lastErr = ""
	m.mu.Unlock()
	m.notify()

	history, err := m.gateway.FetchHistory(ctx, id)

	m.mu.Lock()
	if m.generation != gen {
		// A newer selection or a delete superseded this fetch.
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.logger.Error("Failed to fetch history",
			slog.String("documentID", id),
			slog.String("err", err.Error()))
		m.clearLocked()
		m.lastErr = "could not load the conversation for this document"
		m.mu.Unlock()
		m.notify()
		return err
	}

	m.history = history
	m.state = StateReady
	m.mu.Unlock()
	m.notify()
	return nil
}

// Ask submits a question about the selected document. A placeholder message is appended
// immediately with the submission time, then replaced in place by the service's answer so one
// submission always yields exactly one history entry. On failure the placeholder is rolled back
// and a user-facing error recorded; the text is not resubmitted automatically. Submitting while a
// question is already in flight, while no document is selected, or with a blank question is a
// no-op.
func (m *Manager) Ask(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)

	m.mu.Lock()
	if question == "" || m.state != StateReady {
		m.mu.Unlock()
		return nil
	}

	m.history = append(m.history, models.ChatMessage{
		Question:  question,
		AgentType: models.AgentTypeUser,
		Timestamp: time.Now(),
		State:     models.MessageStatePending,
	})
	m.state = StateAsking
	m.lastErr = ""
	gen := m.generation
	doc := m.selected
	m.mu.Unlock()
	m.notify()

	answer, err := m.gateway.Ask(ctx, doc, question)

	m.mu.Lock()
	if m.generation != gen || m.selected != doc {
		// The session moved on while the answer was in flight; applying it now would write into
		// another document's history. Drop it.
		m.logger.Debug("Dropping stale ask resolution", slog.String("documentID", doc))
		m.mu.Unlock()
		return nil
	}

	if err != nil {
		if n := len(m.history); n > 0 && m.history[n-1].Pending() {
			m.history = m.history[:n-1]
		}
		m.state = StateReady
		m.lastErr = userMessage(err)
		m.logger.Error("Ask failed",
			slog.String("documentID", doc),
			slog.String("err", err.Error()))
		m.mu.Unlock()
		m.notify()
		return err
	}

	m.history[len(m.history)-1] = answer
	m.state = StateReady
	m.mu.Unlock()
	m.notify()
	return nil
}

// UploadDocument validates the candidate locally, uploads it, refreshes the registry and selects
// the new document. A validation rejection surfaces as the session error and performs no network
// call; a rejection from the service is treated the same way.
func (m *Manager) UploadDocument(ctx context.Context, filename, mediaType string, size int64, content io.Reader) (models.Document, error) {
	if err := ValidateUpload(filename, mediaType, size); err != nil {
		m.setError(err.Error())
		return models.Document{}, err
	}

	doc, err := m.gateway.Upload(ctx, filename, mediaType, content)
	if err != nil {
		m.logger.Error("Upload failed",
			slog.String("filename", filename),
			slog.String("err", err.Error()))
		m.setError(userMessage(err))
		return models.Document{}, err
	}

	if err := m.registry.Refresh(ctx); err != nil {
		m.logger.Error("Failed to refresh documents after upload", slog.String("err", err.Error()))
	}
	if err := m.SelectDocument(ctx, doc.ID); err != nil {
		return doc, err
	}
	return doc, nil
}

// DeleteDocument removes the document and refreshes the registry. If the deleted document is the
// current selection the session is forced to Empty, which also invalidates any in-flight ask for
// it. A rejection for an id the registry already no longer lists is swallowed: the document is
// gone either way.
func (m *Manager) DeleteDocument(ctx context.Context, id string) error {
	knownLocally := m.registry.Contains(id)

	err := m.gateway.DeleteDocument(ctx, id)
	if err != nil {
		if gateway.IsRejected(err) && !knownLocally {
			m.logger.Debug("Ignoring delete rejection for already-absent document",
				slog.String("documentID", id))
			err = nil
		} else {
			m.logger.Error("Delete failed",
				slog.String("documentID", id),
				slog.String("err", err.Error()))
			m.setError(userMessage(err))
			return err
		}
	}

	if err := m.registry.Refresh(ctx); err != nil {
		m.logger.Error("Failed to refresh documents after delete", slog.String("err", err.Error()))
	}

	m.mu.Lock()
	if m.selected == id {
		m.clearLocked()
	}
	m.mu.Unlock()
	m.notify()
	return nil
}

// ClearError drops the recorded user-facing error, typically after the view has shown it.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
	m.notify()
}

// userMessage translates a failure into the string shown to the user. Service rejections are
// surfaced verbatim; everything else gets a stable message distinct from the raw transport error.
func userMessage(err error) string {
	var ge *gateway.Error
	if errors.As(err, &ge) {
		switch ge.Kind {
		case gateway.KindRejected:
			if ge.Body != "" {
				return ge.Body
			}
			return "the service rejected the request"
		case gateway.KindUnauthorized:
			return "your session has expired, please sign in again"
		case gateway.KindUnavailable:
			return "the service is unreachable, please try again"
		}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return "something went wrong, please try again"
}
