package handlers

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	agenticwebui "github.com/taskdocs/agentic-web-ui"
	"github.com/taskdocs/agentic-web-ui/internal/gateway"
	"github.com/taskdocs/agentic-web-ui/internal/models"
	"github.com/taskdocs/agentic-web-ui/internal/session"
	"github.com/tmaxmax/go-sse"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
)

const errLoggerKey = "err"

// TokenStore is the credential store the handlers read and mutate. It is created at application
// start and torn down on logout; nothing else holds durable client state.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// Main wires the view layer together: it renders the embedded templates, forwards user intents to
// the session manager, and pushes re-rendered session state to connected browsers over SSE.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template
	markdown  goldmark.Markdown

	gateway  *gateway.Client
	tokens   TokenStore
	registry *session.Registry
	session  *session.Manager

	logger *slog.Logger
}

const sessionSSETopic = "session"

var sessionSSEType = sse.Type("session")

// NewMain creates a Main instance and registers itself as the session manager's change listener,
// so every state transition is broadcast to subscribed clients. Templates are parsed from the
// embedded filesystem, split into layout, pages, and partials.
func NewMain(
	gw *gateway.Client,
	tokens TokenStore,
	registry *session.Registry,
	sess *session.Manager,
	logger *slog.Logger,
) (Main, error) {
	tmpl, err := template.ParseFS(
		agenticwebui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	m := Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      []string{sse.DefaultTopic, sessionSSETopic},
				}, true
			},
		},
		templates: tmpl,
		markdown: goldmark.New(
			goldmark.WithExtensions(
				highlighting.NewHighlighting(highlighting.WithStyle("monokai")),
			),
		),
		gateway:  gw,
		tokens:   tokens,
		registry: registry,
		session:  sess,
		logger:   logger.With(slog.String("module", "handlers")),
	}

	sess.SetOnChange(m.publishSession)

	return m, nil
}

// HandleSSE subscribes the client to session re-renders.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the SSE server. It broadcasts a close message to all connected
// clients and waits up to 5 seconds for connections to terminate.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("closeSession")}
	e.AppendData("bye")
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// publishSession renders the chat panel for the current session state and broadcasts it.
func (m Main) publishSession() {
	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "chat_panel", m.sessionView()); err != nil {
		m.logger.Error("Failed to render chat panel", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{ID: sse.ID(uuid.New().String()), Type: sessionSSEType}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, sessionSSETopic); err != nil {
		m.logger.Error("Failed to publish session update", slog.String(errLoggerKey, err.Error()))
	}
}

// quickQuestions are the canned prompts offered next to the ask form once a document is selected.
var quickQuestions = []string{
	"Briefly describe the contents of this file",
	"What are the main topics covered?",
	"Highlight the key points",
	"Are there any important dates or figures?",
	"Give me a short summary",
}

type messageView struct {
	Question  string
	Answer    template.HTML
	AgentType string
	Timestamp time.Time
	Pending   bool
}

type sessionView struct {
	State          string
	Selected       string
	SelectedName   string
	Messages       []messageView
	QuickQuestions []string
	Err            string
}

func (m Main) sessionView() sessionView {
	snap := m.session.Snapshot()

	view := sessionView{
		State:          string(snap.State),
		Selected:       snap.Selected,
		QuickQuestions: quickQuestions,
		Err:            snap.LastErr,
	}
	for _, doc := range m.registry.Documents() {
		if doc.ID == snap.Selected {
			view.SelectedName = doc.Name
			break
		}
	}
	for _, msg := range snap.History {
		view.Messages = append(view.Messages, messageView{
			Question:  msg.Question,
			Answer:    m.renderAnswer(msg),
			AgentType: msg.AgentType,
			Timestamp: msg.Timestamp,
			Pending:   msg.Pending(),
		})
	}
	return view
}

// renderAnswer converts the agent's markdown answer into HTML with highlighted code fences.
func (m Main) renderAnswer(msg models.ChatMessage) template.HTML {
	if msg.Pending() {
		return ""
	}

	var buf bytes.Buffer
	if err := m.markdown.Convert([]byte(msg.Answer), &buf); err != nil {
		m.logger.Error("Failed to render answer markdown", slog.String(errLoggerKey, err.Error()))
		return template.HTML(template.HTMLEscapeString(msg.Answer))
	}
	return template.HTML(buf.String())
}

// handleUnauthorized applies the expired-credential policy: discard the stored token and send the
// user back to the login page. Returns true when err was a 401 and the response has been written.
func (m Main) handleUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !gateway.IsUnauthorized(err) {
		return false
	}

	if err := m.tokens.ClearToken(); err != nil {
		m.logger.Error("Failed to clear stored credential", slog.String(errLoggerKey, err.Error()))
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}
