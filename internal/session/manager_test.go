package session_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdocs/agentic-web-ui/internal/gateway"
	"github.com/taskdocs/agentic-web-ui/internal/models"
	"github.com/taskdocs/agentic-web-ui/internal/session"
)

type fakeGateway struct {
	mu           sync.Mutex
	uploadCalls  int
	listCalls    int
	deleteCalls  int
	historyCalls int
	askCalls     int

	docs        []models.Document
	listErr     error
	historyByID map[string][]models.ChatMessage
	historyErr  error
	uploadDoc   models.Document
	uploadErr   error
	deleteErr   error
	askMsg      models.ChatMessage
	askErr      error

	// When set, Ask signals askStarted and then blocks until askRelease is closed, so tests can
	// interleave other intents with an in-flight question.
	askStarted chan string
	askRelease chan struct{}
}

func (f *fakeGateway) Upload(_ context.Context, _, _ string, _ io.Reader) (models.Document, error) {
	f.mu.Lock()
	f.uploadCalls++
	f.mu.Unlock()
	return f.uploadDoc, f.uploadErr
}

func (f *fakeGateway) ListDocuments(context.Context) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	docs := make([]models.Document, len(f.docs))
	copy(docs, f.docs)
	return docs, nil
}

func (f *fakeGateway) DeleteDocument(context.Context, string) error {
	f.mu.Lock()
	f.deleteCalls++
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeGateway) FetchHistory(_ context.Context, id string) ([]models.ChatMessage, error) {
	f.mu.Lock()
	f.historyCalls++
	f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.historyByID[id], nil
}

func (f *fakeGateway) Ask(_ context.Context, id, question string) (models.ChatMessage, error) {
	f.mu.Lock()
	f.askCalls++
	f.mu.Unlock()
	if f.askStarted != nil {
		f.askStarted <- id
	}
	if f.askRelease != nil {
		<-f.askRelease
	}
	if f.askErr != nil {
		return models.ChatMessage{}, f.askErr
	}
	msg := f.askMsg
	if msg.Question == "" {
		msg.Question = question
	}
	return msg, nil
}

func (f *fakeGateway) setDocs(docs []models.Document) {
	f.mu.Lock()
	f.docs = docs
	f.mu.Unlock()
}

func (f *fakeGateway) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCalls + f.listCalls + f.deleteCalls + f.historyCalls + f.askCalls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T, fake *fakeGateway) (*session.Manager, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry(fake)
	require.NoError(t, registry.Refresh(context.Background()))
	return session.NewManager(fake, registry, discardLogger()), registry
}

func doc(id string) models.Document {
	return models.Document{ID: id, Name: id + ".txt", MediaType: "text/plain", Size: 42}
}

func finalMsg(question, answer string) models.ChatMessage {
	return models.ChatMessage{
		Question:  question,
		Answer:    answer,
		AgentType: "assistant",
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		State:     models.MessageStateFinal,
	}
}

func TestSelectDocumentLoadsHistory(t *testing.T) {
	history := []models.ChatMessage{
		finalMsg("first", "one"),
		finalMsg("second", "two"),
	}
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{"doc-1": history},
	}
	m, _ := newManager(t, fake)

	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	snap := m.Snapshot()
	assert.Equal(t, session.StateReady, snap.State)
	assert.Equal(t, "doc-1", snap.Selected)
	assert.Equal(t, history, snap.History)
	assert.Empty(t, snap.LastErr)
}

func TestSelectDocumentEmptyHistory(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{},
	}
	m, _ := newManager(t, fake)

	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	snap := m.Snapshot()
	assert.Equal(t, session.StateReady, snap.State)
	assert.Empty(t, snap.History)
}

func TestSelectUnknownDocumentClears(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{"doc-1": {finalMsg("q", "a")}},
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	err := m.SelectDocument(context.Background(), "nope")
	require.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, session.StateEmpty, snap.State)
	assert.Empty(t, snap.Selected)
	assert.Empty(t, snap.History)
	assert.NotEmpty(t, snap.LastErr)
}

func TestSelectNoneClears(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{"doc-1": {finalMsg("q", "a")}},
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	require.NoError(t, m.SelectDocument(context.Background(), ""))

	snap := m.Snapshot()
	assert.Equal(t, session.StateEmpty, snap.State)
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.LastErr)
}

func TestSelectHistoryFetchFailureEndsEmpty(t *testing.T) {
	fake := &fakeGateway{
		docs:       []models.Document{doc("doc-1")},
		historyErr: &gateway.Error{Kind: gateway.KindUnavailable, Op: "fetch history"},
	}
	m, _ := newManager(t, fake)

	err := m.SelectDocument(context.Background(), "doc-1")
	require.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, session.StateEmpty, snap.State)
	assert.Empty(t, snap.Selected)
	assert.NotEmpty(t, snap.LastErr)
}

func TestAskSuccessReplacesPlaceholderInPlace(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{},
		askMsg:      finalMsg("summarize", "It is a summary."),
		askStarted:  make(chan string, 1),
		askRelease:  make(chan struct{}),
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	done := make(chan error, 1)
	go func() { done <- m.Ask(context.Background(), "summarize") }()
	<-fake.askStarted

	// The placeholder is appended before any network resolution.
	snap := m.Snapshot()
	assert.Equal(t, session.StateAsking, snap.State)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "summarize", snap.History[0].Question)
	assert.True(t, snap.History[0].Pending())
	assert.Equal(t, models.AgentTypeUser, snap.History[0].AgentType)
	assert.WithinDuration(t, time.Now(), snap.History[0].Timestamp, time.Minute)

	close(fake.askRelease)
	require.NoError(t, <-done)

	// The placeholder is replaced, not appended to.
	snap = m.Snapshot()
	assert.Equal(t, session.StateReady, snap.State)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "summarize", snap.History[0].Question)
	assert.Equal(t, "It is a summary.", snap.History[0].Answer)
	assert.Equal(t, "assistant", snap.History[0].AgentType)
	assert.False(t, snap.History[0].Pending())
}

func TestAskFailureRollsBackPlaceholder(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{"doc-1": {finalMsg("q", "a")}},
		askErr:      &gateway.Error{Kind: gateway.KindRejected, Op: "ask", Status: 500, Body: "agent exploded"},
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	err := m.Ask(context.Background(), "summarize")
	require.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, session.StateReady, snap.State)
	require.Len(t, snap.History, 1, "history length must return to its pre-submission value")
	assert.Equal(t, "q", snap.History[0].Question)
	assert.Equal(t, "agent exploded", snap.LastErr, "service rejections surface verbatim")
}

func TestAskWhileAskingIsNoOp(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{},
		askStarted:  make(chan string, 1),
		askRelease:  make(chan struct{}),
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	done := make(chan error, 1)
	go func() { done <- m.Ask(context.Background(), "first") }()
	<-fake.askStarted

	require.NoError(t, m.Ask(context.Background(), "second"))

	snap := m.Snapshot()
	assert.Equal(t, session.StateAsking, snap.State)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "first", snap.History[0].Question)

	close(fake.askRelease)
	require.NoError(t, <-done)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.askCalls)
}

func TestAskBlankQuestionIsNoOp(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{},
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	require.NoError(t, m.Ask(context.Background(), "   \n\t"))

	snap := m.Snapshot()
	assert.Equal(t, session.StateReady, snap.State)
	assert.Empty(t, snap.History)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Zero(t, fake.askCalls)
}

func TestAskWithoutSelectionIsNoOp(t *testing.T) {
	fake := &fakeGateway{}
	m, _ := newManager(t, fake)

	require.NoError(t, m.Ask(context.Background(), "hello"))

	snap := m.Snapshot()
	assert.Equal(t, session.StateEmpty, snap.State)
	assert.Empty(t, snap.History)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Zero(t, fake.askCalls)
}

func TestDeleteSelectedDuringAskDropsLateResolution(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{},
		askMsg:      finalMsg("summarize", "late answer"),
		askStarted:  make(chan string, 1),
		askRelease:  make(chan struct{}),
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	done := make(chan error, 1)
	go func() { done <- m.Ask(context.Background(), "summarize") }()
	<-fake.askStarted

	fake.setDocs(nil)
	require.NoError(t, m.DeleteDocument(context.Background(), "doc-1"))

	snap := m.Snapshot()
	assert.Equal(t, session.StateEmpty, snap.State)
	assert.Empty(t, snap.History)

	// The answer for the deleted document arrives late and must not reappear.
	close(fake.askRelease)
	require.NoError(t, <-done)

	snap = m.Snapshot()
	assert.Equal(t, session.StateEmpty, snap.State)
	assert.Empty(t, snap.History)
}

func TestSwitchSelectionDuringAskLeavesNewSessionUntouched(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1"), doc("doc-2")},
		historyByID: map[string][]models.ChatMessage{},
		askMsg:      finalMsg("summarize", "doc-1 answer"),
		askStarted:  make(chan string, 1),
		askRelease:  make(chan struct{}),
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	done := make(chan error, 1)
	go func() { done <- m.Ask(context.Background(), "summarize") }()
	<-fake.askStarted

	require.NoError(t, m.SelectDocument(context.Background(), "doc-2"))

	close(fake.askRelease)
	require.NoError(t, <-done)

	snap := m.Snapshot()
	assert.Equal(t, session.StateReady, snap.State)
	assert.Equal(t, "doc-2", snap.Selected)
	assert.Empty(t, snap.History, "the doc-1 answer must not land in the doc-2 session")
}

func TestUploadRejectedLocallyMakesNoNetworkCall(t *testing.T) {
	fake := &fakeGateway{}
	m, _ := newManager(t, fake)
	before := fake.networkCalls()

	_, err := m.UploadDocument(context.Background(), "report.pdf", "application/pdf", 100, strings.NewReader("x"))

	var ve *session.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, before, fake.networkCalls())
	assert.NotEmpty(t, m.Snapshot().LastErr)
}

func TestUploadOversizeRejectedLocally(t *testing.T) {
	fake := &fakeGateway{}
	m, _ := newManager(t, fake)
	before := fake.networkCalls()

	_, err := m.UploadDocument(context.Background(), "big.txt", "text/plain", session.MaxUploadSize+1, strings.NewReader("x"))

	var ve *session.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, before, fake.networkCalls())
}

func TestUploadSelectsNewDocument(t *testing.T) {
	uploaded := doc("doc-9")
	fake := &fakeGateway{
		docs:        []models.Document{uploaded},
		historyByID: map[string][]models.ChatMessage{},
		uploadDoc:   uploaded,
	}
	m, _ := newManager(t, fake)

	got, err := m.UploadDocument(context.Background(), "doc-9.txt", "text/plain; charset=utf-8", 42, strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, uploaded, got)

	snap := m.Snapshot()
	assert.Equal(t, session.StateReady, snap.State)
	assert.Equal(t, "doc-9", snap.Selected)
	assert.Empty(t, snap.History)
}

func TestUploadRemoteRejectionSurfacesLikeValidation(t *testing.T) {
	fake := &fakeGateway{
		uploadErr: &gateway.Error{Kind: gateway.KindRejected, Op: "upload", Status: 400, Body: "unsupported file type"},
	}
	m, _ := newManager(t, fake)

	_, err := m.UploadDocument(context.Background(), "notes.txt", "text/plain", 42, strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, "unsupported file type", m.Snapshot().LastErr)
}

func TestDeleteAlreadyAbsentIsSilent(t *testing.T) {
	fake := &fakeGateway{
		deleteErr: &gateway.Error{Kind: gateway.KindRejected, Op: "delete document", Status: 404, Body: "not found"},
	}
	m, _ := newManager(t, fake)

	require.NoError(t, m.DeleteDocument(context.Background(), "ghost"))
	assert.Empty(t, m.Snapshot().LastErr)
}

func TestDeleteFailureForKnownDocumentSurfaces(t *testing.T) {
	fake := &fakeGateway{
		docs:      []models.Document{doc("doc-1")},
		deleteErr: &gateway.Error{Kind: gateway.KindRejected, Op: "delete document", Status: 403, Body: "not yours"},
	}
	m, _ := newManager(t, fake)

	err := m.DeleteDocument(context.Background(), "doc-1")
	require.Error(t, err)
	assert.Equal(t, "not yours", m.Snapshot().LastErr)
}

func TestDeleteUnselectedKeepsSession(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1"), doc("doc-2")},
		historyByID: map[string][]models.ChatMessage{"doc-1": {finalMsg("q", "a")}},
	}
	m, _ := newManager(t, fake)
	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))

	fake.setDocs([]models.Document{doc("doc-1")})
	require.NoError(t, m.DeleteDocument(context.Background(), "doc-2"))

	snap := m.Snapshot()
	assert.Equal(t, session.StateReady, snap.State)
	assert.Equal(t, "doc-1", snap.Selected)
	require.Len(t, snap.History, 1)
}

func TestOnChangeFiresOnTransitions(t *testing.T) {
	fake := &fakeGateway{
		docs:        []models.Document{doc("doc-1")},
		historyByID: map[string][]models.ChatMessage{},
	}
	m, _ := newManager(t, fake)

	var mu sync.Mutex
	changes := 0
	m.SetOnChange(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	require.NoError(t, m.SelectDocument(context.Background(), "doc-1"))
	require.NoError(t, m.Ask(context.Background(), "hello"))

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, changes, 3, "loading, ready, asking and resolution should all notify")
}
