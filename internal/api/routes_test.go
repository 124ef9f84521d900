package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
	"github.com/satriahrh/iris/internal/auth"
	"github.com/satriahrh/iris/internal/live"
	"github.com/satriahrh/iris/internal/websocket"
)

type fakeSession struct {
	status     entities.SessionStatus
	connectErr error
	frames     []string
}

func (f *fakeSession) Connect(ctx context.Context) (entities.SessionStatus, error) {
	if f.connectErr != nil {
		return entities.SessionStatus{State: entities.SessionStateDisconnected}, f.connectErr
	}
	f.status = entities.SessionStatus{State: entities.SessionStateConnected, SessionID: "s-1", Muted: f.status.Muted}
	return f.status, nil
}

func (f *fakeSession) Disconnect() {
	f.status = entities.SessionStatus{State: entities.SessionStateDisconnected, Muted: f.status.Muted}
}

func (f *fakeSession) SetMute(muted bool) entities.SessionStatus {
	f.status.Muted = muted
	return f.status
}

func (f *fakeSession) SendVideoFrame(frame string) error {
	if f.status.State != entities.SessionStateConnected {
		return live.ErrNotConnected
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSession) Status() entities.SessionStatus { return f.status }

type fakeMemory struct {
	entries []*entities.MemoryEntry
	limit   int
}

func (m *fakeMemory) Append(ctx context.Context, entry *entities.MemoryEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *fakeMemory) Recent(ctx context.Context, limit int) ([]*entities.MemoryEntry, error) {
	m.limit = limit
	return m.entries, nil
}

type fakeNotes struct {
	notes []*entities.Note
}

func (n *fakeNotes) Save(ctx context.Context, title, content string) (*entities.Note, error) {
	note := &entities.Note{Filename: entities.NoteFilename(title), Title: title, Content: content}
	n.notes = append([]*entities.Note{note}, n.notes...)
	return note, nil
}

func (n *fakeNotes) List(ctx context.Context) ([]*entities.Note, error) { return n.notes, nil }

func (n *fakeNotes) Delete(ctx context.Context, filename string) error {
	for i, note := range n.notes {
		if note.Filename == filename {
			n.notes = append(n.notes[:i], n.notes[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type apiEnv struct {
	e       *echo.Echo
	session *fakeSession
	memory  *fakeMemory
	notes   *fakeNotes
	issuer  *auth.Issuer
	token   string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	issuer, err := auth.NewIssuer([]byte("jwt-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	env := &apiEnv{
		e:       echo.New(),
		session: &fakeSession{status: entities.SessionStatus{State: entities.SessionStateDisconnected}},
		memory:  &fakeMemory{},
		notes:   &fakeNotes{},
		issuer:  issuer,
	}
	hub := websocket.NewHub(env.session, logger)
	InitRoutes(env.e, &Handler{
		Hub:           hub,
		Session:       env.session,
		Memory:        env.memory,
		Notes:         env.notes,
		Issuer:        issuer,
		ControlSecret: "letmein",
		Logger:        logger,
	})
	env.token, _, err = issuer.GenerateControlToken("test-ui")
	if err != nil {
		t.Fatalf("GenerateControlToken failed: %v", err)
	}
	return env
}

func (env *apiEnv) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+env.token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "ok" || body["session"] != "disconnected" {
		t.Errorf("Unexpected health body %v", body)
	}
}

func TestIssueToken(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/auth/token", `{"secret":"wrong"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong secret, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/v1/auth/token", `{"secret":"letmein","client_id":"panel"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[TokenResponse](t, rec)
	if resp.ClientID != "panel" || resp.Token == "" {
		t.Errorf("Unexpected token response %+v", resp)
	}
	claims, err := env.issuer.ValidateToken(resp.Token)
	if err != nil || claims.ClientID != "panel" {
		t.Errorf("Issued token did not validate: %v", err)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newAPIEnv(t)

	if rec := env.do(http.MethodGet, "/api/v1/session", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for invalid token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session?token="+env.token, nil)
	rec = httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected query token accepted, got %d", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newAPIEnv(t)

	if rec := env.do(http.MethodPost, "/api/v1/session/video", `{"data":"abc"}`, true); rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 before connect, got %d", rec.Code)
	}

	rec := env.do(http.MethodPost, "/api/v1/session/connect", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on connect, got %d", rec.Code)
	}
	if status := decode[entities.SessionStatus](t, rec); status.State != entities.SessionStateConnected {
		t.Errorf("Expected connected, got %s", status.State)
	}

	if rec := env.do(http.MethodPost, "/api/v1/session/mute", `{}`, true); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing muted, got %d", rec.Code)
	}
	rec = env.do(http.MethodPost, "/api/v1/session/mute", `{"muted":true}`, true)
	if status := decode[entities.SessionStatus](t, rec); !status.Muted {
		t.Error("Expected muted status")
	}

	if rec := env.do(http.MethodPost, "/api/v1/session/video", `{"data":"abc"}`, true); rec.Code != http.StatusAccepted {
		t.Errorf("Expected 202 for video frame, got %d", rec.Code)
	}
	if len(env.session.frames) != 1 {
		t.Errorf("Expected one forwarded frame, got %d", len(env.session.frames))
	}

	rec = env.do(http.MethodPost, "/api/v1/session/disconnect", "", true)
	if status := decode[entities.SessionStatus](t, rec); status.State != entities.SessionStateDisconnected {
		t.Errorf("Expected disconnected, got %s", status.State)
	}
}

func TestConnect_MissingAPIKey(t *testing.T) {
	env := newAPIEnv(t)
	env.session.connectErr = live.ErrMissingAPIKey

	rec := env.do(http.MethodPost, "/api/v1/session/connect", "", true)
	if rec.Code != http.StatusPreconditionFailed {
		t.Errorf("Expected 412, got %d", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Error != "missing_api_key" {
		t.Errorf("Unexpected error %+v", resp)
	}
}

func TestMemoryAndNotes(t *testing.T) {
	env := newAPIEnv(t)
	env.memory.entries = []*entities.MemoryEntry{entities.NewMemoryEntry("s", entities.MessageRoleUser, "hello")}
	env.notes.Save(context.Background(), "Groceries", "milk")

	if rec := env.do(http.MethodGet, "/api/v1/memory?limit=abc", "", true); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", rec.Code)
	}
	rec := env.do(http.MethodGet, "/api/v1/memory?limit=5", "", true)
	if resp := decode[MemoryResponse](t, rec); len(resp.Entries) != 1 || resp.Entries[0].Content != "hello" {
		t.Errorf("Unexpected memory response %+v", resp)
	}
	if env.memory.limit != 5 {
		t.Errorf("Expected limit 5 passed through, got %d", env.memory.limit)
	}

	rec = env.do(http.MethodGet, "/api/v1/notes", "", true)
	if resp := decode[NotesResponse](t, rec); len(resp.Notes) != 1 || resp.Notes[0].Filename != "groceries.md" {
		t.Errorf("Unexpected notes response %+v", resp)
	}

	if rec := env.do(http.MethodDelete, "/api/v1/notes/groceries.md", "", true); rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec := env.do(http.MethodDelete, "/api/v1/notes/groceries.md", "", true); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing note, got %d", rec.Code)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newAPIEnv(t)

	if rec := env.do(http.MethodGet, "/ws", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}
}
