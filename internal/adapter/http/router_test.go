package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cv-builder/internal/domain"
	"cv-builder/internal/model"
	"cv-builder/internal/render"
	"cv-builder/internal/session"
	"cv-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakePDF struct{}

func (fakePDF) RenderHTMLToPDF(_ context.Context, html string) ([]byte, error) {
	return []byte("%PDF-1.7 " + html[:10]), nil
}

type memShares struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.SharedCV
}

func (m *memShares) Save(_ context.Context, s *domain.SharedCV) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = s
	return nil
}

func (m *memShares) Get(_ context.Context, id uuid.UUID) (*domain.SharedCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		return s, nil
	}
	return nil, domain.ErrShareNotFound
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Error   string          `json:"error"`
}

type testClient struct {
	t      *testing.T
	app    *fiber.App
	cookie string
}

func newTestApp(t *testing.T, withShares bool) *testClient {
	t.Helper()
	store := session.NewCache(nil, session.WithLogger(quietLog))
	engine, err := render.NewEngine("", quietLog)
	require.NoError(t, err)

	var shares usecase.ShareRepo
	if withShares {
		shares = &memShares{rows: map[uuid.UUID]*domain.SharedCV{}}
	}
	app := NewApp(Deps{
		CV:         usecase.NewCVService(store, time.Hour, quietLog),
		Exporter:   usecase.NewExporter(engine, fakePDF{}, shares, 1, quietLog),
		Store:      store,
		SessionTTL: time.Hour,
		Env:        "test",
		Log:        quietLog,
	})
	return &testClient{t: t, app: app}
}

func (tc *testClient) do(method, path, body string) *http.Response {
	tc.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.cookie != "" {
		req.Header.Set("Cookie", SessionCookie+"="+tc.cookie)
	}
	resp, err := tc.app.Test(req, -1)
	require.NoError(tc.t, err)
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			tc.cookie = c.Value
		}
	}
	return resp
}

func (tc *testClient) json(method, path, body string) (int, envelope) {
	tc.t.Helper()
	resp := tc.do(method, path, body)
	defer resp.Body.Close()
	var env envelope
	require.NoError(tc.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestSessionCookieIssuedOnce(t *testing.T) {
	tc := newTestApp(t, false)

	resp := tc.do(http.MethodGet, "/api/cv", "")
	resp.Body.Close()

	var issued *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			issued = c
		}
	}
	require.NotNil(t, issued)
	assert.True(t, issued.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, issued.SameSite)
	assert.False(t, issued.Secure)
	_, err := uuid.Parse(issued.Value)
	assert.NoError(t, err)

	resp = tc.do(http.MethodGet, "/api/cv", "")
	resp.Body.Close()
	assert.Empty(t, resp.Cookies(), "existing session keeps its cookie")
}

func TestGetCV_EmptyTemplate(t *testing.T) {
	tc := newTestApp(t, false)

	code, env := tc.json(http.MethodGet, "/api/cv", "")

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	doc := decodeData[model.Document](t, env)
	assert.Equal(t, model.TemplateModern, doc.Template)
	assert.Len(t, doc.Projects, 1)
}

func TestSaveCV_RoundTrip(t *testing.T) {
	tc := newTestApp(t, false)

	code, env := tc.json(http.MethodPost, "/api/cv", `{"personalInfo":{"fullName":"  Jane Doe  ","email":"jane@example.com"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CV saved successfully", env.Message)

	_, env = tc.json(http.MethodGet, "/api/cv", "")
	doc := decodeData[model.Document](t, env)
	assert.Equal(t, "Jane Doe", doc.PersonalInfo.FullName)
}

func TestSaveCV_ValidationErrors(t *testing.T) {
	tc := newTestApp(t, false)

	code, env := tc.json(http.MethodPut, "/api/cv", `{"personalInfo":{"email":"not-an-email"}}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	require.NotEmpty(t, env.Errors)
	assert.Contains(t, strings.Join(env.Errors, " "), "email")
}

func TestSectionItemLifecycle(t *testing.T) {
	tc := newTestApp(t, false)

	code, env := tc.json(http.MethodPost, "/api/cv/section/experience", `{"title":"Engineer","company":"Acme"}`)
	require.Equal(t, http.StatusCreated, code)
	item := decodeData[map[string]any](t, env)
	id := item["id"].(string)
	assert.Regexp(t, `^\d+$`, id)

	code, env = tc.json(http.MethodPut, "/api/cv/section/experience/"+id, `{"title":"Senior Engineer"}`)
	require.Equal(t, http.StatusOK, code)
	updated := decodeData[map[string]any](t, env)
	assert.Equal(t, "Senior Engineer", updated["title"])
	assert.Equal(t, "Acme", updated["company"])

	for i := 0; i < 2; i++ {
		code, env = tc.json(http.MethodDelete, "/api/cv/section/experience/"+id, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Item removed successfully", env.Message)
	}

	_, env = tc.json(http.MethodGet, "/api/cv", "")
	doc := decodeData[model.Document](t, env)
	for _, it := range doc.Experience {
		assert.NotEqual(t, id, it.ID())
	}
}

func TestUpdateSection(t *testing.T) {
	tc := newTestApp(t, false)

	code, env := tc.json(http.MethodPut, "/api/cv/section/skills", `[{"name":"A"},{"name":"B","category":"Lang"}]`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "skills updated successfully", env.Message)
	doc := decodeData[model.Document](t, env)
	assert.Len(t, doc.Skills, 2)

	code, env = tc.json(http.MethodPut, "/api/cv/section/hobbies", `[]`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
}

func TestDeleteCV(t *testing.T) {
	tc := newTestApp(t, false)
	tc.json(http.MethodPut, "/api/cv/section/personalInfo", `{"fullName":"Jane"}`)

	code, env := tc.json(http.MethodDelete, "/api/cv", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CV deleted successfully", env.Message)

	_, env = tc.json(http.MethodGet, "/api/cv", "")
	assert.Equal(t, "", decodeData[model.Document](t, env).PersonalInfo.FullName)
}

func TestGetTemplate(t *testing.T) {
	tc := newTestApp(t, false)

	_, env := tc.json(http.MethodGet, "/api/cv/template", "")

	doc := decodeData[model.Document](t, env)
	assert.Equal(t, "1", doc.Experience[0].ID())
	assert.Empty(t, doc.Skills)
}

func TestPreviewAndPDF(t *testing.T) {
	tc := newTestApp(t, false)
	tc.json(http.MethodPut, "/api/cv/section/personalInfo", `{"fullName":"Jane Doe"}`)

	resp := tc.do(http.MethodGet, "/api/export/preview?template=classic", "")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "Jane Doe")
	assert.Contains(t, string(body), "template-classic")

	resp = tc.do(http.MethodGet, "/api/export/pdf", "")
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cv.pdf")
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

func TestTemplates(t *testing.T) {
	tc := newTestApp(t, false)

	_, env := tc.json(http.MethodGet, "/api/export/templates", "")

	assert.Equal(t, model.Templates, decodeData[[]string](t, env))
}

func TestShare(t *testing.T) {
	tc := newTestApp(t, true)
	tc.json(http.MethodPut, "/api/cv/section/personalInfo", `{"fullName":"Jane Doe"}`)

	code, env := tc.json(http.MethodPost, "/api/export/share", `{"template":"creative"}`)
	require.Equal(t, http.StatusCreated, code)
	share := decodeData[map[string]string](t, env)
	assert.Equal(t, "creative", share["template"])

	anon := &testClient{t: t, app: tc.app}
	resp := anon.do(http.MethodGet, "/api/export/share/"+share["shareId"], "")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Jane Doe")
	assert.Empty(t, anon.cookie, "viewing a share does not start a session")

	code, _ = anon.json(http.MethodGet, "/api/export/share/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestShareWithoutDatabase(t *testing.T) {
	tc := newTestApp(t, false)

	code, env := tc.json(http.MethodPost, "/api/export/share", "")

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "Sharing is not configured", env.Message)
}

func TestHealthAndIndex(t *testing.T) {
	tc := newTestApp(t, false)
	tc.json(http.MethodPut, "/api/cv/section/personalInfo", `{"fullName":"Jane"}`)

	resp := tc.do(http.MethodGet, "/health", "")
	defer resp.Body.Close()
	var health struct {
		Status   string         `json:"status"`
		Redis    session.Health `json:"redis"`
		Sessions session.Stats  `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Degraded", health.Status)
	assert.True(t, health.Redis.FallbackActive)
	assert.Equal(t, 1, health.Sessions.TotalSessions)
	assert.Equal(t, session.BackendMemory, health.Sessions.Backend)

	resp2 := tc.do(http.MethodGet, "/api", "")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestNotFound(t *testing.T) {
	tc := newTestApp(t, false)

	code, env := tc.json(http.MethodGet, "/api/nope", "")

	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "/api/nope")
}

func TestMalformedItemBody(t *testing.T) {
	tc := newTestApp(t, false)

	code, env := tc.json(http.MethodPost, "/api/cv/section/skills", `[1,2]`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Item must be a JSON object", env.Message)
}
