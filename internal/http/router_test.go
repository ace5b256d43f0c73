package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/diagram"
	"github.com/yungbote/breakdown-backend/internal/engine"
	"github.com/yungbote/breakdown-backend/internal/history"
	httpH "github.com/yungbote/breakdown-backend/internal/http/handlers"
	"github.com/yungbote/breakdown-backend/internal/kb"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
	"github.com/yungbote/breakdown-backend/internal/router"
)

const photosynthesisJSON = `{"concept":"Photosynthesis","definition":"...","explanation":"...","examples":["light absorption"],"mermaid":["graph TD; Light-->Chlorophyll;"],"summary":"..."}`

type stubEngine struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (s *stubEngine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, s.err
}

func (s *stubEngine) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	handler http.Handler
	engine  *stubEngine
	store   history.Store
}

func newFixture(t *testing.T, eng *stubEngine, lib diagram.Library) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()

	r, err := router.New(nil, log)
	require.NoError(t, err)
	r.Add(router.Route{PublicModel: "stub", Engine: eng})

	prompts, err := breakdown.NewPrompts(kb.Defaults())
	require.NoError(t, err)
	x, err := breakdown.NewExplainer(config.ExplainerConfig{Mode: config.ModeSingleShot, Model: "stub"}, r, prompts, log)
	require.NoError(t, err)

	store := history.NewMemory(10)
	svc := breakdown.NewService(x, history.Recorder{Store: store}, log)

	h := NewRouter(RouterConfig{
		Log:              log,
		MaxRequestBytes:  1 << 16,
		BreakdownHandler: httpH.NewBreakdownHandler(log, svc),
		PageHandler:      httpH.NewPageHandler(log, svc, store, lib, diagram.Options{}, 2*time.Second),
		HistoryHandler:   httpH.NewHistoryHandler(log, store),
		ModelsHandler:    httpH.NewModelsHandler(r),
		HealthHandler:    httpH.NewHealthHandler(lib),
	})
	return fixture{handler: h, engine: eng, store: store}
}

func (f fixture) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestBreakdownPhotosynthesisEndToEnd(t *testing.T) {
	f := newFixture(t, &stubEngine{reply: photosynthesisJSON}, diagram.BrowserLibrary{})

	for _, path := range []string{"/api/breakdown", "/generate"} {
		rec := f.do(http.MethodPost, path, "application/json", `{"concept":"Photosynthesis"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, photosynthesisJSON, rec.Body.String())
		assert.Equal(t, photosynthesisJSON, strings.TrimSpace(rec.Body.String()))
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	}
	assert.Equal(t, 2, f.engine.Calls())
}

func TestBreakdownRejectsMissingConcept(t *testing.T) {
	f := newFixture(t, &stubEngine{reply: photosynthesisJSON}, nil)

	bodies := []string{
		``,
		`not json`,
		`{}`,
		`{"concept":""}`,
		`{"concept":"   "}`,
		`{"concept":42}`,
	}
	for _, body := range bodies {
		rec := f.do(http.MethodPost, "/api/breakdown", "application/json", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.JSONEq(t, `{"error":"Missing 'concept' in request body"}`, rec.Body.String())
	}
	assert.Zero(t, f.engine.Calls())
}

func TestBreakdownMalformedResponse(t *testing.T) {
	f := newFixture(t, &stubEngine{reply: "Sure! Here is your breakdown."}, nil)

	rec := f.do(http.MethodPost, "/api/breakdown", "application/json", `{"concept":"Entropy"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var out breakdown.ErrorResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Entropy", out.OriginalConcept)
	assert.Equal(t, breakdown.KindMalformed, out.ErrorKind)
	assert.NotEmpty(t, out.ErrorMessage)
	assert.Empty(t, out.Definition)
	assert.Empty(t, out.Examples)
	assert.Empty(t, out.Mermaid)
}

func TestBreakdownUpstreamFailure(t *testing.T) {
	f := newFixture(t, &stubEngine{err: errors.New("connection refused")}, nil)

	rec := f.do(http.MethodPost, "/api/breakdown", "application/json", `{"concept":"Entropy"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errorKind":"upstream_error"`)

	list := f.do(http.MethodGet, "/api/history", "", "")
	assert.JSONEq(t, `{"entries":[]}`, list.Body.String())
}

func TestHistoryEndpoints(t *testing.T) {
	f := newFixture(t, &stubEngine{reply: photosynthesisJSON}, nil)

	rec := f.do(http.MethodPost, "/api/breakdown", "application/json", `{"concept":"Photosynthesis"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/history?limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Entries []history.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Photosynthesis", list.Entries[0].Concept)
	assert.Equal(t, []string{"graph TD; Light-->Chlorophyll;"}, list.Entries[0].Result.Mermaid)

	rec = f.do(http.MethodGet, "/api/history/"+list.Entries[0].ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Light-->Chlorophyll")

	rec = f.do(http.MethodGet, "/api/history/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/history?limit=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelsAndHealth(t *testing.T) {
	f := newFixture(t, &stubEngine{}, diagram.BrowserLibrary{})

	rec := f.do(http.MethodGet, "/api/models", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":[{"id":"stub"}]}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/readyz", "", "").Code)
}

type offlineLibrary struct{}

func (offlineLibrary) Ready() bool                                  { return false }
func (offlineLibrary) Run(context.Context, string) (string, error) { return "", errors.New("offline") }

func TestReadyzReportsRendererState(t *testing.T) {
	f := newFixture(t, &stubEngine{}, offlineLibrary{})
	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/readyz", "", "").Code)
}

func TestFormPage(t *testing.T) {
	f := newFixture(t, &stubEngine{reply: photosynthesisJSON}, diagram.BrowserLibrary{})

	rec := f.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="concept"`)

	form := url.Values{"concept": {"Photosynthesis"}}.Encode()
	rec = f.do(http.MethodPost, "/", "application/x-www-form-urlencoded", form)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<pre class="mermaid" id="mermaid-photosynthesis-0">graph TD; Light--&gt;Chlorophyll;</pre>`)
	assert.Contains(t, body, "light absorption")
	assert.Contains(t, body, "mermaid.esm")
	assert.Contains(t, body, `href="/api/history/`)

	rec = f.do(http.MethodPost, "/", "application/x-www-form-urlencoded", "concept=+++")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, f.engine.Calls())
}

func TestFormPageShowsErrors(t *testing.T) {
	f := newFixture(t, &stubEngine{reply: "[]"}, diagram.BrowserLibrary{})

	form := url.Values{"concept": {"Entropy"}}.Encode()
	rec := f.do(http.MethodPost, "/", "application/x-www-form-urlencoded", form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error-message"`)
	assert.NotContains(t, rec.Body.String(), "mermaid.esm")
}
