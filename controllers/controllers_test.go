package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"BlenderChat/models"
	svc "BlenderChat/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply string
	err   error
	calls int
	last  string
}

func (f *fakeGenerator) Generate(ctx context.Context, text string) (string, error) {
	f.calls++
	f.last = text
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeRecorder struct {
	configured bool
	rec        models.ActivityRecord
	err        error
	calls      int
}

func (f *fakeRecorder) Configured() bool { return f.configured }

func (f *fakeRecorder) Record(ctx context.Context) (models.ActivityRecord, error) {
	f.calls++
	if !f.configured {
		return models.ActivityRecord{}, svc.ErrNotConfigured
	}
	return f.rec, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func doJSON(t *testing.T, h gin.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Handle(method, "/x", h)
	req := httptest.NewRequest(method, "/x", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestChatEchoesInput(t *testing.T) {
	gen := &fakeGenerator{reply: "hi, how are you?"}
	w := doJSON(t, Chat(gen), http.MethodPost, `{"user_input": "Hello"}`)

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Hello", out["user"])
	assert.Equal(t, "hi, how are you?", out["bot"])
	assert.Len(t, out, 2)
	assert.Equal(t, "Hello", gen.last)
}

func TestChatAcceptsEmptyInput(t *testing.T) {
	gen := &fakeGenerator{reply: "what do you mean?"}
	w := doJSON(t, Chat(gen), http.MethodPost, `{"user_input": ""}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode(t, w)["user"])
	assert.Equal(t, 1, gen.calls)
}

func TestChatRejectsMalformedBodies(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      `hello`,
		"empty body":    ``,
		"missing field": `{"message": "hi"}`,
		"wrong type":    `{"user_input": 42}`,
		"null":          `{"user_input": null}`,
	} {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "x"}
			w := doJSON(t, Chat(gen), http.MethodPost, body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, decode(t, w), "error")
			assert.Zero(t, gen.calls, "model must not be reached")
		})
	}
}

func TestChatGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	w := doJSON(t, Chat(gen), http.MethodPost, `{"user_input": "Hello"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "generation failed", decode(t, w)["error"])
}

func TestInsertTestNotConfigured(t *testing.T) {
	rec := &fakeRecorder{}
	w := doJSON(t, InsertTest(rec), http.MethodPost, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error": "DATA_BASE_URL is not configured"}`, w.Body.String())
}

func TestInsertTestRecords(t *testing.T) {
	ts := time.Date(2026, 10, 14, 9, 30, 0, 123000000, time.UTC)
	rec := &fakeRecorder{configured: true, rec: models.ActivityRecord{ID: 7, TS: ts}}
	w := doJSON(t, InsertTest(rec), http.MethodPost, "")

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.EqualValues(t, 7, out["id"])
	parsed, err := time.Parse(time.RFC3339Nano, out["ts"].(string))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}

func TestInsertTestStoreError(t *testing.T) {
	rec := &fakeRecorder{configured: true, err: errors.Join(svc.ErrStore, errors.New("connection refused"))}
	w := doJSON(t, InsertTest(rec), http.MethodPost, "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decode(t, w)["error"], "store error")
}

func TestHealth(t *testing.T) {
	model := svc.NewChatModel(svc.NewLocalBackend(), 100, 1)
	app := &App{Model: model, Activity: &fakeRecorder{configured: true}}
	w := doJSON(t, Health(app), http.MethodGet, "")

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "local", out["model"])
	assert.EqualValues(t, 100, out["max_length"])
	assert.Equal(t, true, out["store_configured"])
}

func TestUIPageRendersForm(t *testing.T) {
	r := gin.New()
	r.GET("/", UIPage(&fakeGenerator{}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<title>BlenderBot Chat</title>")
	assert.Contains(t, body, `name="user_input"`)
	assert.Contains(t, body, `id="send-button"`)
	assert.Contains(t, body, `id="bot_output" rows="5" readonly`)
}

func TestUISubmitRendersReply(t *testing.T) {
	gen := &fakeGenerator{reply: "i like <b>pizza</b>"}
	r := gin.New()
	r.POST("/", UISubmit(gen))

	form := url.Values{"user_input": {"what do you eat?"}}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "what do you eat?", gen.last)
	assert.Contains(t, w.Body.String(), "i like &lt;b&gt;pizza&lt;/b&gt;")
	assert.Contains(t, w.Body.String(), "what do you eat?")
}

func TestUISubmitGenerationError(t *testing.T) {
	r := gin.New()
	r.POST("/", UISubmit(&fakeGenerator{err: errors.New("boom")}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("user_input=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "generation failed")
}
