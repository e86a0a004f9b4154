package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueries(t *testing.T) {
	got, err := parseQueries([]byte(`["a", {"q": "b"}, {"other": 1}, ""]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", ""}, got)

	_, err = parseQueries([]byte(`[]`))
	assert.Error(t, err)
	_, err = parseQueries([]byte(`{"q": "a"}`))
	assert.Error(t, err)
}

func fakeServer(t *testing.T, echo func(string) string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			UserInput string `json:"user_input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"user": echo(in.UserInput), "bot": "reply to " + in.UserInput})
	})
	mux.HandleFunc("/insert_test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 3, "ts": "2026-10-14T09:30:00Z"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunAllKeepsOrderAndChecksEcho(t *testing.T) {
	srv := fakeServer(t, func(s string) string { return s })
	p := &prober{baseURL: srv.URL, client: srv.Client(), insert: true}

	queries := []string{"one", "two words", "three little words"}
	results := p.runAll(context.Background(), queries, 2)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, queries[i], r.Query)
		assert.True(t, r.EchoOK)
		assert.Equal(t, "reply to "+queries[i], r.Reply)
		assert.Equal(t, http.StatusOK, r.Status)
		assert.EqualValues(t, 3, r.InsertID)
		assert.Empty(t, r.Error)
	}
}

func TestRunOnceFlagsEchoMismatch(t *testing.T) {
	srv := fakeServer(t, strings.ToUpper)
	p := &prober{baseURL: srv.URL, client: srv.Client()}

	r := p.runOnce(context.Background(), "hello")
	assert.False(t, r.EchoOK)
	assert.Contains(t, r.Error, "echo mismatch")
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	items := []ResultItem{{Query: "hi, there", Reply: "hello", Status: 200, EchoOK: true, ReplyWords: 1}}

	require.NoError(t, writeJSON(filepath.Join(dir, "out.json"), RunSummary{RunID: "r", Results: items}))
	require.NoError(t, writeCSV(filepath.Join(dir, "out.csv"), items))

	b, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"hi, there",200,true,1`)
}
