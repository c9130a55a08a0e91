package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jward/grapht/internal/manifest"
	"github.com/jward/grapht/internal/store"
)

const serveManifest = `version: "1"
types:
  - name: App
    constructor:
      - type: Repo
      - type: Tracer
        nullable: true
  - name: Repo
    abstract: true
  - name: SQLRepo
    supertypes: [Repo]
  - name: Tracer
    abstract: true
bindings:
  - bind: Repo
    to: SQLRepo
`

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(serveManifest), 0o644))
	mod, err := manifest.LoadModule(path)
	require.NoError(t, err)

	st, err := store.NewStore(filepath.Join(dir, "graphs.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { st.Close() })

	ts := httptest.NewServer(newServer(mod, path, st, zaptest.NewLogger(t)).routes())
	t.Cleanup(ts.Close)
	return ts, st
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServe_Healthz(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_Resolve(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)

	out := getJSON(t, ts.URL+"/resolve/App", http.StatusOK)
	assert.Equal(t, "resolve", out["command"])
	g := out["results"].(map[string]any)
	assert.Equal(t, "App", g["name"])
	assert.Len(t, g["roots"], 1)

	types := map[string]string{}
	for _, n := range g["nodes"].([]any) {
		node := n.(map[string]any)
		types[node["type"].(string)] = node["kind"].(string)
	}
	assert.Equal(t, "class", types["SQLRepo"])
	assert.Equal(t, "null", types["Tracer"])
	assert.NotContains(t, types, "Repo")
}

func TestServe_ResolveErrors(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)

	out := getJSON(t, ts.URL+"/resolve/Tracer", http.StatusUnprocessableEntity)
	assert.Contains(t, out["error"], "unable to satisfy")

	out = getJSON(t, ts.URL+`/resolve/App?qualifier=@Named(`, http.StatusBadRequest)
	assert.NotEmpty(t, out["error"])
}

func TestServe_NullableRoot(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)

	out := getJSON(t, ts.URL+"/resolve/Tracer?nullable=true", http.StatusOK)
	nodes := out["results"].(map[string]any)["nodes"].([]any)
	require.Len(t, nodes, 1)
	assert.Equal(t, "null", nodes[0].(map[string]any)["kind"])
}

func TestServe_SaveAndFetch(t *testing.T) {
	t.Parallel()
	ts, st := newTestServer(t)

	first := getJSON(t, ts.URL+"/resolve/App?save=true", http.StatusOK)
	id := first["results"].(map[string]any)["id"].(float64)
	require.NotZero(t, id)

	again := getJSON(t, ts.URL+"/resolve/App?save=true", http.StatusOK)
	assert.Equal(t, id, again["results"].(map[string]any)["id"], "identical graphs are stored once")

	sums, err := st.ListGraphs(context.Background())
	require.NoError(t, err)
	require.Len(t, sums, 1)

	list := getJSON(t, ts.URL+"/graphs", http.StatusOK)
	assert.Equal(t, float64(1), list["total_count"])

	graphURL := ts.URL + "/graphs/" + strconv.FormatInt(int64(id), 10)
	got := getJSON(t, graphURL, http.StatusOK)
	assert.Equal(t, first["results"].(map[string]any)["hash"], got["results"].(map[string]any)["hash"])

	req, err := http.NewRequest(http.MethodDelete, graphURL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	getJSON(t, graphURL, http.StatusNotFound)
	getJSON(t, ts.URL+"/graphs/abc", http.StatusBadRequest)
}

func TestServe_Metrics(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)
	getJSON(t, ts.URL+"/resolve/App", http.StatusOK)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "grapht_solves_total 1"), string(body))
}
