package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/cultural-index/pkg/culturalindex"
	"github.com/tendant/cultural-index/pkg/culturalindex/config"
	"github.com/tendant/cultural-index/pkg/culturalindex/seed"
)

func setupServerTest(t *testing.T, opts ...config.Option) (http.Handler, culturalindex.Index) {
	t.Helper()
	opts = append([]config.Option{config.WithEnvironment("testing")}, opts...)
	cfg, err := config.Load(opts...)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	rt, err := cfg.BuildIndex(context.Background(), logger, registry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	router, err := newRouter(cfg, rt.Index, registry, logger)
	require.NoError(t, err)
	return router, rt.Index
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServerSetup(t *testing.T) {
	router, idx := setupServerTest(t)

	for _, path := range []string{"/healthz", "/healthz/ready"} {
		w := do(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := do(t, router, http.MethodPost, "/api/v1/pieces", `{"name":"Content1","uploader":"0xAddress1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, router, http.MethodPost, "/api/v1/pieces/0/votes", `{"address":"0xVoter1","weight":10}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/v1/pieces/0/weight", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"piece_id":0,"voting_weight":10}`, w.Body.String())
	assert.Equal(t, 1, idx.PieceCount())

	w = do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "culturalindex_pieces 1")
	assert.Contains(t, w.Body.String(), "culturalindex_votes_cast_total 1")
}

func TestServerSetup_MetricsDisabled(t *testing.T) {
	router, _ := setupServerTest(t, config.WithMetrics(false))

	w := do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerSetup_APIKeyGuardsWrites(t *testing.T) {
	router, idx := setupServerTest(t,
		config.WithAPIKeySHA256("5994471abb01112afcc18159f6cc74b4f511b99806da59b3caf5a9c173cacfc5"))
	idx.UploadPiece(context.Background(), culturalindex.PieceMetadata{Name: "A"}, "0xA")

	w := do(t, router, http.MethodPost, "/api/v1/pieces", `{"name":"B","uploader":"0xB"}`)
	assert.NotEqual(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, idx.PieceCount())

	w = do(t, router, http.MethodGet, "/api/v1/pieces/0", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunDemo(t *testing.T) {
	idx := culturalindex.New()
	var out, errOut bytes.Buffer

	require.NoError(t, runDemo(context.Background(), idx, seed.Default(), &out, &errOut))
	assert.Empty(t, errOut.String())

	var list []culturalindex.PieceWeight
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Content1", list[0].Piece.Metadata.Name)
	assert.Equal(t, 30.0, list[0].Weight)
	assert.Equal(t, "Content2", list[1].Piece.Metadata.Name)
	assert.Equal(t, 10.0, list[1].Weight)
}

func TestRunDemo_ReportsRejections(t *testing.T) {
	s, err := seed.Parse([]byte(`
pieces:
  - name: Only
    uploader: "0xA"
    votes:
      - {address: "0xV", weight: 1}
      - {address: "0xV", weight: 2}
`))
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	require.NoError(t, runDemo(context.Background(), culturalindex.New(), s, &out, &errOut))
	assert.Contains(t, errOut.String(), "rejected:")
	assert.Contains(t, out.String(), `"weight": 1`)
}
