package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-rag/internal/chunker"
	"news-rag/internal/config"
	"news-rag/internal/corpus"
	"news-rag/internal/embedding"
	"news-rag/internal/ingest"
	"news-rag/internal/llm"
	"news-rag/internal/rag"
	"news-rag/internal/vectorstore/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAdminToken = "test-admin-token"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	corpusPath := filepath.Join(t.TempDir(), "news.jsonl")
	lines := `{"docId":"fake1","title":"Zorblatt Conspiracy","text":"The zorblatt device secretly controls minds.","label":"fake"}
{"docId":"real1","title":"Rate Decision","text":"The central bank held interest rates steady this quarter.","label":"real"}
`
	require.NoError(t, os.WriteFile(corpusPath, []byte(lines), 0o644))

	cfg := config.Default()
	cfg.Server.AdminToken = testAdminToken
	cfg.Corpus.Path = corpusPath
	require.NoError(t, cfg.Validate())

	c, err := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	require.NoError(t, err)
	embedder, err := embedding.NewMock(cfg.Embedding.Dimensions)
	require.NoError(t, err)
	store, err := memory.New(cfg.Embedding.Dimensions)
	require.NoError(t, err)
	generator := llm.NewRuleBased()

	loader := corpus.NewLoader(c)
	ingestor := ingest.New(loader, embedder, store, cfg.VectorStore.Collection, corpusPath, cfg.Ingest.BatchSize)
	agent := rag.NewAgent(store, embedder, generator)

	return New(cfg, store, agent, ingestor, generator.ModelName())
}

func doJSON(t *testing.T, s *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func rpcCall(t *testing.T, s *Server, method string, params any) rpcResponse {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	w := doJSON(t, s, http.MethodPost, "/mcp", req, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func invoke(t *testing.T, s *Server, tool string, params any) rpcResponse {
	t.Helper()
	call := map[string]any{"tool": tool}
	if params != nil {
		call["params"] = params
	}
	return rpcCall(t, s, "mcp.invoke", call)
}

func TestHealth(t *testing.T) {
	w := doJSON(t, newTestServer(t), http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	services, ok := body["services"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "memory", services["vectorStore"])
	assert.Equal(t, "mock", services["embeddings"])
}

func TestDiscovery(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/mcp", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Name  string           `json:"name"`
		Tools []toolDescriptor `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, serverName, body.Name)
	require.Len(t, body.Tools, 4)

	names := make([]string, len(body.Tools))
	for i, tool := range body.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, names, []string{
		"mcp.rag.query", "mcp.index.status", "mcp.index.ingest", "mcp.index.clear",
	})

	// mcp.discover over POST returns the same document.
	resp := rpcCall(t, s, "mcp.discover", nil)
	require.Nil(t, resp.Error)
	assert.NotNil(t, resp.Result)
}

func TestRPC_InvalidEnvelope(t *testing.T) {
	s := newTestServer(t)

	resp := rpcCall(t, s, "", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidRequest, resp.Error.Code)

	w := doJSON(t, s, http.MethodPost, "/mcp", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var malformed rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &malformed))
	require.NotNil(t, malformed.Error)
	assert.Equal(t, codeInvalidRequest, malformed.Error.Code)
}

func TestRPC_UnknownMethodAndTool(t *testing.T) {
	s := newTestServer(t)

	resp := rpcCall(t, s, "mcp.shutdown", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)

	resp = invoke(t, s, "mcp.rag.delete", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "mcp.rag.delete")
}

func TestQueryTool_ParamValidation(t *testing.T) {
	s := newTestServer(t)

	resp := invoke(t, s, "mcp.rag.query", map[string]any{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "query")

	resp = invoke(t, s, "mcp.rag.query", map[string]any{"query": "q", "topK": 100})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "topK")
}

func TestIngestThenQueryAndStatus(t *testing.T) {
	s := newTestServer(t)

	resp := invoke(t, s, "mcp.index.ingest", map[string]any{"force": false})
	require.Nil(t, resp.Error)
	ingestResult, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, ingestResult["success"])
	assert.Equal(t, float64(2), ingestResult["finalCount"])

	// A second non-forced run reports the populated collection.
	resp = invoke(t, s, "mcp.index.ingest", nil)
	require.Nil(t, resp.Error)
	refused, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, refused["success"])
	assert.Equal(t, float64(2), refused["currentCount"])

	resp = invoke(t, s, "mcp.index.status", nil)
	require.Nil(t, resp.Error)
	status, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", status["status"])
	assert.Equal(t, float64(2), status["totalDocuments"])

	resp = invoke(t, s, "mcp.rag.query", map[string]any{"query": "what is the zorblatt device", "topK": 2})
	require.Nil(t, resp.Error)
	answer, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, answer["answer"])

	sources, ok := answer["sources"].([]any)
	require.True(t, ok)
	require.Len(t, sources, 2)
	top, ok := sources[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fake1", top["docId"])
}

func TestQueryTool_EmptyIndex(t *testing.T) {
	s := newTestServer(t)

	resp := invoke(t, s, "mcp.rag.query", map[string]any{"query": "anything"})
	require.Nil(t, resp.Error)
	answer, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fmt.Sprint(answer["answer"]), "relevant information in the dataset")
	sources, ok := answer["sources"].([]any)
	require.True(t, ok)
	assert.Empty(t, sources)
}

func TestClearTool(t *testing.T) {
	s := newTestServer(t)

	require.Nil(t, invoke(t, s, "mcp.index.ingest", nil).Error)

	resp := invoke(t, s, "mcp.index.clear", nil)
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, float64(2), result["countBefore"])
	assert.Equal(t, float64(0), result["countAfter"])
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/admin/ingest", map[string]any{"force": true}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/admin/ingest", map[string]any{"force": true}, map[string]string{
		"Authorization": "Bearer wrong-token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/admin/ingest", map[string]any{"force": true}, map[string]string{
		"Authorization": "Bearer " + testAdminToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)

	w = doJSON(t, s, http.MethodPost, "/admin/clear", nil, map[string]string{
		"Authorization": "Bearer " + testAdminToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuth_UnsetTokenDeniesAll(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Server.AdminToken = ""

	w := doJSON(t, s, http.MethodPost, "/admin/clear", nil, map[string]string{
		"Authorization": "Bearer ",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
