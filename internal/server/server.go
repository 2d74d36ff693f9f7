// Package server is the thin HTTP/JSON-RPC transport over the core
// pipeline. It owns no pipeline logic: it validates envelopes, dispatches
// to tools and shapes outcome records.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"news-rag/internal/config"
	"news-rag/internal/ingest"
	"news-rag/internal/rag"
	"news-rag/internal/vectorstore"
)

const (
	serverName    = "fake-news-rag"
	serverVersion = "0.1.0"
	serverDesc    = "RAG over the Fake vs Real News dataset"
)

type toolHandler func(ctx context.Context, params json.RawMessage) (any, *rpcError)

// Server wires the transport to the injected core components.
type Server struct {
	cfg           *config.Config
	store         vectorstore.Store
	agent         *rag.Agent
	ingestor      *ingest.Ingestor
	generatorName string

	engine   *gin.Engine
	tools    map[string]toolHandler
	ingestMu sync.Mutex
}

func New(cfg *config.Config, store vectorstore.Store, agent *rag.Agent, ingestor *ingest.Ingestor, generatorName string) *Server {
	s := &Server{
		cfg:           cfg,
		store:         store,
		agent:         agent,
		ingestor:      ingestor,
		generatorName: generatorName,
	}
	s.tools = map[string]toolHandler{
		"mcp.rag.query":    s.queryTool,
		"mcp.index.status": s.statusTool,
		"mcp.index.ingest": s.ingestTool,
		"mcp.index.clear":  s.clearTool,
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.corsMiddleware())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/mcp", s.handleDiscovery)
	s.engine.POST("/mcp", s.handleRPC)

	admin := s.engine.Group("/admin", s.adminAuth())
	admin.POST("/ingest", s.handleAdminIngest)
	admin.POST("/clear", s.handleAdminClear)
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("mcp server listening")
	return s.engine.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"services": gin.H{
			"vectorStore": s.cfg.VectorStore.Provider,
			"embeddings":  s.cfg.Embedding.Provider,
			"generator":   s.generatorName,
		},
	})
}

func (s *Server) handleDiscovery(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        serverName,
		"version":     serverVersion,
		"description": serverDesc,
		"tools":       toolDescriptors(),
	})
}

func (s *Server) handleRPC(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, errorResponse(nil, codeInvalidRequest, "Invalid Request", err.Error()))
		return
	}
	c.JSON(http.StatusOK, s.dispatch(c.Request.Context(), req))
}

func (s *Server) dispatch(ctx context.Context, req rpcRequest) rpcResponse {
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, codeInvalidRequest, "Invalid Request", nil)
	}

	switch req.Method {
	case "mcp.discover":
		return resultResponse(req.ID, gin.H{
			"name":        serverName,
			"version":     serverVersion,
			"description": serverDesc,
			"tools":       toolDescriptors(),
		})
	case "mcp.invoke":
		var params invokeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return errorResponse(req.ID, codeInvalidParams, "invalid invoke params", err.Error())
			}
		}
		if params.Tool == "" {
			return errorResponse(req.ID, codeInvalidParams, "Missing tool parameter", nil)
		}
		handler, ok := s.tools[params.Tool]
		if !ok {
			return errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Tool '%s' not found", params.Tool), nil)
		}
		result, rpcErr := handler(ctx, params.Params)
		if rpcErr != nil {
			log.Warn().Str("tool", params.Tool).Str("error", rpcErr.Message).Msg("tool invocation failed")
			return rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
		}
		return resultResponse(req.ID, result)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found", nil)
	}
}

// adminAuth gates the admin group on a bearer token. An unset token denies
// everything rather than opening the endpoints.
func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if s.cfg.Server.AdminToken == "" || token != s.cfg.Server.AdminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.cfg.Server.FrontendOrigin)
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

type adminIngestBody struct {
	Force bool `json:"force"`
}

// The admin endpoints bridge to the same tool dispatch the JSON-RPC
// endpoint uses, with a server-issued request id.
func (s *Server) handleAdminIngest(c *gin.Context) {
	var body adminIngestBody
	_ = c.ShouldBindJSON(&body)
	params, _ := json.Marshal(invokeParams{
		Tool:   "mcp.index.ingest",
		Params: mustJSON(ingestParams{Force: body.Force}),
	})
	resp := s.dispatch(c.Request.Context(), rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "mcp.invoke",
		Params:  params,
	})
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAdminClear(c *gin.Context) {
	params, _ := json.Marshal(invokeParams{Tool: "mcp.index.clear"})
	resp := s.dispatch(c.Request.Context(), rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "mcp.invoke",
		Params:  params,
	})
	c.JSON(http.StatusOK, resp)
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
