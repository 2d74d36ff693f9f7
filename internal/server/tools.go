package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Tool-level handlers. Expected failures (already populated, nothing to do)
// travel inside the result record; only malformed params and unexpected
// errors become JSON-RPC error objects.

const maxTopK = 20

type queryParams struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

func (s *Server) queryTool(ctx context.Context, raw json.RawMessage) (any, *rpcError) {
	params := queryParams{TopK: 4}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "invalid query params", Data: err.Error()}
		}
	}
	if params.Query == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "query cannot be empty"}
	}
	if params.TopK < 1 || params.TopK > maxTopK {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("topK must be between 1 and %d", maxTopK)}
	}

	result, err := s.agent.AnswerWithRAG(ctx, params.Query, params.TopK)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: "query failed", Data: err.Error()}
	}
	return map[string]any{
		"answer":           result.Answer,
		"sources":          result.Sources,
		"rawModelResponse": result.RawModelResponse,
		"query":            params.Query,
		"topK":             params.TopK,
		"timestamp":        time.Now().UTC(),
	}, nil
}

func (s *Server) statusTool(ctx context.Context, _ json.RawMessage) (any, *rpcError) {
	stats, err := s.store.Stats(ctx, s.cfg.VectorStore.Collection)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: "status check failed", Data: err.Error()}
	}
	return map[string]any{
		"status":         "healthy",
		"provider":       s.cfg.VectorStore.Provider,
		"collection":     s.cfg.VectorStore.Collection,
		"totalDocuments": stats.Count,
		"timestamp":      time.Now().UTC(),
		"environment": map[string]any{
			"embeddingProvider": s.cfg.Embedding.Provider,
			"embeddingModel":    s.cfg.Embedding.Model,
			"completionModel":   s.generatorName,
		},
	}, nil
}

type ingestParams struct {
	Force bool `json:"force"`
}

func (s *Server) ingestTool(ctx context.Context, raw json.RawMessage) (any, *rpcError) {
	var params ingestParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "invalid ingest params", Data: err.Error()}
		}
	}
	// One ingestion job per collection at a time; the transport is the
	// caller responsible for serialization.
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	return s.ingestor.Ingest(ctx, params.Force), nil
}

func (s *Server) clearTool(ctx context.Context, _ json.RawMessage) (any, *rpcError) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	return s.ingestor.Clear(ctx), nil
}
