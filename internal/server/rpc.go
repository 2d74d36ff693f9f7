package server

import "encoding/json"

// JSON-RPC 2.0 envelope, as consumed by the tool dispatch endpoint.

const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type invokeParams struct {
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params,omitempty"`
}

func errorResponse(id any, code int, message string, data any) rpcResponse {
	return rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message, Data: data},
	}
}

func resultResponse(id any, result any) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

// toolDescriptor is the discovery document entry for one tool.
type toolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params"`
}

func toolDescriptors() []toolDescriptor {
	return []toolDescriptor{
		{
			Name:        "mcp.rag.query",
			Description: "Run a RAG query against the Fake vs Real News index",
			Params: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "The question or query to search for"},
					"topK":  map[string]any{"type": "integer", "description": "Number of top results to return (default: 4)", "default": 4},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "mcp.index.status",
			Description: "Get status and statistics of the news index",
			Params:      map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        "mcp.index.ingest",
			Description: "Trigger re-ingestion of the news dataset",
			Params: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"force": map[string]any{"type": "boolean", "description": "Force re-ingestion even if index exists", "default": false},
				},
			},
		},
		{
			Name:        "mcp.index.clear",
			Description: "Clear the news index (admin only)",
			Params:      map[string]any{"type": "object", "properties": map[string]any{}},
		},
	}
}
