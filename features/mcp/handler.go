package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumen/internal/middleware"
	"lumen/internal/retrieval"
)

// snippetLimit caps how much chunk content a single search result exposes.
const snippetLimit = 500

type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]retrieval.SearchResult, error)
	ListBooks(ctx context.Context) ([]retrieval.BookInfo, error)
	GetSummary(ctx context.Context, title string) (*retrieval.BookSummary, error)
}

type Handler struct {
	retriever    Retriever
	sessions     map[string]chan string // sessionId -> serialized JSON-RPC responses
	sessionsLock sync.RWMutex
}

func NewHandler(r Retriever) *Handler {
	return &Handler{
		retriever: r,
		sessions:  make(map[string]chan string),
	}
}

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type SearchArgs struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

type SummaryArgs struct {
	Title string `json:"title"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	ErrParse          = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// processRequest handles one JSON-RPC request. Returns nil when no response
// should be sent (notifications).
func (h *Handler) processRequest(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"capabilities": map[string]interface{}{
					"tools": map[string]interface{}{},
				},
				"serverInfo": map[string]interface{}{
					"name":    "lumen-mcp",
					"version": "1.0.0",
				},
			},
		}

	case "notifications/initialized":
		return nil

	case "tools/list":
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  ListToolsResult{Tools: toolCatalog()},
		}

	case "tools/call":
		var params CallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			slog.Warn("invalid params structure", "error", err)
			resp := makeErrorResponse(req.ID, ErrInvalidParams, "Invalid params")
			return &resp
		}

		switch params.Name {
		case "search_ebooks":
			return h.handleSearch(ctx, req.ID, params.Arguments)
		case "list_books":
			return h.handleListBooks(ctx, req.ID)
		case "get_book_summary":
			return h.handleGetSummary(ctx, req.ID, params.Arguments)
		default:
			slog.Warn("tool not found", "tool", params.Name)
			resp := makeErrorResponse(req.ID, ErrMethodNotFound, "Method not found: "+params.Name)
			return &resp
		}
	}

	slog.Warn("unknown jsonrpc method", "method", req.Method)
	resp := makeErrorResponse(req.ID, ErrMethodNotFound, "Method not found")
	return &resp
}

func toolCatalog() []Tool {
	return []Tool{
		{
			Name:        "search_ebooks",
			Description: "Search for relevant content across all ebooks using semantic search",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query to find relevant ebook content",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of results to return (default: 5)",
						"default":     retrieval.DefaultLimit,
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "list_books",
			Description: "Get a list of all books available in the database",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "get_book_summary",
			Description: "Get detailed information about a specific book",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Title of the book to get summary for",
					},
				},
				"required": []string{"title"},
			},
		},
	}
}

func (h *Handler) handleSearch(ctx context.Context, id interface{}, arguments json.RawMessage) *JSONRPCResponse {
	var args SearchArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		slog.Warn("invalid search arguments", "error", err)
		resp := makeErrorResponse(id, ErrInvalidParams, "Invalid search arguments")
		return &resp
	}

	if args.Query == "" {
		resp := makeErrorResponse(id, ErrInvalidParams, "Query is required")
		return &resp
	}

	limit := retrieval.DefaultLimit
	if args.Limit != nil {
		limit = *args.Limit
	}

	results, err := h.retriever.Search(ctx, args.Query, limit)
	if err != nil {
		slog.Error("search failed", "error", err)
		resp := makeErrorResponse(id, ErrInternal, "Search failed: "+err.Error())
		return &resp
	}

	slog.Info("tool execution completed", "tool", "search_ebooks", "result_count", len(results))
	return textResponse(id, formatSearchResults(results))
}

func formatSearchResults(results []retrieval.SearchResult) string {
	if len(results) == 0 {
		return "No relevant content found for your query."
	}

	formatted := make([]string, len(results))
	for i, res := range results {
		content := res.Content
		if len(content) > snippetLimit {
			content = content[:snippetLimit] + "..."
		}
		formatted[i] = fmt.Sprintf(
			"**Result %d** (Score: %.3f)\n**Book:** %s\n**Author:** %s\n**Content:**\n%s\n",
			i+1, res.Score, res.Title, res.Author, content,
		)
	}
	return strings.Join(formatted, "\n---\n")
}

func (h *Handler) handleListBooks(ctx context.Context, id interface{}) *JSONRPCResponse {
	books, err := h.retriever.ListBooks(ctx)
	if err != nil {
		slog.Error("list_books failed", "error", err)
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      id,
			Result: ToolResult{
				Content: []ToolContent{{Type: "text", Text: "Error: " + err.Error()}},
				IsError: true,
			},
		}
	}

	if len(books) == 0 {
		return textResponse(id, "No books found in the database.")
	}

	lines := make([]string, len(books))
	for i, book := range books {
		lines[i] = fmt.Sprintf("**%s** by %s (%s, %d chunks)",
			book.Title, book.Author, book.FileType, book.Chunks)
	}

	slog.Info("tool execution completed", "tool", "list_books", "book_count", len(books))
	return textResponse(id, "**Available Books:**\n"+strings.Join(lines, "\n"))
}

func (h *Handler) handleGetSummary(ctx context.Context, id interface{}, arguments json.RawMessage) *JSONRPCResponse {
	var args SummaryArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		slog.Warn("invalid summary arguments", "error", err)
		resp := makeErrorResponse(id, ErrInvalidParams, "Invalid arguments")
		return &resp
	}

	if args.Title == "" {
		resp := makeErrorResponse(id, ErrInvalidParams, "Title is required")
		return &resp
	}

	summary, err := h.retriever.GetSummary(ctx, args.Title)
	if err != nil {
		slog.Warn("get_book_summary failed", "title", args.Title, "error", err)
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      id,
			Result: ToolResult{
				Content: []ToolContent{{Type: "text", Text: "Error: " + err.Error()}},
				IsError: true,
			},
		}
	}

	text := fmt.Sprintf(
		"**Book Summary**\n**Title:** %s\n**Author:** %s\n**File Type:** %s\n"+
			"**Total Chunks:** %d\n**Total Characters:** %s\n**Estimated Pages:** %d",
		summary.Title, summary.Author, summary.FileType,
		summary.TotalChunks, groupThousands(summary.TotalCharacters), summary.EstimatedPages,
	)

	slog.Info("tool execution completed", "tool", "get_book_summary", "title", summary.Title)
	return textResponse(id, text)
}

// groupThousands renders 1234567 as "1,234,567".
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func textResponse(id interface{}, text string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolResult{
			Content: []ToolContent{{Type: "text", Text: text}},
		},
	}
}

func makeErrorResponse(id interface{}, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
		ID: id,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("mcp request received", "method", r.Method, "path", r.URL.Path)

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, nil, ErrParse, "Parse error")
		return
	}

	resp := h.processRequest(r.Context(), req)
	if resp != nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	} else {
		w.WriteHeader(http.StatusOK)
	}
}

// HandleSSE establishes the SSE connection and manages the session.
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sessionID := uuid.New().String()
	msgChan := make(chan string, 100)

	h.sessionsLock.Lock()
	h.sessions[sessionID] = msgChan
	h.sessionsLock.Unlock()

	defer func() {
		h.sessionsLock.Lock()
		delete(h.sessions, sessionID)
		h.sessionsLock.Unlock()
		close(msgChan)
		slog.Info("sse session ended", "session_id", sessionID)
	}()

	slog.Info("sse session started", "session_id", sessionID)

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s/mcp/messages?sessionId=%s", scheme, r.Host, sessionID)
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", html.EscapeString(endpoint))
	w.(http.Flusher).Flush()

	fmt.Fprintf(w, "event: id\ndata: %s\n\n", html.EscapeString(sessionID))
	w.(http.Flusher).Flush()

	// Keep-alive comments prevent intermediaries from timing out idle streams.
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			w.(http.Flusher).Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			w.(http.Flusher).Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// HandleMessage accepts POST messages associated with a session.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	slog.Info("mcp message received",
		"method", r.Method,
		"path", r.URL.Path,
		"correlation_id", correlationID,
	)

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		slog.Warn("missing sessionId in message request", "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing sessionId", correlationID)
		return
	}

	h.sessionsLock.RLock()
	msgChan, exists := h.sessions[sessionID]
	h.sessionsLock.RUnlock()

	if !exists {
		slog.Warn("session not found", "session_id", sessionID, "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", correlationID)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid json in message request", "error", err, "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON", correlationID)
		return
	}

	// Per the transport contract, acknowledge immediately and deliver the
	// response over the SSE stream.
	w.WriteHeader(http.StatusAccepted)

	// Detached context keeps correlation values but survives the POST ending.
	bgCtx := context.WithoutCancel(r.Context())

	go func() {
		resp := h.processRequest(bgCtx, req)
		if resp == nil {
			return
		}

		respBytes, err := json.Marshal(resp)
		if err != nil {
			slog.Error("failed to marshal response", "error", err, "correlation_id", correlationID)
			return
		}

		h.sessionsLock.RLock()
		defer h.sessionsLock.RUnlock()

		defer func() {
			if r := recover(); r != nil {
				slog.Warn("failed to send to sse channel (closed)", "session_id", sessionID, "error", r, "correlation_id", correlationID)
			}
		}()

		select {
		case msgChan <- string(respBytes):
		default:
			slog.Warn("session channel full, dropping message", "session_id", sessionID, "correlation_id", correlationID)
		}
	}()
}

func (h *Handler) writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	resp := makeErrorResponse(id, code, message)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeHttpError(w http.ResponseWriter, status int, code string, message string, correlationID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"status": "error",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"correlationId": correlationID,
	}
	json.NewEncoder(w).Encode(resp)
}
