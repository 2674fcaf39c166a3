package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MethodHandler is a function that handles a JSON-RPC method
type MethodHandler func(ctx *gin.Context, params json.RawMessage) (interface{}, error)

// Kind separates read-only procedures from side-effecting ones
type Kind int

const (
	Query Kind = iota
	Mutation
)

func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "query"
}

// Access says whether a procedure needs a signed-in caller
type Access int

const (
	Public Access = iota
	Private
)

// Procedure is a registered method
type Procedure struct {
	Kind    Kind
	Access  Access
	Handler MethodHandler
}

// JSONRPCHandler handles JSON-RPC requests
type JSONRPCHandler struct {
	methods map[string]Procedure
	logger  *zap.Logger
}

// NewJSONRPCHandler creates a new JSON-RPC handler
func NewJSONRPCHandler() *JSONRPCHandler {
	return &JSONRPCHandler{
		methods: make(map[string]Procedure),
		logger:  logging.WithComponent("jsonrpc"),
	}
}

// Register registers a procedure under method
func (h *JSONRPCHandler) Register(method string, p Procedure) {
	h.methods[method] = p
}

// Methods lists the registered method names in sorted order
func (h *JSONRPCHandler) Methods() []string {
	names := make([]string, 0, len(h.methods))
	for name := range h.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle handles a JSON-RPC request posted to the root endpoint
func (h *JSONRPCHandler) Handle(c *gin.Context) {
	var req JSONRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, nil, &JSONRPCError{Code: ErrParseError, Message: "Parse error", Data: err.Error()})
		return
	}

	if req.JSONRPC != "2.0" {
		h.sendError(c, req.ID, &JSONRPCError{Code: ErrInvalidRequest, Message: "Invalid Request", Data: "invalid jsonrpc version"})
		return
	}

	proc, ok := h.methods[req.Method]
	if !ok {
		h.sendError(c, req.ID, &JSONRPCError{Code: ErrMethodNotFound, Message: "Method not found", Data: fmt.Sprintf("method %s not found", req.Method)})
		return
	}

	h.invoke(c, req.ID, req.Method, proc, req.Params)
}

// HandleQuery serves GET /rpc/:method?input=<json> for query procedures
func (h *JSONRPCHandler) HandleQuery(c *gin.Context) {
	method := c.Param("method")
	proc, ok := h.methods[method]
	if !ok {
		h.sendError(c, nil, &JSONRPCError{Code: ErrMethodNotFound, Message: "Method not found", Data: fmt.Sprintf("method %s not found", method)})
		return
	}
	if proc.Kind != Query {
		h.sendError(c, nil, &JSONRPCError{Code: ErrMethodNotFound, Message: "Method not found", Data: "mutation requires POST"})
		return
	}

	var params json.RawMessage
	if input := c.Query("input"); input != "" {
		params = json.RawMessage(input)
	}
	h.invoke(c, nil, method, proc, params)
}

func (h *JSONRPCHandler) invoke(c *gin.Context, id interface{}, method string, proc Procedure, params json.RawMessage) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "rpc "+method)
	defer span.End()
	span.SetAttributes(
		attribute.String("rpc.method", method),
		attribute.String("rpc.kind", proc.Kind.String()),
	)
	c.Request = c.Request.WithContext(ctx)

	start := time.Now()
	var (
		result interface{}
		err    error
	)
	if _, signedIn := identity.FromContext(ctx); proc.Access == Private && !signedIn {
		err = apperr.Unauthorized()
	} else {
		result, err = proc.Handler(c, params)
	}

	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
		span.SetStatus(codes.Error, outcome)
	}
	telemetry.RecordRPC(ctx, method, outcome, time.Since(start))

	if err != nil {
		h.logFailure(span, method, err)
		h.sendError(c, id, errorFromApp(err))
		return
	}
	h.sendResponse(c, id, result)
}

func (h *JSONRPCHandler) logFailure(span trace.Span, method string, err error) {
	logger := h.logger
	if sc := span.SpanContext(); sc.HasTraceID() {
		logger = logging.WithTraceID(sc.TraceID().String()).With(zap.String("component", "jsonrpc"))
	}
	if apperr.KindOf(err) == apperr.KindInternal {
		logger.Error("JSON-RPC method failed", zap.String("method", method), zap.Error(err))
		return
	}
	logger.Debug("JSON-RPC method rejected", zap.String("method", method), zap.Error(err))
}

// sendResponse sends a successful JSON-RPC response
func (h *JSONRPCHandler) sendResponse(c *gin.Context, id interface{}, result interface{}) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// sendError sends an error JSON-RPC response
func (h *JSONRPCHandler) sendError(c *gin.Context, id interface{}, rpcErr *JSONRPCError) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErr,
	})
}
