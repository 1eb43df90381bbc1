package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	marketrpc "modelmarket/go-backend/internal/domains/marketplace/adapters/rpc"
)

type rpcRequest struct {
	JSONRPC    string          `json:"jsonrpc"`
	ID         json.RawMessage `json:"id"`
	Method     string          `json:"method"`
	Params     json.RawMessage `json:"params"`
	APIVersion *int            `json:"api_version,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const (
	defaultMaxRPCBodyBytes int64 = 1 << 20 // 1 MiB
	rpcRequestIDHeader           = "X-MKT-Request-ID"
	maxRequestIDLength           = 64
)

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !s.authorizeRPC(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := s.extractRPCToken(r)
	if !s.rpcLimiter.Allow(rpcRateLimitKey(r, token), 1, s.now()) {
		w.Header().Set("Retry-After", "1")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32029, Message: "rate limit exceeded"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	var req rpcRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPCInvalidRequest(w, req.ID)
		return
	}

	reqID := resolveRequestID(r.Header.Get(rpcRequestIDHeader), req.ID)
	w.Header().Set(rpcRequestIDHeader, reqID)

	if rpcErr := validateRPCAPIVersion(req.APIVersion); rpcErr != nil {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}

	started := time.Now()
	s.logger.Info("rpc request", "request_id", reqID, "method", req.Method, "rpc_id", string(req.ID))

	execute := func() rpcResponse {
		result, rpcErr := s.dispatchRPC(r.Context(), req.Method, req.Params)
		return rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr}
	}

	var resp rpcResponse
	idemKey := rpcIdempotencyKey(r.Header.Get(rpcIdempotencyHeader), token)
	if idemKey != "" && marketrpc.IsMutating(req.Method) {
		cached, replayed, conflict := s.idempotency.do(idemKey, rpcRequestHash(req), s.now(), execute)
		switch {
		case conflict:
			resp = rpcResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &rpcError{Code: -32070, Message: "idempotency key was used with a different request"},
			}
		case replayed:
			resp = cached
			resp.ID = req.ID
			w.Header().Set("X-MKT-Idempotent-Replay", "true")
		default:
			resp = cached
		}
	} else {
		resp = execute()
	}

	elapsed := time.Since(started)
	code := 0
	if resp.Error != nil {
		code = resp.Error.Code
		s.logger.Warn("rpc failed", "request_id", reqID, "method", req.Method, "rpc_code", code, "rpc_message", resp.Error.Message, "latency_ms", elapsed.Milliseconds())
	} else {
		s.logger.Info("rpc response", "request_id", reqID, "method", req.Method, "latency_ms", elapsed.Milliseconds())
	}
	if s.observer != nil {
		s.observer.ObserveRPC(req.Method, code, elapsed)
	}
	writeRPC(w, resp)
}

func (s *Server) dispatchRPC(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpcError) {
	switch method {
	case "health_check":
		return map[string]string{"status": "ok"}, nil
	case "rpc.version":
		return rpcVersionInfo(), nil
	}
	if s.service == nil {
		return nil, &rpcError{Code: -32099, Message: "service is not initialized"}
	}
	if method == "notifications.status" {
		return s.service.NotificationStatus(), nil
	}
	if result, rpcErr, ok := marketrpc.Dispatch(ctx, s.service, method, rawParams); ok {
		if rpcErr != nil {
			return nil, &rpcError{Code: rpcErr.Code, Message: rpcErr.Message, Data: rpcErr.Data}
		}
		return result, nil
	}
	return nil, &rpcError{Code: -32601, Message: "method not found"}
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCInvalidRequest(w http.ResponseWriter, id json.RawMessage) {
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: -32600, Message: "invalid request"},
	})
}

// resolveRequestID prefers the client correlation header, then derives one
// from the JSON-RPC id. Both are reduced to a safe charset for log output.
func resolveRequestID(header string, rpcID json.RawMessage) string {
	if v := sanitizeRequestID(header); v != "" {
		return v
	}
	if v := sanitizeRequestID(string(rpcID)); v != "" && v != "null" {
		return "rpc." + v
	}
	return fmt.Sprintf("rpc_%d", time.Now().UnixNano())
}

func sanitizeRequestID(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxRequestIDLength {
		raw = raw[:maxRequestIDLength]
	}
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
