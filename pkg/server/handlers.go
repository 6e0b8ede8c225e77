package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"lieworks/lie/pkg/engine/types"
)

// Dispatcher is the engine surface the handlers need.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *types.Request) *types.Result
}

// writeResult serializes a Result with the HTTP status derived from its
// outcome. Partial results are 200: the client got usable output.
func writeResult(w http.ResponseWriter, res *types.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode(res))
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Warn("failed to write result", "error", err)
	}
}

func statusCode(res *types.Result) int {
	if res.Status != types.StatusError || res.Error == nil {
		return http.StatusOK
	}
	switch res.Error.Kind {
	case types.ErrInvalidRequest:
		return http.StatusBadRequest
	case types.ErrContextOverflow:
		return http.StatusRequestEntityTooLarge
	case types.ErrTimeout:
		return http.StatusGatewayTimeout
	case types.ErrBackendFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeResult(w, &types.Result{
		Status: types.StatusError,
		Error:  &types.ErrorInfo{Kind: types.ErrInvalidRequest, Message: msg},
	})
}

// completionHandler serves POST /v1/completion. The body is a Request;
// the intent is forced to completion.
func (s *Server) completionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	req.Intent = types.IntentCompletion

	writeResult(w, s.engine.Dispatch(r.Context(), &req))
}

// memoryHandler serves the memory endpoints.
//
//	POST /v1/memory {key, value}  -> memory-set
//	POST /v1/memory {value}       -> memory-summary append
//	GET  /v1/memory?key=k         -> memory-get
//	GET  /v1/memory               -> memory-summary read
func (s *Server) memoryHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req types.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body: "+err.Error())
			return
		}
		if req.Key != "" {
			req.Intent = types.IntentMemorySet
		} else {
			req.Intent = types.IntentMemorySummary
		}
		writeResult(w, s.engine.Dispatch(r.Context(), &req))

	case http.MethodGet:
		req := types.Request{Intent: types.IntentMemorySummary}
		if key := r.URL.Query().Get("key"); key != "" {
			req = types.Request{Intent: types.IntentMemoryGet, Key: key}
		}
		writeResult(w, s.engine.Dispatch(r.Context(), &req))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// healthHandler serves GET /v1/health via the health intent.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeResult(w, s.engine.Dispatch(r.Context(), &types.Request{Intent: types.IntentHealth}))
}
