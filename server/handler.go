package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/richardwooding/ytfeed/model"
	"github.com/richardwooding/ytfeed/version"
)

// Routes served on the HTTP transport.
const (
	RouteFeed    = "/api/youtube"
	RouteHealth  = "/healthz"
	RouteVersion = "/version"
	RouteMCP     = "/mcp"
)

// ErrorIDHeader carries the correlation id of a failed request.
const ErrorIDHeader = "X-Error-Id"

const messageMethodNotAllowed = "Method not allowed"

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(RouteFeed, s.handleFeed)
	mux.HandleFunc(RouteHealth, s.handleHealth)
	mux.HandleFunc(RouteVersion, s.handleVersion)
	if s.enableMCP {
		mux.Handle(RouteMCP, s.mcpHandler())
	}
	return s.logRequests(mux)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	q := r.URL.Query()
	req := s.resolver.NewRequest(q.Get("handle"), q.Get("channelId"), q.Get("maxResults"))

	resp, err := s.resolver.ResolveFeed(ctx, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", fmt.Sprintf("s-maxage=%d, stale-while-revalidate=%d",
		int(s.freshFor.Seconds()), int(s.staleFor.Seconds())))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, version.Get())
}

// writeError answers with the public error body. Details stay in the log,
// linked by the correlation id header.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if fe, ok := model.AsFeedError(err); ok {
		w.Header().Set(ErrorIDHeader, fe.ID)
		model.LogFeedError(s.logger, fe)
	} else {
		s.logger.Error("unclassified error", zap.Error(err))
	}
	writeJSON(w, model.HTTPStatus(err), model.NewErrorResponse(err))
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{Error: messageMethodNotAllowed})
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Flush keeps streaming MCP responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
