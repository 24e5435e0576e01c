// Package frontend implements the HTTP front-end and the
// per-connection lifecycle and counters. It is the only package
// that serves HTTP; everything downstream (codec, handlers) speaks
// plain Go values.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/perfwatcher/perfwatcherd/jsonrpc"
	"github.com/perfwatcher/perfwatcherd/logger"
)

// maxBodySize bounds memory for a single in-flight body; combined with
// MaxClients this bounds total request memory.
const maxBodySize = 1 << 20 // 1 MiB

const (
	contentTypeJSONRPC = "application/json-rpc"
	contentTypeHTML    = "text/html"
	contentTypeFormURL = "application/x-www-form-urlencoded"
)

// Server is the HTTP front-end. One worker (goroutine, courtesy of
// net/http) runs per connection; the only state shared across workers is
// counters and the registry/cache reachable through it.
type Server struct {
	httpServer *http.Server
	counters   *Counters
	log        *logger.Logger
}

// New builds a Server listening on addr (":8080"-style) that dispatches
// every POST body to reg via the jsonrpc codec.
func New(addr string, reg *jsonrpc.Registry, counters *Counters, log *logger.Logger) *Server {
	s := &Server{counters: counters, log: log}
	mux := http.NewServeMux()
	mux.Handle("/", s.handler(reg))
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// ListenAndServe blocks, serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handler implements the admission, buffering, decode and dispatch
// sequence an HTTP front-end needs. The admission check runs first for
// every verb - a GET arriving while the server is already at
// maxClients gets the same 503 a POST would - and only afterward does
// the verb get inspected. Only a POST holds an active slot, so only a
// POST defers counters.Release; a GET that clears admission still
// counts toward new connections but has no slot to give back.
func (s *Server) handler(reg *jsonrpc.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		isPost := r.Method == http.MethodPost
		if !s.counters.TryAdmit(isPost) {
			s.writeAdmissionRejected(w)
			s.counters.IncrFailure()
			return
		}

		if !isPost {
			s.writeStructuralFailure(w, fmt.Sprintf("method %s not allowed", r.Method))
			s.counters.IncrFailure()
			return
		}
		defer s.counters.Release()

		formEncoded := r.Header.Get("Content-Type") == contentTypeFormURL

		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeStructuralFailure(w, "error reading request body")
			s.counters.IncrFailure()
			return
		}
		if len(body) == 0 {
			s.writeStructuralFailure(w, "empty request body")
			s.counters.IncrFailure()
			return
		}

		if formEncoded {
			decoded, err := url.QueryUnescape(string(body))
			if err != nil {
				s.writeStructuralFailure(w, "malformed percent-encoding")
				s.counters.IncrFailure()
				return
			}
			body = []byte(decoded)
		}

		reqLog := logger.WithRequestID(s.log.Logger, requestID(r))
		reqLog.Debug("dispatching request",
			zap.String("remote", r.RemoteAddr),
			zap.String("size", humanize.Bytes(uint64(len(body)))),
		)

		ctx := logger.WithRequestLogger(r.Context(), reqLog)
		answer, ok := jsonrpc.ParseRequest(ctx, reg, body)
		if !ok {
			s.writeStructuralFailure(w, "malformed JSON-RPC request")
			s.counters.IncrFailure()
			return
		}

		w.Header().Set("Content-Type", contentTypeJSONRPC)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(answer); err != nil {
			reqLog.Warn("error writing response", zap.Error(err))
		}
		s.counters.IncrSuccess()
	}
}

// writeAdmissionRejected is the admission-limit response: HTTP 503, Connection: close, the
// fixed -32400 envelope.
func (s *Server) writeAdmissionRejected(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentTypeJSONRPC)
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write(jsonrpc.AdmissionRejectedBody())
}

// writeStructuralFailure is every structural failure: bad verb, empty
// body, decode failure, malformed JSON. The body is a generic HTML page;
// clients are not meant to parse it as JSON-RPC.
func (s *Server) writeStructuralFailure(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, "<html><body><h1>400 Bad Request</h1><p>%s</p></body></html>", reason)
}

// requestID derives a per-request id for logging. It never touches the
// wire envelope; the JSON-RPC id is a separate, caller-supplied value.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return newRequestID()
}
