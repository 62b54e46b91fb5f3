// Package adminhttp exposes a small HTTP surface alongside the RESP2
// listener: a JSON command console, cluster/shard stats, and a Prometheus
// scrape endpoint, built on chi the way the teacher's admin commands are
// built on its own command registry (spec.md §6).
package adminhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shardkv/shardkv/internal/cluster"
	"github.com/shardkv/shardkv/internal/metrics"
	"github.com/shardkv/shardkv/internal/protocol"
)

// Server hosts the admin HTTP surface over one cluster.Manager.
type Server struct {
	manager *cluster.Manager
	metrics *metrics.Metrics
	warnf   func(format string, args ...interface{})
	router  chi.Router
}

// New builds the admin HTTP handler. mx may be nil, in which case
// GET /metrics responds 404.
func New(manager *cluster.Manager, mx *metrics.Metrics, warnf func(format string, args ...interface{})) *Server {
	if warnf == nil {
		warnf = func(string, ...interface{}) {}
	}
	s := &Server{manager: manager, metrics: mx, warnf: warnf}

	r := chi.NewRouter()
	r.Post("/command", s.handleCommand)
	r.Get("/stats", s.handleStats)
	r.Get("/shards", s.handleShards)
	if mx != nil {
		r.Get("/metrics", mx.Handler().ServeHTTP)
	}
	s.router = r
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// commandRequest is the POST /command body: a single command line, e.g.
// "SET key value".
type commandRequest struct {
	Command string `json:"command"`
}

// commandResponse mirrors the shape back to the caller: whether the
// command produced a RESP error, and its rendered result text.
type commandResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commandResponse{Success: false, Result: "invalid JSON body"})
		return
	}

	fields := strings.Fields(req.Command)
	if len(fields) == 0 {
		writeJSON(w, http.StatusBadRequest, commandResponse{Success: false, Result: "empty command"})
		return
	}

	elems := make([]*protocol.Value, len(fields))
	for i, f := range fields {
		elems[i] = protocol.BulkString([]byte(f))
	}
	frame := protocol.Array(elems)

	reply := s.manager.Execute(frame, 0, r.RemoteAddr)
	writeJSON(w, http.StatusOK, commandResponse{
		Success: reply.Kind != protocol.KindError,
		Result:  formatReply(reply),
	})
}

// formatReply renders a RESP2 reply as human-readable text, the same
// shape a terminal client would print.
func formatReply(v *protocol.Value) string {
	switch v.Kind {
	case protocol.KindSimpleString:
		return v.Str
	case protocol.KindError:
		return "Error: " + v.Str
	case protocol.KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case protocol.KindBulkString:
		if v.BulkNull {
			return "(nil)"
		}
		return string(v.Bulk)
	case protocol.KindArray:
		if v.ArrNull || len(v.Elems) == 0 {
			return "(empty array)"
		}
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = fmt.Sprintf("%d) %s", i+1, formatReply(e))
		}
		return strings.Join(parts, "\n")
	default:
		return "(unknown)"
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.AggregateStats())
}

func (s *Server) handleShards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.ShardStats())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
