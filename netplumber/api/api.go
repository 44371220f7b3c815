// Copyright 2026 The NetPlumber Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves read-only queries on a loaded network over HTTP.
//
// All responses are JSON. Errors are reported as RFC 7807 problem documents.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/netplumber/netplumber/netplumber/verify"
	"github.com/netplumber/netplumber/pkg/plumber"
)

// Problem types.
const (
	BadRequest    = "/problems/bad-request"
	NotFound      = "/problems/not-found"
	InternalError = "/problems/internal-error"
)

// Problem describes an error response.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Server answers queries on a network. Requests are serialized because the
// plumber is not safe for concurrent use.
type Server struct {
	mu      sync.Mutex
	network *verify.Network
}

// New creates a server for n.
func New(n *verify.Network) *Server {
	return &Server{network: n}
}

// Handler registers the API routes on r and returns it.
func (s *Server) Handler(r chi.Router) http.Handler {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Get("/stats", s.GetStats)
	r.Get("/summary", s.GetSummary)
	r.Get("/report", s.GetReport)
	r.Get("/network", s.GetNetwork)
	r.Get("/links", s.GetLinks)
	r.Get("/pipes", s.GetPipes)
	r.Get("/flows", s.GetFlowTrees)
	r.Get("/flows/{node}", s.GetFlows)
	r.Get("/slices", s.GetSlices)
	r.Get("/dependencies", s.GetDependencies)
	r.Get("/probes", s.GetProbes)
	r.Get("/probes/{id}", s.GetProbe)
	return r
}

// query runs f with the plumber locked and writes its result.
func (s *Server) query(w http.ResponseWriter, f func(n *verify.Network) any) {
	s.mu.Lock()
	rep := f(s.network)
	s.mu.Unlock()
	Respond(w, rep)
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return n.Plumber.Stats() })
}

func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return n.Loader.Summary() })
}

func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return n.Report() })
}

func (s *Server) GetNetwork(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return n.Plumber.DumpNetwork() })
}

func (s *Server) GetLinks(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return nonNil(n.Plumber.Links()) })
}

func (s *Server) GetPipes(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return nonNil(n.Plumber.DumpPipes()) })
}

func (s *Server) GetFlowTrees(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return nonNil(n.Plumber.DumpFlowTrees()) })
}

// GetFlows lists the flows at one node.
func (s *Server) GetFlows(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "node")
	if !ok {
		return
	}
	s.mu.Lock()
	flows := s.network.Plumber.Flows(plumber.NodeID(id))
	s.mu.Unlock()
	if flows == nil {
		ErrorResponse(w, Problem{
			Type:   NotFound,
			Title:  "unknown node",
			Status: http.StatusNotFound,
			Detail: "node " + strconv.FormatUint(id, 10),
		})
		return
	}
	Respond(w, flows)
}

func (s *Server) GetSlices(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return nonNil(n.Plumber.DumpSlices()) })
}

func (s *Server) GetDependencies(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return nonNil(n.Plumber.DumpDependencies()) })
}

func (s *Server) GetProbes(w http.ResponseWriter, r *http.Request) {
	s.query(w, func(n *verify.Network) any { return nonNil(n.Report().Probes) })
}

// GetProbe returns the state of the probe with the given policy id.
func (s *Server) GetProbe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	var (
		state plumber.ProbeState
		err   error
	)
	node, found := s.network.Loader.Probe(id)
	if found {
		state, err = s.network.Plumber.ProbeState(node)
	}
	s.mu.Unlock()
	if !found || err != nil {
		ErrorResponse(w, Problem{
			Type:   NotFound,
			Title:  "unknown probe",
			Status: http.StatusNotFound,
			Detail: "probe " + strconv.FormatUint(id, 10),
		})
		return
	}
	Respond(w, state)
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uint64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		ErrorResponse(w, Problem{
			Type:   BadRequest,
			Title:  "malformed " + param,
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
		return 0, false
	}
	return id, true
}

// nonNil makes empty lists encode as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Respond writes rep as an indented JSON document.
func Respond(w http.ResponseWriter, rep any) {
	raw, err := json.MarshalIndent(rep, "", "    ")
	if err != nil {
		ErrorResponse(w, Problem{
			Type:   InternalError,
			Title:  "unable to marshal response",
			Status: http.StatusInternalServerError,
			Detail: err.Error(),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(append(raw, '\n'))
}

// ErrorResponse writes a problem document.
func ErrorResponse(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	// Nothing left to do on failure.
	_ = enc.Encode(p)
}
