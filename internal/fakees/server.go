// Package fakees provides an in-memory fake of the search engine's REST API
// for tests.
//
// It understands the bulk endpoint, single document GET/HEAD/PUT/DELETE,
// _search with scrolls, _count and _delete_by_query. Queries support
// match_all, ids and term queries on top-level fields, which is enough to
// exercise the client end to end.
//
// Failures are injected per route with FailNext, and document types can be
// marked as children so requests without a parent are refused the way the
// engine refuses them.
package fakees

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/escrud/escrud.go/internal/codec"
	"github.com/escrud/escrud.go/pkg/constants"
)

type docKey struct {
	index string
	typ   string
	id    string
}

type stored struct {
	source  json.RawMessage
	parent  string
	routing string
	version int64
	seq     int64
}

// Recorded is a request as the server received it.
type Recorded struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

type failure struct {
	status int
	body   string
}

type Server struct {
	mu       sync.Mutex
	docs     map[docKey]*stored
	seq      int64
	children map[string]bool
	failNext map[string][]failure
	scrolls  map[string]*scrollState
	requests []Recorded

	router *mux.Router
	srv    *httptest.Server
}

func NewServer() *Server {
	s := &Server{
		docs:     map[docKey]*stored{},
		children: map[string]bool{},
		failNext: map[string][]failure{},
		scrolls:  map[string]*scrollState{},
	}

	router := mux.NewRouter()
	router.Use(s.record, s.inject)
	router.HandleFunc("/", s.handleInfo).Methods(http.MethodGet)
	router.HandleFunc("/_bulk", s.handleBulk).Methods(http.MethodPost, http.MethodPut)
	router.HandleFunc("/_search/scroll", s.handleScroll).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/_search/scroll", s.handleClearScroll).Methods(http.MethodDelete)
	router.HandleFunc("/{index}/_search", s.handleSearch).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/{index}/{type}/_search", s.handleSearch).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/{index}/_count", s.handleCount).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/{index}/{type}/_count", s.handleCount).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/{index}/_delete_by_query", s.handleDeleteByQuery).Methods(http.MethodPost)
	router.HandleFunc("/{index}/{type}/_delete_by_query", s.handleDeleteByQuery).Methods(http.MethodPost)
	router.HandleFunc("/{index}/{type}/{id}", s.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/{index}/{type}/{id}", s.handleHead).Methods(http.MethodHead)
	router.HandleFunc("/{index}/{type}/{id}", s.handlePut).Methods(http.MethodPut, http.MethodPost)
	router.HandleFunc("/{index}/{type}/{id}", s.handleDelete).Methods(http.MethodDelete)
	s.router = router

	return s
}

// Start serves on a random local port.
func (s *Server) Start() *Server {
	s.srv = httptest.NewServer(s.router)
	return s
}

func (s *Server) URL() string {
	return s.srv.URL
}

func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// RequireParent marks docType as a child type: indexing or reading it without
// a parent fails with a RoutingMissingException.
func (s *Server) RequireParent(docType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[docType] = true
}

// FailNext answers the next request whose path starts with pathPrefix with
// status and body instead of handling it.
func (s *Server) FailNext(pathPrefix string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[pathPrefix] = append(s.failNext[pathPrefix], failure{status: status, body: body})
}

func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Put stores a document directly, bypassing HTTP.
func (s *Server) Put(index, docType, id string, source []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(docKey{index, docType, id}, source, "", "")
}

// Document returns the stored source of a document.
func (s *Server) Document(index, docType, id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[docKey{index, docType, id}]
	if !ok {
		return nil, false
	}
	return slices.Clone([]byte(d.source)), true
}

// Len is the number of stored documents.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Server) store(key docKey, source []byte, parent, routing string) (created bool, version int64) {
	s.seq++
	d, ok := s.docs[key]
	if !ok {
		d = &stored{seq: s.seq}
		s.docs[key] = d
	}
	d.source = slices.Clone(source)
	d.parent = parent
	d.routing = routing
	d.version++
	return !ok, d.version
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f, ok := s.takeFailure(r.URL.Path); ok {
			w.Header().Set("Content-Type", constants.ContentTypeJSON)
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) takeFailure(path string) (failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for prefix, queue := range s.failNext {
		if !strings.HasPrefix(path, prefix) || len(queue) == 0 {
			continue
		}
		f := queue[0]
		if len(queue) == 1 {
			delete(s.failNext, prefix)
		} else {
			s.failNext[prefix] = queue[1:]
		}
		return f, true
	}
	return failure{}, false
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", constants.ContentTypeJSON)
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func routingMissing(key docKey) string {
	return fmt.Sprintf("RoutingMissingException[routing is required for [%s]/[%s]/[%s]]", key.index, key.typ, key.id)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"cluster_name": "fakees",
		"tagline":      "You Know, for Search",
	})
}

// readSource returns the request body as JSON, converting CBOR bodies.
func (s *Server) readSource(r *http.Request) ([]byte, error) {
	c, err := codec.ForContentType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	if c.ContentType() == constants.ContentTypeJSON {
		return io.ReadAll(r.Body)
	}
	var doc any
	if err := c.NewDecoder(r.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
