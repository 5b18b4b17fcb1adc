package fakees

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

func keyOf(r *http.Request) docKey {
	vars := mux.Vars(r)
	return docKey{index: vars["index"], typ: vars["type"], id: vars["id"]}
}

func meta(key docKey) map[string]any {
	return map[string]any{"_index": key.index, "_type": key.typ, "_id": key.id}
}

func (s *Server) needsParent(key docKey, parent string) bool {
	return s.children[key.typ] && parent == ""
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := keyOf(r)
	parent := r.URL.Query().Get("parent")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.needsParent(key, parent+r.URL.Query().Get("routing")) {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": routingMissing(key), "status": http.StatusBadRequest})
		return
	}

	d, ok := s.docs[key]
	res := meta(key)
	if !ok {
		res["found"] = false
		respondJSON(w, http.StatusNotFound, res)
		return
	}
	res["found"] = true
	res["_version"] = d.version
	res["_source"] = d.source
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	key := keyOf(r)

	s.mu.Lock()
	_, ok := s.docs[key]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := keyOf(r)
	q := r.URL.Query()

	source, err := s.readSource(r)
	if err != nil || !json.Valid(source) {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "MapperParsingException[failed to parse]", "status": http.StatusBadRequest})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.needsParent(key, q.Get("parent")+q.Get("routing")) {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": routingMissing(key), "status": http.StatusBadRequest})
		return
	}

	created, version := s.store(key, source, q.Get("parent"), q.Get("routing"))
	res := meta(key)
	res["_version"] = version
	res["created"] = created
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, res)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := keyOf(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	res := meta(key)
	if _, ok := s.docs[key]; !ok {
		res["found"] = false
		respondJSON(w, http.StatusNotFound, res)
		return
	}
	delete(s.docs, key)
	res["found"] = true
	respondJSON(w, http.StatusOK, res)
}
