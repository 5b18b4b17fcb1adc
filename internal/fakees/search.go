package fakees

import (
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/gofrs/uuid"
	"github.com/gorilla/mux"
)

// matcher decides whether a stored document is a hit.
type matcher func(key docKey, d *stored) bool

func matchAll(docKey, *stored) bool { return true }

// parseQuery understands {"query":{"match_all":{}}}, {"query":{"ids":{"values":[...]}}}
// and {"query":{"term":{"field":value}}}. An empty body matches everything.
func parseQuery(body []byte) (matcher, error) {
	if len(body) == 0 {
		return matchAll, nil
	}
	query, dataType, _, err := jsonparser.Get(body, "query")
	if dataType == jsonparser.NotExist {
		return matchAll, nil
	}
	if err != nil {
		return nil, err
	}

	if _, _, _, err := jsonparser.Get(query, "match_all"); err == nil {
		return matchAll, nil
	}

	if values, _, _, err := jsonparser.Get(query, "ids", "values"); err == nil {
		ids := map[string]bool{}
		_, err := jsonparser.ArrayEach(values, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
			ids[string(value)] = true
		})
		if err != nil {
			return nil, err
		}
		return func(key docKey, _ *stored) bool { return ids[key.id] }, nil
	}

	if term, _, _, err := jsonparser.Get(query, "term"); err == nil {
		var field, want string
		err := jsonparser.ObjectEach(term, func(key, value []byte, _ jsonparser.ValueType, _ int) error {
			field, want = string(key), string(value)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return func(_ docKey, d *stored) bool {
			got, _, _, err := jsonparser.Get(d.source, field)
			return err == nil && string(got) == want
		}, nil
	}

	return nil, jsonparser.UnknownValueTypeError
}

type hit struct {
	key docKey
	doc *stored
}

func (s *Server) find(r *http.Request) ([]hit, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	match, err := parseQuery(body)
	if err != nil {
		return nil, err
	}

	vars := mux.Vars(r)
	index, docType := vars["index"], vars["type"]

	var hits []hit
	for key, d := range s.docs {
		if index != "_all" && key.index != index {
			continue
		}
		if docType != "" && key.typ != docType {
			continue
		}
		if match(key, d) {
			hits = append(hits, hit{key: key, doc: d})
		}
	}
	slices.SortFunc(hits, func(a, b hit) int {
		return int(a.doc.seq - b.doc.seq)
	})
	return hits, nil
}

type scrollState struct {
	hits  []hit
	size  int
	total int
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := s.find(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "SearchPhaseExecutionException[" + err.Error() + "]", "status": http.StatusBadRequest})
		return
	}

	total := len(hits)
	size := len(hits)
	if n, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && n < size {
		size = n
	}

	scrollID := ""
	if r.URL.Query().Get("scroll") != "" {
		id, err := uuid.NewV4()
		if err != nil {
			respondJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		scrollID = id.String()
		s.scrolls[scrollID] = &scrollState{hits: hits[size:], size: max(size, 1), total: total}
	}
	respondJSON(w, http.StatusOK, hitsResponse(hits[:size], total, scrollID))
}

func hitsResponse(hits []hit, total int, scrollID string) map[string]any {
	docs := make([]any, 0, len(hits))
	for _, h := range hits {
		doc := meta(h.key)
		doc["_score"] = 1.0
		doc["_source"] = h.doc.source
		docs = append(docs, doc)
	}

	res := map[string]any{
		"took":      1,
		"timed_out": false,
		"hits": map[string]any{
			"total":     map[string]any{"value": total, "relation": "eq"},
			"max_score": 1.0,
			"hits":      docs,
		},
	}
	if scrollID != "" {
		res["_scroll_id"] = scrollID
	}
	return res
}

func scrollMissing(w http.ResponseWriter, id string) {
	respondJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{
			"type":   "search_context_missing_exception",
			"reason": "No search context found for id [" + id + "]",
		},
		"status": http.StatusNotFound,
	})
}

// handleScroll returns the next page of an open scroll. Pages are snapshots
// taken when the scroll was opened.
func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "status": http.StatusBadRequest})
		return
	}
	id, err := jsonparser.GetString(body, "scroll_id")
	if err != nil {
		id = r.URL.Query().Get("scroll_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.scrolls[id]
	if !ok {
		scrollMissing(w, id)
		return
	}
	n := min(state.size, len(state.hits))
	page := state.hits[:n]
	state.hits = state.hits[n:]
	respondJSON(w, http.StatusOK, hitsResponse(page, state.total, id))
}

func (s *Server) handleClearScroll(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "status": http.StatusBadRequest})
		return
	}
	var ids []string
	_, _ = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		ids = append(ids, string(value))
	}, "scroll_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	freed := 0
	for _, id := range ids {
		if _, ok := s.scrolls[id]; ok {
			delete(s.scrolls, id)
			freed++
		}
	}
	status := http.StatusOK
	if freed == 0 {
		status = http.StatusNotFound
	}
	respondJSON(w, status, map[string]any{"succeeded": true, "num_freed": freed})
}

// OpenScrolls returns the number of scroll contexts not yet cleared.
func (s *Server) OpenScrolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scrolls)
}

func (s *Server) handleDeleteByQuery(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := s.find(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "status": http.StatusBadRequest})
		return
	}
	for _, h := range hits {
		delete(s.docs, h.key)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"took":      1,
		"timed_out": false,
		"total":     len(hits),
		"deleted":   len(hits),
		"failures":  []any{},
	})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := s.find(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "status": http.StatusBadRequest})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"count": len(hits)})
}
