package fakees

import (
	"bytes"
	"net/http"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	body, err := s.readSource(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	lines := bytes.Split(body, []byte("\n"))
	if len(lines) > 0 && len(bytes.TrimSpace(lines[len(lines)-1])) == 0 {
		lines = lines[:len(lines)-1]
	} else {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "ActionRequestValidationException[The bulk request must be terminated by a newline]",
			"status": http.StatusBadRequest,
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := []any{}
	hasErrors := false
	for i := 0; i < len(lines); i++ {
		if len(bytes.TrimSpace(lines[i])) == 0 {
			continue
		}
		op, header, err := bulkHeader(lines[i])
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": "bad bulk header: " + err.Error(), "status": http.StatusBadRequest})
			return
		}

		key := docKey{}
		key.index, _ = jsonparser.GetString(header, "_index")
		key.typ, _ = jsonparser.GetString(header, "_type")
		key.id, _ = jsonparser.GetString(header, "_id")
		parent, _ := jsonparser.GetString(header, "_parent")
		routing, _ := jsonparser.GetString(header, "_routing")

		res := meta(key)
		switch op {
		case "index", "create":
			i++
			if i >= len(lines) || !json.Valid(lines[i]) {
				respondJSON(w, http.StatusBadRequest, map[string]any{"error": "bulk document missing or invalid", "status": http.StatusBadRequest})
				return
			}
			if s.needsParent(key, parent+routing) {
				res["status"] = http.StatusBadRequest
				res["error"] = map[string]any{"type": "routing_missing_exception", "reason": routingMissing(key)}
				hasErrors = true
				break
			}
			created, version := s.store(key, lines[i], parent, routing)
			res["_version"] = version
			res["status"] = http.StatusOK
			if created {
				res["status"] = http.StatusCreated
			}
		case "delete":
			if _, ok := s.docs[key]; ok {
				delete(s.docs, key)
				res["found"] = true
				res["status"] = http.StatusOK
			} else {
				res["found"] = false
				res["status"] = http.StatusNotFound
			}
		default:
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown bulk action " + op, "status": http.StatusBadRequest})
			return
		}
		items = append(items, map[string]any{op: res})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"took":   1,
		"errors": hasErrors,
		"items":  items,
	})
}

// bulkHeader splits {"op":{...}} into its action and metadata.
func bulkHeader(line []byte) (op string, header []byte, err error) {
	err = jsonparser.ObjectEach(line, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType == jsonparser.Object && op == "" {
			op = string(key)
			header = value
		}
		return nil
	})
	if err == nil && op == "" {
		err = jsonparser.KeyPathNotFoundError
	}
	return op, header, err
}
