package result

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/buger/jsonparser"

	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/mapping"
)

// Key names a single document.
type Key struct {
	Index string
	Type  string
	ID    string
}

// Document is one entity together with the metadata it was stored under.
type Document struct {
	Index   string
	Type    string
	ID      string
	Version int64
	Score   float64
	// Source is a pointer to a new value of the requested type.
	Source any
}

// Get parses the answer to a single document lookup.
func Get(status int, body []byte, s mapping.Strategy, t reflect.Type, key Key) (*Document, error) {
	if status == http.StatusNotFound {
		return nil, notFound(key)
	}
	if err := CheckStatus(status, body); err != nil {
		return nil, err
	}

	found, err := jsonparser.GetBoolean(body, "found")
	if err == nil && !found {
		return nil, notFound(key)
	}

	return parseDocument(body, s, t)
}

// Exists is true for 200 and false for 404.
func Exists(status int, body []byte) (bool, error) {
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	if err := CheckStatus(status, body); err != nil {
		return false, err
	}
	return false, &constants.StatusError{StatusCode: status, Description: string(body)}
}

func parseDocument(raw []byte, s mapping.Strategy, t reflect.Type) (*Document, error) {
	source, dataType, _, err := jsonparser.Get(raw, "_source")
	if err != nil || dataType != jsonparser.Object {
		return nil, fmt.Errorf("%w: no _source object", constants.ErrInvalidResponse)
	}

	entity, err := s.ParseEntity(source, t)
	if err != nil {
		return nil, err
	}

	doc := &Document{Source: entity}
	doc.Index, _ = jsonparser.GetString(raw, "_index")
	doc.Type, _ = jsonparser.GetString(raw, "_type")
	doc.ID, _ = jsonparser.GetString(raw, "_id")
	doc.Version, _ = jsonparser.GetInt(raw, "_version")
	doc.Score, _ = jsonparser.GetFloat(raw, "_score")
	return doc, nil
}

func notFound(key Key) error {
	return &constants.NotFoundError{Index: key.Index, Type: key.Type, ID: key.ID}
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, constants.ErrNotFound)
}
