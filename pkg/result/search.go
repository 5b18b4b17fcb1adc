package result

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/buger/jsonparser"

	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/mapping"
)

type SearchResult struct {
	Took     int64
	TimedOut bool
	Total    int64
	MaxScore float64
	ScrollID string
	Hits     []*Document
}

// Search parses a search answer, decoding every hit's _source into t.
func Search(status int, body []byte, s mapping.Strategy, t reflect.Type) (*SearchResult, error) {
	if err := CheckStatus(status, body); err != nil {
		return nil, err
	}

	hits, dataType, _, err := jsonparser.Get(body, "hits")
	if err != nil || dataType != jsonparser.Object {
		return nil, fmt.Errorf("%w: no hits object", constants.ErrInvalidResponse)
	}

	res := &SearchResult{}
	res.Took, _ = jsonparser.GetInt(body, "took")
	res.TimedOut, _ = jsonparser.GetBoolean(body, "timed_out")
	res.ScrollID, _ = jsonparser.GetString(body, "_scroll_id")
	res.MaxScore, _ = jsonparser.GetFloat(hits, "max_score")
	if res.Total, err = total(hits); err != nil {
		return nil, err
	}

	var parseErr error
	_, err = jsonparser.ArrayEach(hits, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			parseErr = fmt.Errorf("%w: hit is a %s", constants.ErrInvalidResponse, dataType)
			return
		}
		doc, err := parseDocument(value, s, t)
		if err != nil {
			parseErr = err
			return
		}
		res.Hits = append(res.Hits, doc)
	}, "hits")
	if parseErr != nil {
		return nil, parseErr
	}
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidResponse, err)
	}
	return res, nil
}

// total reads hits.total, which is a number in older engines and
// {"value": n, "relation": ...} in newer ones.
func total(hits []byte) (int64, error) {
	value, dataType, _, err := jsonparser.Get(hits, "total")
	if err != nil {
		return 0, nil
	}
	switch dataType {
	case jsonparser.Number:
		return strconv.ParseInt(string(value), 10, 64)
	case jsonparser.Object:
		n, err := jsonparser.GetInt(value, "value")
		if err != nil {
			return 0, fmt.Errorf("%w: hits.total: %w", constants.ErrInvalidResponse, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: hits.total is a %s", constants.ErrInvalidResponse, dataType)
	}
}

// Count returns the count field of a _count answer.
func Count(status int, body []byte) (int64, error) {
	if err := CheckStatus(status, body); err != nil {
		return 0, err
	}
	n, err := jsonparser.GetInt(body, "count")
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", constants.ErrInvalidResponse, err)
	}
	return n, nil
}
