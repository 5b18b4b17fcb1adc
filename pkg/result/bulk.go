package result

import (
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/escrud/escrud.go/pkg/constants"
)

// BulkItem is the engine's answer for one operation of a bulk request.
type BulkItem struct {
	Op     string
	Index  string
	Type   string
	ID     string
	Status int
	// Error is "type: reason" when the operation failed.
	Error string
}

func (i BulkItem) Failed() bool {
	return i.Error != "" || i.Status >= 300
}

type BulkResult struct {
	Took   int64
	Errors bool
	Items  []BulkItem
}

// Failed returns the items that did not succeed, in response order.
func (r *BulkResult) Failed() []BulkItem {
	var failed []BulkItem
	for _, item := range r.Items {
		if item.Failed() {
			failed = append(failed, item)
		}
	}
	return failed
}

// Bulk parses the answer to a bulk request.
func Bulk(status int, body []byte) (*BulkResult, error) {
	if err := CheckStatus(status, body); err != nil {
		return nil, err
	}

	res := &BulkResult{}
	res.Took, _ = jsonparser.GetInt(body, "took")
	res.Errors, _ = jsonparser.GetBoolean(body, "errors")

	var itemErr error
	_, err := jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if itemErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			itemErr = fmt.Errorf("%w: bulk item is a %s", constants.ErrInvalidResponse, dataType)
			return
		}
		itemErr = jsonparser.ObjectEach(value, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
			item, err := bulkItem(string(key), value)
			if err != nil {
				return err
			}
			res.Items = append(res.Items, item)
			return nil
		})
	}, "items")
	if itemErr != nil {
		return nil, itemErr
	}
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidResponse, err)
	}
	return res, nil
}

func bulkItem(op string, value []byte) (BulkItem, error) {
	item := BulkItem{Op: op}
	item.Index, _ = jsonparser.GetString(value, "_index")
	item.Type, _ = jsonparser.GetString(value, "_type")
	item.ID, _ = jsonparser.GetString(value, "_id")

	status, err := jsonparser.GetInt(value, "status")
	if err != nil {
		return item, fmt.Errorf("%w: %s item without status", constants.ErrInvalidResponse, op)
	}
	item.Status = int(status)

	errValue, dataType, _, err := jsonparser.Get(value, "error")
	if err != nil {
		return item, nil
	}
	switch dataType {
	case jsonparser.Object:
		errType, _ := jsonparser.GetString(errValue, "type")
		reason, _ := jsonparser.GetString(errValue, "reason")
		item.Error = errType + ": " + reason
	case jsonparser.String:
		item.Error = string(errValue)
	}
	return item, nil
}
