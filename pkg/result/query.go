package result

import (
	"fmt"
	"net/http"

	"github.com/buger/jsonparser"

	"github.com/escrud/escrud.go/pkg/constants"
)

type DeleteByQueryResult struct {
	Took     int64
	TimedOut bool
	Total    int64
	Deleted  int64
	// Failures lists the documents that matched but could not be deleted.
	Failures []BulkItem
}

// DeleteByQuery parses the answer to a _delete_by_query request.
func DeleteByQuery(status int, body []byte) (*DeleteByQueryResult, error) {
	if err := CheckStatus(status, body); err != nil {
		return nil, err
	}

	res := &DeleteByQueryResult{}
	res.Took, _ = jsonparser.GetInt(body, "took")
	res.TimedOut, _ = jsonparser.GetBoolean(body, "timed_out")
	res.Total, _ = jsonparser.GetInt(body, "total")
	deleted, err := jsonparser.GetInt(body, "deleted")
	if err != nil {
		return nil, fmt.Errorf("%w: deleted: %w", constants.ErrInvalidResponse, err)
	}
	res.Deleted = deleted

	var itemErr error
	_, err = jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if itemErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			itemErr = fmt.Errorf("%w: failure is a %s", constants.ErrInvalidResponse, dataType)
			return
		}
		res.Failures = append(res.Failures, failure(value))
	}, "failures")
	if itemErr != nil {
		return nil, itemErr
	}
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidResponse, err)
	}
	return res, nil
}

func failure(value []byte) BulkItem {
	item := BulkItem{Op: "delete"}
	item.Index, _ = jsonparser.GetString(value, "index")
	item.Type, _ = jsonparser.GetString(value, "type")
	item.ID, _ = jsonparser.GetString(value, "id")
	if status, err := jsonparser.GetInt(value, "status"); err == nil {
		item.Status = int(status)
	}
	errType, _ := jsonparser.GetString(value, "cause", "type")
	reason, _ := jsonparser.GetString(value, "cause", "reason")
	item.Error = errType + ": " + reason
	return item
}

// ClearScroll checks the answer to a scroll deletion. A scroll that already
// expired is not an error.
func ClearScroll(status int, body []byte) error {
	if status == http.StatusNotFound {
		return nil
	}
	return CheckStatus(status, body)
}
