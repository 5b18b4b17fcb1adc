// Package result turns engine responses into entities and typed errors.
package result

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/escrud/escrud.go/pkg/constants"
)

const routingMissing = "RoutingMissingException"

// CheckStatus maps a non-2xx answer to an error. 404 is left to the caller,
// which knows what was not found.
func CheckStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest:
		err := &constants.RequestError{Description: string(body)}
		if bytes.Contains(body, []byte(routingMissing)) {
			return fmt.Errorf("%w: %w", constants.ErrRoutingMissing, err)
		}
		return err
	default:
		return &constants.StatusError{StatusCode: status, Description: string(body)}
	}
}
