package escrud

import "github.com/escrud/escrud.go/pkg/constants"

var (
	ErrInvalidIndexName = constants.ErrInvalidIndexName
	ErrDeserialization  = constants.ErrDeserialization
	ErrNotFound         = constants.ErrNotFound
	ErrBadRequest       = constants.ErrBadRequest
	ErrUnexpectedStatus = constants.ErrUnexpectedStatus
	ErrTransport        = constants.ErrTransport
	ErrInvalidResponse  = constants.ErrInvalidResponse
	ErrRoutingMissing   = constants.ErrRoutingMissing
	ErrNilEntity        = constants.ErrNilEntity
)

type (
	InvalidIndexNameError = constants.InvalidIndexNameError
	DeserializationError  = constants.DeserializationError
	NotFoundError         = constants.NotFoundError
	RequestError          = constants.RequestError
	StatusError           = constants.StatusError
	TransportError        = constants.TransportError
)
