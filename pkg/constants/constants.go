package constants

import "time"

var (
	HTTPScheme       = "http"
	HTTPSecureScheme = "https"
)

const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
	ContentTypeCBOR   = "application/cbor"
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	DefaultBaseURL     = "http://localhost:9200"

	// OpaqueIDHeader is echoed back by the engine in its slow logs and tasks API.
	OpaqueIDHeader = "X-Opaque-Id"
)
