// Package codec abstracts the body encoding of single-document requests.
package codec

import (
	"io"
	"mime"

	"github.com/escrud/escrud.go/pkg/constants"
)

type Encoder interface {
	Encode(v any) error
}

type Decoder interface {
	Decode(v any) error
}

// Marshaler encodes request bodies and names the Content-Type they are sent
// with.
type Marshaler interface {
	Marshal(v any) ([]byte, error)
	NewEncoder(w io.Writer) Encoder
	ContentType() string
}

type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
	NewDecoder(r io.Reader) Decoder
}

// Codec is both halves; the engine answers in the encoding it was sent.
type Codec interface {
	Marshaler
	Unmarshaler
}

// ForContentType returns the codec for a Content-Type header value. Parameters
// such as charset are ignored, and an empty value means JSON. Bulk bodies are
// newline-delimited JSON and decode line by line with the JSON codec.
func ForContentType(contentType string) (Codec, error) {
	if contentType == "" {
		return NewJSON(), nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, constants.ErrUnsupportedCodec
	}
	switch mediaType {
	case constants.ContentTypeJSON, constants.ContentTypeNDJSON:
		return NewJSON(), nil
	case constants.ContentTypeCBOR:
		return NewCBOR()
	default:
		return nil, constants.ErrUnsupportedCodec
	}
}
