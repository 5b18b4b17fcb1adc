package codec

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/escrud/escrud.go/pkg/constants"
)

// JSON is the default codec, backed by goccy/go-json.
type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) NewEncoder(w io.Writer) Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

func (JSON) ContentType() string {
	return constants.ContentTypeJSON
}

func (JSON) Unmarshal(data []byte, dst any) error {
	return json.Unmarshal(data, dst)
}

func (JSON) NewDecoder(r io.Reader) Decoder {
	return json.NewDecoder(r)
}
