package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/escrud/escrud.go/pkg/constants"
)

// CBOR encodes documents as RFC 8949 CBOR. Times are written as RFC 3339
// strings so the engine's date detection still applies, and maps decode with
// string keys so decoded documents look like their JSON counterparts.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func NewCBOR() (*CBOR, error) {
	enc, err := cbor.EncOptions{
		Time: cbor.TimeRFC3339Nano,
		Sort: cbor.SortNone,
	}.EncMode()
	if err != nil {
		return nil, err
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: mapStringAny,
	}.DecMode()
	if err != nil {
		return nil, err
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

func (c *CBOR) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *CBOR) NewEncoder(w io.Writer) Encoder {
	return c.enc.NewEncoder(w)
}

func (c *CBOR) ContentType() string {
	return constants.ContentTypeCBOR
}

func (c *CBOR) Unmarshal(data []byte, dst any) error {
	return c.dec.Unmarshal(data, dst)
}

func (c *CBOR) NewDecoder(r io.Reader) Decoder {
	return c.dec.NewDecoder(r)
}

var mapStringAny = reflect.TypeOf(map[string]any(nil))
