package autoinvest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// jsonObjectWriter helps construct a JSON object with a specific field order.
// Its zero value is ready to use.
//
// encoding/json sorts map keys, which would destroy the drain order persisted
// in the cache files; this writer emits keys in the order they are appended.
type jsonObjectWriter struct {
	buf bytes.Buffer
	err error
}

// Append adds one key/value pair to the object being built.
func (w *jsonObjectWriter) Append(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("cannot marshal field %q: %w", key, err)
		return w
	}
	return w.AppendRaw(key, raw)
}

// AppendRaw adds one key with an already-marshaled JSON value.
func (w *jsonObjectWriter) AppendRaw(key string, raw []byte) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	if w.buf.Len() > 0 {
		w.buf.WriteByte(',')
	}
	name, err := json.Marshal(key)
	if err != nil {
		w.err = fmt.Errorf("cannot marshal key %q: %w", key, err)
		return w
	}
	w.buf.Write(name)
	w.buf.WriteByte(':')
	w.buf.Write(raw)
	return w
}

// Optional adds a string field only when it is non empty.
func (w *jsonObjectWriter) Optional(key, value string) *jsonObjectWriter {
	if value == "" {
		return w
	}
	return w.Append(key, value)
}

// MarshalJSON implements the json.Marshaler interface, closing the object.
func (w *jsonObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	out := make([]byte, 0, w.buf.Len()+2)
	out = append(out, '{')
	out = append(out, w.buf.Bytes()...)
	out = append(out, '}')
	return out, nil
}
