// Package codec provides the fixed binary serializer the document store
// and inverted index use to turn their typed values into the opaque
// byte strings storage.Tree deals in. gob is deterministic enough for a
// single-process, single-schema-version store and keeps the encoding
// binary rather than the text JSON the spec discourages.
package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode gob-encodes v into a byte slice.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode gob-decodes data into v, which must be a pointer.
func Decode(data []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("codec: decode: %w", err)
	}
	return nil
}
