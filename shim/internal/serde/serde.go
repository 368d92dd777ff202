// Package serde provides the JSON codec of the shim wire protocol.
package serde

import (
	"github.com/ugorji/go/codec"
)

var jsonHandle = func() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.TypeInfos = codec.NewTypeInfos([]string{"json"})

	return h
}()

// Marshal marshals a value to UTF-8 JSON bytes.
func Marshal[T any](v T) ([]byte, error) {
	var data []byte

	return data, codec.NewEncoderBytes(&data, jsonHandle).Encode(v)
}

// Unmarshal unmarshals JSON bytes into the provided value.
func Unmarshal[T any](data []byte, into T) error {
	return codec.NewDecoderBytes(data, jsonHandle).Decode(into)
}
