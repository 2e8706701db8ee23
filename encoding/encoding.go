// Copyright 2020-2024 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package encoding offers (de)serialization APIs for fedfold objects
// it uses CBOR with canonical options and prefixes every payload with a
// scheme identifier, so an object serialized by one engine cannot be
// silently deserialized by another.
package encoding

import (
	"errors"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ErrInvalidScheme trying to deserialize an object serialized with another scheme
var ErrInvalidScheme = errors.New("trying to deserialize an object serialized with another scheme")

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Serialize object from into provided writer
// encodes the scheme identifier in the first bytes
func Serialize(w io.Writer, from interface{}, scheme string) error {
	enc := encMode.NewEncoder(w)

	if err := enc.Encode(scheme); err != nil {
		return err
	}
	return enc.Encode(from)
}

// Deserialize input into object
// provided interface must be a pointer
func Deserialize(r io.Reader, into interface{}, expectedScheme string) error {
	dec := cbor.NewDecoder(r)

	var scheme string
	if err := dec.Decode(&scheme); err != nil {
		return err
	}
	if scheme != expectedScheme {
		return ErrInvalidScheme
	}
	return dec.Decode(into)
}
