//
//  Copyright © Manetu Inc. All rights reserved.
//

package index

import (
	"bytes"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/manetu/iamsearch/internal/engine"
	"github.com/manetu/iamsearch/pkg/common"
)

// magic identifies a compiled index artifact and its layout revision.
var magic = []byte("IMS1")

// Encode serializes a table set into a compiled artifact: a 4-byte magic
// header followed by the zstd-compressed CBOR encoding of the tables.
func Encode(t *engine.Tables) ([]byte, error) {
	payload, err := cbor.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "encoding tables")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "initializing compressor")
	}
	defer func() { _ = enc.Close() }()

	out := make([]byte, len(magic), len(magic)+len(payload)/2)
	copy(out, magic)
	return enc.EncodeAll(payload, out), nil
}

// Decode deserializes a compiled artifact back into a table set with its
// lookup maps rebuilt.
func Decode(blob []byte) (*engine.Tables, error) {
	if len(blob) < len(magic) || !bytes.Equal(blob[:len(magic)], magic) {
		return nil, common.NewError(common.ReasonDecode, "not a compiled index artifact")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "initializing decompressor")
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(blob[len(magic):], nil)
	if err != nil {
		return nil, common.NewErrorf(common.ReasonDecode, "decompressing artifact: %v", err)
	}

	var t engine.Tables
	if err := cbor.Unmarshal(payload, &t); err != nil {
		return nil, common.NewErrorf(common.ReasonDecode, "decoding tables: %v", err)
	}

	t.Reindex()
	return &t, nil
}

// WriteFile encodes a table set and writes the artifact to path.
func WriteFile(path string, t *engine.Tables) error {
	blob, err := Encode(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0600); err != nil {
		return common.NewErrorf(common.ReasonIO, "writing artifact: %v", err)
	}
	return nil
}

// ReadFile loads and decodes a compiled artifact from path.
func ReadFile(path string) (*engine.Tables, error) {
	blob, err := os.ReadFile(path) // #nosec G304 -- CLI tool intentionally reads user-provided paths
	if err != nil {
		return nil, common.NewErrorf(common.ReasonIO, "reading artifact: %v", err)
	}
	return Decode(blob)
}
