/*
Package identity holds enrolled identities and matches observed face
embeddings against them.

PURPOSE:
  An external detection model turns camera frames into fixed-length
  float32 vectors. This package owns the value types for those vectors
  (Identity, the wire codec for embedding blobs) and the distance-based
  Matcher that resolves an observed vector to an enrolled name.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identity: An enrolled (name, embedding) pair
  - EncodeEmbedding/DecodeEmbedding: Raw little-endian float32 codec,
    the format the faces table stores in its BLOB column

DESIGN PRINCIPLES:
  1. Statelessness: Matching never mutates the store
  2. Fail-soft loading: A corrupt blob skips one identity, not the load

SEE ALSO:
  - matcher.go: Distance computation and threshold acceptance
  - store/sqlite: Persistence of identities
*/
package identity

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Identity is an enrolled (name, embedding) pair.
// Name is unique across the store; one embedding per name.
type Identity struct {
	Name      string
	Embedding []float32
}

// EncodeEmbedding serializes an embedding as raw little-endian float32s.
// This is the on-disk format of the faces.embedding BLOB column.
func EncodeEmbedding(embedding []float32) []byte {
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// DecodeEmbedding parses a raw little-endian float32 blob.
// Returns a CorruptRecordError if the byte length is not a multiple of 4
// or the blob is empty.
func DecodeEmbedding(blob []byte) ([]float32, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, &CorruptRecordError{Len: len(blob)}
	}
	embedding := make([]float32, len(blob)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return embedding, nil
}

// CorruptRecordError reports an embedding blob that cannot be decoded.
type CorruptRecordError struct {
	Name string // may be empty when the name is not yet known
	Len  int    // byte length of the offending blob
}

func (e *CorruptRecordError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("corrupt embedding record for %q (%d bytes)", e.Name, e.Len)
	}
	return fmt.Sprintf("corrupt embedding record (%d bytes)", e.Len)
}

func (e *CorruptRecordError) Unwrap() error { return ErrCorruptRecord }
