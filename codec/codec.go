// Package codec provides the payload (de)serializers the item pool uses to
// round-trip cached values. The encoding only needs to be stable within one
// process family; pick JSON when you want a readable store, msgpack or CBOR
// for compactness, Protobuf when the value type already is a message.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
