package codec

// Codec encodes/decodes values V to []byte for storage in a fallback table
// or a live provider.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
