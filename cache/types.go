package cache

// Key identifies a cached embedding by the hash of its source text and the
// hash of the model name that produced it, so the same text embedded under
// two different models never collides.
type Key struct {
	TextHash  uint32
	ModelHash uint32
}

// NewKey derives a cache key from a text/model pair.
func NewKey(text, model string) Key {
	return Key{
		TextHash:  murmur3_32([]byte(text), 0),
		ModelHash: murmur3_32([]byte(model), 1),
	}
}

type entry struct {
	key    Key
	vector []float32
}
