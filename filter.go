package hybridsearch

// Filter decides whether an item's metadata passes a search's candidate
// selection. Filters run after candidate retrieval (HNSW or brute force)
// and before scoring, so they can cheaply drop whole candidates without
// paying for fuzzy/keyword matching.
type Filter func(metadata map[string]any) bool

// MetadataEquals returns a Filter that keeps items whose metadata field
// key equals value.
func MetadataEquals(key string, value any) Filter {
	return func(metadata map[string]any) bool {
		if metadata == nil {
			return false
		}

		v, ok := metadata[key]
		return ok && v == value
	}
}

// MetadataHasKey returns a Filter that keeps items whose metadata
// contains key, regardless of its value.
func MetadataHasKey(key string) Filter {
	return func(metadata map[string]any) bool {
		if metadata == nil {
			return false
		}

		_, ok := metadata[key]
		return ok
	}
}
