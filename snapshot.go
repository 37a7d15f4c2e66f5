package hybridsearch

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arrowhead-dev/hybridsearch/cache"
	"github.com/arrowhead-dev/hybridsearch/codec"
	"github.com/arrowhead-dev/hybridsearch/hnsw"
	"github.com/arrowhead-dev/hybridsearch/quantization"
)

// snapshotVersion is the wire format version written by Save and
// recognized by Load.
const snapshotVersion = "1"

// snapshotItem is an Item as it appears in a snapshot's items array.
type snapshotItem struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// snapshot is the on-disk representation of an Engine's contents, per
// the external JSON snapshot format.
type snapshot struct {
	Version      string         `json:"version"`
	Model        string         `json:"model"`
	Items        []snapshotItem `json:"items"`
	Vectors      []string       `json:"vectors"`
	CreatedAt    string         `json:"createdAt"`
	TextPaths    []string       `json:"textPaths,omitempty"`
	Quantization string         `json:"quantization,omitempty"`
	CacheEntries []cache.Entry  `json:"cacheEntries,omitempty"`
}

// vectorMeta is the small JSON blob prefixed to non-float32 vector
// payloads so they can be decoded without external context.
type vectorMeta struct {
	Type   string  `json:"type"`
	Scale  float32 `json:"scale,omitempty"`
	Offset float32 `json:"offset,omitempty"`
}

func encodeStoredVector(kind quantization.Kind, v []float32) (string, error) {
	enc, err := quantization.Encode(kind, v)
	if err != nil {
		return "", err
	}

	return encodeEncodedVector(enc)
}

// encodeEncodedVector base64-encodes an already-quantized vector, used by
// Save to write out a record's stored encoding without re-quantizing it
// from a decoded float32 copy.
func encodeEncodedVector(enc quantization.Encoded) (string, error) {
	if enc.Kind == quantization.Float32 {
		return base64.StdEncoding.EncodeToString(enc.Data), nil
	}

	meta := vectorMeta{Type: string(enc.Kind), Scale: enc.Scale, Offset: enc.Offset}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	buf := make([]byte, 2+len(metaBytes)+len(enc.Data))
	binary.LittleEndian.PutUint16(buf[:2], uint16(len(metaBytes)))
	copy(buf[2:], metaBytes)
	copy(buf[2+len(metaBytes):], enc.Data)

	return base64.StdEncoding.EncodeToString(buf), nil
}

func decodeStoredVector(s string, quant string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hybridsearch: decode vector: %w", err)
	}

	if quant == "" || quant == string(quantization.Float32) {
		if len(raw)%4 != 0 {
			return nil, ErrMalformedVector
		}
		return quantization.DecodeFloat32(raw), nil
	}

	if len(raw) < 2 {
		return nil, fmt.Errorf("hybridsearch: truncated vector payload")
	}

	metaLen := int(binary.LittleEndian.Uint16(raw[:2]))
	if len(raw) < 2+metaLen {
		return nil, fmt.Errorf("hybridsearch: truncated vector metadata")
	}

	var meta vectorMeta
	if err := json.Unmarshal(raw[2:2+metaLen], &meta); err != nil {
		return nil, fmt.Errorf("hybridsearch: decode vector metadata: %w", err)
	}

	return quantization.Decode(quantization.Encoded{
		Kind:   quantization.Kind(meta.Type),
		Data:   raw[2+metaLen:],
		Scale:  meta.Scale,
		Offset: meta.Offset,
	})
}

// Save serializes the engine's items, vectors, and model name into the
// JSON snapshot wire format. The HNSW graph itself is rebuilt on Load,
// not persisted.
func (e *Engine) Save() ([]byte, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	model := ""
	if e.opts.embedder != nil {
		model = e.opts.embedder.Model()
	}

	snap := snapshot{
		Version:      snapshotVersion,
		Model:        model,
		Items:        make([]snapshotItem, len(e.items)),
		Vectors:      make([]string, len(e.items)),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Quantization: string(e.opts.quantization),
		CacheEntries: e.cache.Entries(),
	}

	for i, r := range e.items {
		snap.Items[i] = snapshotItem{ID: r.ID, Text: r.Text, Metadata: r.Metadata}

		vec, err := encodeEncodedVector(r.vector)
		if err != nil {
			return nil, translateError(err)
		}
		snap.Vectors[i] = vec
	}

	data, err := codec.Default.Marshal(snap)
	if err != nil {
		e.opts.logger.LogSnapshot("save", "", err)
		return nil, err
	}

	e.opts.logger.LogSnapshot("save", "", nil)

	return data, nil
}

// Load replaces the engine's contents with a previously Saved snapshot.
// It does not require an Embedder: vectors are taken directly from the
// snapshot, not recomputed.
func (e *Engine) Load(data []byte) error {
	if e.isClosed() {
		return ErrClosed
	}

	var snap snapshot
	if err := codec.Default.Unmarshal(data, &snap); err != nil {
		e.opts.logger.LogSnapshot("load", "", err)
		return fmt.Errorf("hybridsearch: malformed snapshot: %w", err)
	}

	if snap.Version != snapshotVersion {
		e.opts.logger.LogSnapshot("load", "", ErrSnapshotVersion)
		return ErrSnapshotVersion
	}

	if len(snap.Items) != len(snap.Vectors) {
		e.opts.logger.LogSnapshot("load", "", ErrVectorCountMismatch)
		return ErrVectorCountMismatch
	}

	items := make([]record, len(snap.Items))
	rawVectors := make([][]float32, len(snap.Items))
	for i, it := range snap.Items {
		vec, err := decodeStoredVector(snap.Vectors[i], snap.Quantization)
		if err != nil {
			e.opts.logger.LogSnapshot("load", "", err)
			return err
		}
		if len(vec) != e.dimension {
			err := &hnsw.ErrDimensionMismatch{Expected: e.dimension, Actual: len(vec)}
			e.opts.logger.LogSnapshot("load", "", err)
			return translateError(err)
		}

		enc, err := quantization.Encode(e.opts.quantization, vec)
		if err != nil {
			e.opts.logger.LogSnapshot("load", "", err)
			return translateError(err)
		}

		rawVectors[i] = vec
		items[i] = record{
			Item:   Item{ID: it.ID, Text: it.Text, Metadata: it.Metadata},
			vector: enc,
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ann, err := hnsw.New(e.dimension, e.opts.hnswOptions...)
	if err != nil {
		return translateError(err)
	}

	index := make(map[string]int, len(items))
	for i, r := range items {
		index[r.ID] = i
		if err := ann.Insert(uint32(i), rawVectors[i]); err != nil {
			return translateError(err)
		}
	}

	e.items = items
	e.idIndex = index
	e.ann = ann
	e.useHNSW = len(items) >= e.opts.annThreshold

	if err := e.cache.Restore(snap.CacheEntries); err != nil {
		e.opts.logger.LogSnapshot("load", "", err)
		return translateError(err)
	}

	e.opts.logger.LogSnapshot("load", "", nil)

	return nil
}
