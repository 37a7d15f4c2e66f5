package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
// - For metadata (map-like structures), JSON is stable and portable.
// - For arbitrary user payloads, JSON works for typical structs/maps/slices.
// - Time, complex numbers, funcs, channels, etc may not be supported.
//
// If you need custom encoding (e.g. protobuf/msgpack), implement Codec and set
// it wherever a Codec is accepted.
//
// Performance note:
//   - If you need the most portable/lowest-dependency option, use JSON.
//   - Snapshots do not record the codec name; they are read back with
//     whatever Default is at load time.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: Snapshots are both written and read with Default, and they do not
// store a codec name, so changing Default also changes how existing
// snapshot files are decoded.
var Default Codec = JSON{}
