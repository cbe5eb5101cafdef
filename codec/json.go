package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// PRes documents are plain JSON objects with string-formatted numeric
// range bounds, which encoding/json handles via the ",string" struct tags
// on model.CardRange. Use JSON when you want zero extra dependencies on
// the decode path.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured explicitly.
//
// Large PRes documents (hundreds of thousands of ranges) decode
// measurably faster with go-json, so it is the default.
var Default Codec = GoJSON{}
