package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder is one label/value pair printed in the evidence header block.
type Placeholder struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PlaceholderSet keeps placeholders in the order the caller supplied them.
// It decodes from a JSON object, preserving member order.
type PlaceholderSet []Placeholder

// NewPlaceholderSet builds a set from alternating key, value arguments.
func NewPlaceholderSet(kv ...string) PlaceholderSet {
	set := make(PlaceholderSet, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		set = append(set, Placeholder{Key: kv[i], Value: kv[i+1]})
	}
	return set
}

// Label returns the upper-cased key as rendered in the document.
func (p Placeholder) Label() string {
	return strings.ToUpper(p.Key)
}

// UnmarshalJSON accepts {"k": "v", ...}. Non-string values are rendered with
// their JSON text, null becomes an empty string.
func (s *PlaceholderSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("placeholders: expected object, got %v", tok)
	}

	out := PlaceholderSet{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("placeholders: value for %q: %w", key, err)
		}
		out = append(out, Placeholder{Key: key, Value: rawToString(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// MarshalJSON writes the set back as an object in the same order.
func (s PlaceholderSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func rawToString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
