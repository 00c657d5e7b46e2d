package registry

import (
	"bytes"
	"encoding/json"

	yaml "go.yaml.in/yaml/v3"
)

// Pair is one metadata entry.
type Pair struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Metadata is an ordered string map. Keys are unique; Set on an existing key
// replaces the value in place.
//
// Metadata attached to a Record is shared with every report that references
// the record, so it must not be modified once the record is in a Registry.
type Metadata struct {
	pairs []Pair
	index map[string]int
}

// NewMetadata builds metadata from pairs, later duplicates overriding earlier ones.
func NewMetadata(pairs ...Pair) Metadata {
	var m Metadata
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

func (m *Metadata) Set(key, value string) {
	if m.index == nil {
		m.index = map[string]int{}
	}
	if i, ok := m.index[key]; ok {
		m.pairs[i].Value = value
		return
	}
	m.index[key] = len(m.pairs)
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

func (m Metadata) Get(key string) (string, bool) {
	i, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.pairs[i].Value, true
}

func (m Metadata) Len() int { return len(m.pairs) }

// Pairs returns a copy of the entries in insertion order.
func (m Metadata) Pairs() []Pair {
	return append([]Pair(nil), m.pairs...)
}

// MarshalJSON emits an object whose keys keep insertion order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m.pairs {
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

// MarshalYAML emits a mapping node so key order survives.
func (m Metadata) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range m.pairs {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Value},
		)
	}
	return n, nil
}
