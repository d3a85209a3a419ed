package pipeline

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Mapping is the key/value result of walking a block graph. Iteration and
// JSON encoding follow first-insertion order; setting an existing key replaces
// its value in place.
type Mapping struct {
	m *orderedmap.OrderedMap[string, string]
}

// Pair is one mapping entry
type Pair struct {
	Key   string
	Value string
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{m: orderedmap.New[string, string]()}
}

// Set stores value under key, overwriting any previous value. The zero
// Mapping is ready to use.
func (m *Mapping) Set(key, value string) {
	if m.m == nil {
		m.m = orderedmap.New[string, string]()
	}
	m.m.Set(key, value)
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (string, bool) {
	if m == nil || m.m == nil {
		return "", false
	}
	return m.m.Get(key)
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Len()
}

// Pairs returns the entries in mapping order.
func (m *Mapping) Pairs() []Pair {
	if m.Len() == 0 {
		return nil
	}
	pairs := make([]Pair, 0, m.m.Len())
	for p := m.m.Oldest(); p != nil; p = p.Next() {
		pairs = append(pairs, Pair{Key: p.Key, Value: p.Value})
	}
	return pairs
}

// Keys returns the keys in mapping order.
func (m *Mapping) Keys() []string {
	pairs := m.Pairs()
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	if m.Len() == 0 {
		return []byte("{}"), nil
	}
	return m.m.MarshalJSON()
}

func (m *Mapping) UnmarshalJSON(data []byte) error {
	m.m = orderedmap.New[string, string]()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, m.m)
}
