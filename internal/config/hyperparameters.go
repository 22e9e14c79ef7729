package config

import (
	"bytes"
	"encoding/json"
	"iter"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Recognised hyperparameter keys.
const (
	KeyLearningRate = "learning_rate"
	KeyMomentum     = "momentum"
	KeyDecay        = "decay"
	KeyWeightDecay  = "weight_decay"
)

// Hyperparameters is an insertion-ordered map from names to scalars.
//
// The zero value is ready to use. YAML and JSON encodings keep the
// insertion order.
//
// Example:
//
//	var hp config.Hyperparameters
//	hp.Insert(config.KeyLearningRate, 0.01)
//	hp.Entry(config.KeyMomentum).OrInsert(0.9)
//	lr := hp.GetOr(config.KeyLearningRate, 0.001)
type Hyperparameters struct {
	keys   []string
	values map[string]float64
}

// NewHyperparameters returns a map holding the given pairs in order.
// A repeated key keeps its first position and its last value.
func NewHyperparameters(pairs ...Pair) *Hyperparameters {
	h := &Hyperparameters{}
	for _, p := range pairs {
		h.Insert(p.Key, p.Value)
	}
	return h
}

// Pair is a single hyperparameter.
type Pair struct {
	Key   string
	Value float64
}

// Insert sets key to v, returning the previous value if there was one.
// New keys are appended; existing keys keep their position.
func (h *Hyperparameters) Insert(key string, v float64) (float64, bool) {
	if h.values == nil {
		h.values = make(map[string]float64)
	}
	old, ok := h.values[key]
	if !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = v
	return old, ok
}

// Get returns the value stored under key.
func (h *Hyperparameters) Get(key string) (float64, bool) {
	if h == nil {
		return 0, false
	}
	v, ok := h.values[key]
	return v, ok
}

// GetOr returns the value stored under key, or def when absent.
func (h *Hyperparameters) GetOr(key string, def float64) float64 {
	if v, ok := h.Get(key); ok {
		return v
	}
	return def
}

// Contains reports whether key is present.
func (h *Hyperparameters) Contains(key string) bool {
	_, ok := h.Get(key)
	return ok
}

// Remove deletes key, returning its value if it was present.
func (h *Hyperparameters) Remove(key string) (float64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
	return v, true
}

// Len returns the number of entries.
func (h *Hyperparameters) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// Keys returns the keys in insertion order.
func (h *Hyperparameters) Keys() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.keys...)
}

// All iterates over the entries in insertion order.
func (h *Hyperparameters) All() iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		if h == nil {
			return
		}
		for _, k := range h.keys {
			if !yield(k, h.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (h *Hyperparameters) Clone() *Hyperparameters {
	out := &Hyperparameters{}
	for k, v := range h.All() {
		out.Insert(k, v)
	}
	return out
}

// Entry is an in-place handle on one key.
type Entry struct {
	h   *Hyperparameters
	key string
}

// Entry returns a handle for key, whether or not it is present.
func (h *Hyperparameters) Entry(key string) Entry {
	return Entry{h: h, key: key}
}

// Key returns the entry's key.
func (e Entry) Key() string { return e.key }

// Get returns the current value.
func (e Entry) Get() (float64, bool) { return e.h.Get(e.key) }

// Set stores v.
func (e Entry) Set(v float64) { e.h.Insert(e.key, v) }

// OrInsert stores def if the key is absent and returns the resulting value.
func (e Entry) OrInsert(def float64) float64 {
	if v, ok := e.h.Get(e.key); ok {
		return v
	}
	e.h.Insert(e.key, def)
	return def
}

// AndModify applies f to the value if the key is present.
func (e Entry) AndModify(f func(float64) float64) Entry {
	if v, ok := e.h.Get(e.key); ok {
		e.h.values[e.key] = f(v)
	}
	return e
}

// MarshalYAML encodes the map as a YAML mapping in insertion order.
func (h *Hyperparameters) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for k, v := range h.All() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: yamlFloat(v)},
		)
	}
	return node, nil
}

func yamlFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ".nan"
	case math.IsInf(v, 1):
		return ".inf"
	case math.IsInf(v, -1):
		return "-.inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// UnmarshalYAML decodes a YAML mapping, keeping document order.
func (h *Hyperparameters) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: hyperparameters must be a mapping", node.Line)
	}
	*h = Hyperparameters{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var v float64
		if err := valNode.Decode(&v); err != nil {
			return errors.Wrapf(err, "line %d: hyperparameter %q", valNode.Line, keyNode.Value)
		}
		h.Insert(keyNode.Value, v)
	}
	return nil
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (h *Hyperparameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range h.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperparameter %q", k)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping document order.
func (h *Hyperparameters) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "hyperparameters")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("hyperparameters must be a JSON object")
	}
	*h = Hyperparameters{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "hyperparameters")
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Errorf("hyperparameters: unexpected token %v", tok)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return errors.Wrapf(err, "hyperparameter %q", key)
		}
		h.Insert(key, v)
	}
	return nil
}
