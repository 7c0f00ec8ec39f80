package request

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Well-known metadata keys set by callers. The coordinator forwards the bag
// opaquely; only the matching optimiser interprets entries.
const (
	MetaAggressive    = "aggressive"
	MetaRemoveAudio   = "removeAudio"
	MetaPlaybackSpeed = "playbackSpeed"
	MetaAnimatedGIF   = "toGIF"
	MetaOutputDir     = "outputDir"
	MetaSource        = "source"
)

type metaEntry struct {
	key   string
	value any
}

// Metadata is an ordered key/value bag of caller-specific tuning entries.
// Values are strings or primitives; entry order is preserved.
type Metadata struct {
	entries []metaEntry
}

// Set stores value under key, replacing an existing entry in place.
func (m *Metadata) Set(key string, value any) {
	for i := range m.entries {
		if m.entries[i].key == key {
			m.entries[i].value = value
			return
		}
	}
	m.entries = append(m.entries, metaEntry{key: key, value: value})
}

// Get returns the raw value for key.
func (m Metadata) Get(key string) (any, bool) {
	for _, e := range m.entries {
		if e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

// Keys returns entry keys in insertion order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Len returns the number of entries.
func (m Metadata) Len() int { return len(m.entries) }

// Clone returns an independent copy of the bag.
func (m Metadata) Clone() Metadata {
	if len(m.entries) == 0 {
		return Metadata{}
	}
	cp := make([]metaEntry, len(m.entries))
	copy(cp, m.entries)
	return Metadata{entries: cp}
}

// String returns the entry as a string, or fallback when absent.
func (m Metadata) String(key, fallback string) string {
	value, ok := m.Get(key)
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fallback
		}
		return strings.Trim(string(data), `"`)
	}
}

// Bool returns the entry as a bool, accepting bools and truthy strings.
func (m Metadata) Bool(key string, fallback bool) bool {
	value, ok := m.Get(key)
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// Float returns the entry as a float64, accepting numeric types and strings.
func (m Metadata) Float(key string, fallback float64) float64 {
	value, ok := m.Get(key)
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// MarshalJSON encodes the bag as an object preserving insertion order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(value)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}
