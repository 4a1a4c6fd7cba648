package bt

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Blackboard is the shared key/value store leaves read and write. It is safe
// for concurrent use so a host can feed it while the tree is stepping.
type Blackboard struct {
	mu      sync.RWMutex
	data    map[string]any
	version int64
}

func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]any)}
}

func (bb *Blackboard) Set(key string, value any) {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	bb.data[key] = value
	bb.version++
}

func (bb *Blackboard) Get(key string) (any, bool) {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	value, ok := bb.data[key]
	return value, ok
}

func (bb *Blackboard) GetString(key string) (string, bool) {
	value, ok := bb.Get(key)
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// GetInt accepts the numeric types produced by Go code and by JSON/YAML decoding.
func (bb *Blackboard) GetInt(key string) (int, bool) {
	value, ok := bb.Get(key)
	if !ok {
		return 0, false
	}
	return toInt(value)
}

// Update replaces the value at key with fn(current, present) under the
// write lock, so concurrent read-modify-write cycles do not lose updates.
// fn must not call back into the blackboard.
func (bb *Blackboard) Update(key string, fn func(value any, ok bool) any) any {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	value, ok := bb.data[key]
	next := fn(value, ok)
	bb.data[key] = next
	bb.version++
	return next
}

// AddInt adds delta to the integer at key, treating a missing or
// non-integer value as 0, and returns the new value.
func (bb *Blackboard) AddInt(key string, delta int) int {
	return bb.Update(key, func(value any, _ bool) any {
		n, _ := toInt(value)
		return n + delta
	}).(int)
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (bb *Blackboard) GetBool(key string) (bool, bool) {
	value, ok := bb.Get(key)
	if !ok {
		return false, false
	}
	b, ok := value.(bool)
	return b, ok
}

func (bb *Blackboard) Has(key string) bool {
	_, ok := bb.Get(key)
	return ok
}

func (bb *Blackboard) Delete(key string) {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	delete(bb.data, key)
	bb.version++
}

// Keys returns a sorted snapshot of the keys.
func (bb *Blackboard) Keys() []string {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	keys := make([]string, 0, len(bb.data))
	for key := range bb.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Version increases on every write.
func (bb *Blackboard) Version() int64 {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	return bb.version
}

func (bb *Blackboard) Clear() {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	bb.data = make(map[string]any)
	bb.version++
}

func (bb *Blackboard) MarshalJSON() ([]byte, error) {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	return json.Marshal(bb.data)
}

func (bb *Blackboard) UnmarshalJSON(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to unmarshal blackboard data: %w", err)
	}

	bb.mu.Lock()
	defer bb.mu.Unlock()

	if values == nil {
		values = make(map[string]any)
	}
	bb.data = values
	bb.version++
	return nil
}
