package bt

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackboard(t *testing.T) {
	bb := NewBlackboard()
	bb.Set("name", "guard")
	bb.Set("hp", 10)
	bb.Set("alert", true)

	name, ok := bb.GetString("name")
	assert.True(t, ok)
	assert.Equal(t, "guard", name)

	hp, ok := bb.GetInt("hp")
	assert.True(t, ok)
	assert.Equal(t, 10, hp)

	_, ok = bb.GetInt("name")
	assert.False(t, ok, "type mismatch")

	alert, _ := bb.GetBool("alert")
	assert.True(t, alert)

	assert.Equal(t, []string{"alert", "hp", "name"}, bb.Keys())
	assert.Equal(t, int64(3), bb.Version())

	bb.Delete("alert")
	assert.False(t, bb.Has("alert"))
	assert.Equal(t, int64(4), bb.Version())

	bb.Clear()
	assert.Empty(t, bb.Keys())
}

func TestBlackboardJSON(t *testing.T) {
	bb := NewBlackboard()
	bb.Set("hp", 7)
	bb.Set("target", "door")

	data, err := json.Marshal(bb)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hp":7,"target":"door"}`, string(data))

	restored := NewBlackboard()
	require.NoError(t, json.Unmarshal(data, restored))
	hp, ok := restored.GetInt("hp")
	assert.True(t, ok, "json numbers decode as float64")
	assert.Equal(t, 7, hp)

	assert.Error(t, restored.UnmarshalJSON([]byte(`[1,2]`)))
}

func TestChildrenCursor(t *testing.T) {
	c := NewChildren(4, 5)
	_, ok := c.Current()
	assert.False(t, ok)

	peek, _ := c.Get()
	assert.Equal(t, NodeID(4), peek)

	first, _ := c.Next()
	cur, _ := c.Current()
	assert.Equal(t, first, cur)
	assert.Equal(t, 1, c.Cursor())

	c.Next()
	_, ok = c.Next()
	assert.False(t, ok)
	assert.True(t, c.Contains(5))
	assert.False(t, c.Contains(6))

	c.Reset()
	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, 2, c.Len())
}

func TestStatusText(t *testing.T) {
	for _, st := range []Status{StatusInvalid, StatusRunning, StatusSuccess, StatusFailure, StatusAborted} {
		text, err := st.MarshalText()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, st, back)
	}
	_, err := ParseStatus("maybe")
	assert.Error(t, err)
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusAborted.IsTerminal())
}

func TestBlackboardAddIntIsAtomic(t *testing.T) {
	bb := NewBlackboard()
	bb.Set("hits", float64(10))

	const workers, each = 8, 1000
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				bb.AddInt("hits", 1)
			}
		}()
	}
	wg.Wait()

	hits, ok := bb.GetInt("hits")
	require.True(t, ok)
	assert.Equal(t, 10+workers*each, hits)
	assert.Equal(t, int64(1+workers*each), bb.Version())

	assert.Equal(t, -2, bb.AddInt("fresh", -2))
	bb.Set("name", "x")
	assert.Equal(t, 5, bb.AddInt("name", 5), "non-integers restart from zero")

	got := bb.Update("tags", func(value any, ok bool) any {
		assert.False(t, ok)
		return []string{"a"}
	})
	assert.Equal(t, []string{"a"}, got)
}
