package bt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/behave/internal/core/observability/log"
)

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tree := New(WithObserver(NewLogObserver(log.NewFromZap(zap.New(core)))))
	root := tree.Action("idle", succeed())
	runTree(t, tree, root)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "node activate", entries[0].Message)
	assert.Equal(t, "node complete", entries[1].Message)

	fields := entries[1].ContextMap()
	assert.Equal(t, "idle", fields["name"])
	assert.Equal(t, "Action", fields["kind"])
	assert.Equal(t, "Success", fields["status"])
	assert.Equal(t, int64(-1), fields["parent"])
}

func TestObserversFanOut(t *testing.T) {
	var a, b int
	obs := Observers{
		ObserverFunc(func(Event) { a++ }),
		ObserverFunc(func(Event) { b++ }),
	}
	tree := New(WithObserver(obs))
	runTree(t, tree, tree.Action("idle", succeed()))
	assert.Equal(t, 2, a)
	assert.Equal(t, a, b)
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(Event{Kind: EventAbort, Node: 3, Name: "walk", Parent: 1, Status: StatusAborted, Step: 9})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"abort","node":3,"name":"walk","parent":1,"status":"aborted","step":9}`, string(data))
}

func TestEventKindText(t *testing.T) {
	var k EventKind
	require.NoError(t, k.UnmarshalText([]byte("drop")))
	assert.Equal(t, EventDrop, k)
	assert.Error(t, k.UnmarshalText([]byte("explode")))
}
