package confmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/pipeerr"
)

func newMap() Map {
	return Map{
		{Name: "conf.dataFormat", Value: "JSON"},
		{Name: "conf.batchSize", Value: 1000},
		{Name: "stageOnRecordError", Value: "TO_ERROR"},
	}
}

func TestGet(t *testing.T) {
	m := newMap()

	v, err := m.Get("conf.batchSize")
	require.NoError(t, err)
	assert.Equal(t, 1000, v)

	_, err = m.Get("conf.missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeerr.ErrNotFound)
	assert.ErrorContains(t, err, "conf.missing")
}

func TestSet(t *testing.T) {
	t.Run("existing key is replaced in place", func(t *testing.T) {
		m := newMap()
		require.NoError(t, m.Set("conf.dataFormat", "AVRO"))
		v, _ := m.Get("conf.dataFormat")
		assert.Equal(t, "AVRO", v)
		assert.Equal(t, []string{"conf.dataFormat", "conf.batchSize", "stageOnRecordError"}, m.Keys())
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		m := newMap()
		err := m.Set("conf.dataFromat", "AVRO")
		assert.ErrorIs(t, err, pipeerr.ErrNotFound)
		assert.Len(t, m, 3)
	})

	t.Run("mutation is visible through the backing slice", func(t *testing.T) {
		backing := newMap()
		view := &backing
		require.NoError(t, view.Set("conf.batchSize", 5))
		assert.Equal(t, 5, backing[1].Value)
	})
}

func TestUpdate(t *testing.T) {
	m := newMap()
	require.NoError(t, m.Update(map[string]any{"conf.batchSize": 10, "stageOnRecordError": "DISCARD"}))
	assert.Equal(t, 10, m[1].Value)
	assert.Equal(t, "DISCARD", m[2].Value)

	err := m.Update(map[string]any{"nope": 1})
	assert.ErrorIs(t, err, pipeerr.ErrNotFound)
}

func TestMerge(t *testing.T) {
	m := newMap()
	m.Merge([]Entry{{Name: "conf.batchSize", Value: 1}, {Name: "runtime.injected", Value: true}})

	assert.Equal(t, []string{"conf.dataFormat", "conf.batchSize", "stageOnRecordError", "runtime.injected"}, m.Keys())
	v, err := m.Get("runtime.injected")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestContainsAndItems(t *testing.T) {
	m := newMap()
	assert.True(t, m.Contains("conf.dataFormat"))
	assert.False(t, m.Contains("dataFormat"))

	items := m.Items()
	items[0].Value = "changed"
	assert.Equal(t, "JSON", m[0].Value, "Items must return a copy")
}

func TestJSONPreservesOrder(t *testing.T) {
	raw, err := json.Marshal(newMap())
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"name":"conf.dataFormat","value":"JSON"},{"name":"conf.batchSize","value":1000},{"name":"stageOnRecordError","value":"TO_ERROR"}]`,
		string(raw))
}
