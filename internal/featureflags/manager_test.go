package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,over=150%,junk=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.True(t, m.Enabled("over", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("junk", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "partial rollout excludes anonymous callers")

	enabled := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled("canary", uid) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 80)
}

func TestGlobal(t *testing.T) {
	m := NewManager("markdown_content=on,strict_rate_limit=50%")
	assert.True(t, m.Global(MarkdownContent))
	assert.False(t, m.Global(StrictRateLimit))

	var nilManager *Manager
	assert.False(t, nilManager.Global(MarkdownContent))
	assert.False(t, nilManager.Enabled(MarkdownContent, 1))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,X=on, y = 20% ,z=off,=on,w= ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())

	snap := m.Snapshot(0)
	assert.True(t, snap["x"])
	assert.False(t, snap["y"])
	assert.False(t, snap["z"])
}
