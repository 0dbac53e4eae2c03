package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerEnabled(t *testing.T) {
	m := NewManager("strict_votes=on, other=off, legacy=1, dead=0, rollout=50%")

	assert.True(t, m.Enabled("strict_votes", 1))
	assert.True(t, m.Enabled("STRICT_VOTES", 1), "flag names are case-insensitive")
	assert.False(t, m.Enabled("other", 1))
	assert.True(t, m.Enabled("legacy", 1))
	assert.False(t, m.Enabled("dead", 1))
	assert.False(t, m.Enabled("unknown", 1))
}

func TestManagerRollout(t *testing.T) {
	m := NewManager("gradual=100%,none=0%,half=50%")

	assert.True(t, m.Enabled("gradual", 42))
	assert.False(t, m.Enabled("none", 42))

	// Deterministic per user: same answer every time.
	first := m.Enabled("half", 42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Enabled("half", 42))
	}

	// Anonymous users never fall into a partial rollout.
	assert.False(t, m.Enabled("half", 0))

	// A 50% rollout splits a population roughly in half.
	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("half", id) {
			enabled++
		}
	}
	assert.Greater(t, enabled, 300)
	assert.Less(t, enabled, 700)
}

func TestManagerMalformedInput(t *testing.T) {
	m := NewManager(",,bad,===,ok=on")

	assert.True(t, m.Enabled("ok", 1))
	assert.False(t, m.Enabled("bad", 1))

	var nilManager *Manager
	assert.False(t, nilManager.Enabled("anything", 1))
}
