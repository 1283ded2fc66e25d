package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	reg := NewRegistry(5 * time.Minute)

	p1 := reg.GetOrCreate("demo")
	p2 := reg.GetOrCreate("demo")

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, reg.Len())
}

func TestGetReturnsNilForUnknownProject(t *testing.T) {
	reg := NewRegistry(5 * time.Minute)
	assert.Nil(t, reg.Get("nope"))
}

func TestSweepRemovesOnlyEmptyAndIdle(t *testing.T) {
	reg := NewRegistry(5 * time.Minute)

	idle := reg.GetOrCreate("idle")
	populated := reg.GetOrCreate("populated")
	populated.AddUser(User{ID: "user_1"})

	_ = idle

	// Well past the idle threshold. The populated project survives because
	// eviction requires empty AND idle.
	removed := reg.Sweep(time.Now().Add(10 * time.Minute))

	require.Equal(t, []string{"idle"}, removed)
	assert.Nil(t, reg.Get("idle"))
	assert.NotNil(t, reg.Get("populated"))
}

func TestSweepKeepsRecentlyEmptiedProject(t *testing.T) {
	reg := NewRegistry(5 * time.Minute)

	p := reg.GetOrCreate("demo")
	p.AddUser(User{ID: "user_1"})
	p.RemoveUser("user_1")

	// The last leave just happened; a sweep before the threshold elapses
	// must keep the state resolvable for a racing rejoin.
	removed := reg.Sweep(time.Now().Add(1 * time.Minute))

	assert.Empty(t, removed)
	assert.NotNil(t, reg.Get("demo"))
}

func TestSweepAfterTouchResetsIdleClock(t *testing.T) {
	reg := NewRegistry(5 * time.Minute)
	reg.GetOrCreate("demo")

	reg.Touch("demo")
	assert.Empty(t, reg.Sweep(time.Now().Add(4*time.Minute)))

	removed := reg.Sweep(time.Now().Add(10 * time.Minute))
	assert.Equal(t, []string{"demo"}, removed)
	assert.Equal(t, 0, reg.Len())
}

func TestProjectStateSurvivesEmptyWithinThreshold(t *testing.T) {
	reg := NewRegistry(5 * time.Minute)

	p := reg.GetOrCreate("demo")
	p.AddUser(User{ID: "user_1"})
	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Title: "kept"}, "user_1", time.Now().UnixMilli()))
	p.RemoveUser("user_1")

	reg.Sweep(time.Now().Add(1 * time.Minute))

	rejoined := reg.GetOrCreate("demo")
	assert.Same(t, p, rejoined)
	slide, ok := rejoined.GetSlide("s1")
	require.True(t, ok)
	assert.Equal(t, "kept", slide.Title)
}
