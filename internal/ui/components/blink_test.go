package components

import (
	"testing"
	"time"

	"github.com/john/playauth/internal/ui/styles"
	"github.com/stretchr/testify/assert"
)

func TestBlink_RunsForOneSecond(t *testing.T) {
	b := NewBlink(styles.Light.Clone())
	t0 := time.Unix(1700000000, 0)

	assert.False(t, b.Active())
	assert.NotNil(t, b.Start(t0))
	assert.True(t, b.Active())

	assert.NotNil(t, b.Advance(t0.Add(250*time.Millisecond)))
	assert.InDelta(t, 0.0, b.Opacity(), 1e-9)

	b.Advance(t0.Add(500 * time.Millisecond))
	assert.InDelta(t, 1.0, b.Opacity(), 1e-9)

	b.Advance(t0.Add(999 * time.Millisecond))
	assert.True(t, b.Active())

	b.Advance(t0.Add(time.Second))
	assert.False(t, b.Active())
}

func TestBlink_SettlesToFullOpacity(t *testing.T) {
	b := NewBlink(styles.Light.Clone())
	t0 := time.Unix(1700000000, 0)
	b.Start(t0)

	// Last frame lands mid-fade
	b.Advance(t0.Add(750 * time.Millisecond))
	assert.Less(t, b.Opacity(), 0.5)

	now := t0.Add(time.Second)
	for i := 0; i < 600 && b.Advance(now) != nil; i++ {
		now = now.Add(16 * time.Millisecond)
	}

	assert.False(t, b.Active())
	assert.Equal(t, 1.0, b.Opacity())
	assert.Nil(t, b.Advance(now))
}

func TestBlink_IgnoresStaleFrames(t *testing.T) {
	b := NewBlink(styles.Light.Clone())
	other := NewBlink(styles.Light.Clone())
	t0 := time.Unix(1700000000, 0)

	b.Start(t0)
	staleTag := b.tag
	b.Start(t0.Add(time.Second))

	assert.Nil(t, b.Update(BlinkFrameMsg{Time: t0.Add(250 * time.Millisecond), ID: b.ID(), tag: staleTag}))
	assert.Nil(t, b.Update(BlinkFrameMsg{Time: t0.Add(1250 * time.Millisecond), ID: other.ID(), tag: b.tag}))
	assert.Equal(t, 1.0, b.Opacity())

	assert.NotNil(t, b.Update(BlinkFrameMsg{Time: t0.Add(1250 * time.Millisecond), ID: b.ID(), tag: b.tag}))
	assert.InDelta(t, 0.0, b.Opacity(), 1e-9)
}

func TestBlink_Stop(t *testing.T) {
	b := NewBlink(styles.Dark.Clone())
	t0 := time.Unix(1700000000, 0)
	b.Start(t0)
	b.Advance(t0.Add(250 * time.Millisecond))

	b.Stop()

	assert.False(t, b.Active())
	assert.Equal(t, 1.0, b.Opacity())
	assert.Nil(t, b.Advance(t0.Add(300*time.Millisecond)))
}
