package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollidesRejectsRecentWriteByOtherUser(t *testing.T) {
	now := time.Now().UnixMilli()

	// Prior write 1ms inside the window, different author.
	assert.True(t, Collides(now-999, "user_a", now, "user_b", SlideConflictWindow))
	assert.True(t, Collides(now-1, "user_a", now, "user_b", SlideConflictWindow))
}

func TestCollidesAcceptsOwnRecentWrite(t *testing.T) {
	now := time.Now().UnixMilli()

	// Same author never conflicts with themselves, however recent.
	assert.False(t, Collides(now-1, "user_a", now, "user_a", SlideConflictWindow))
	assert.False(t, Collides(now, "user_a", now, "user_a", BlockConflictWindow))
}

func TestCollidesAcceptsWriteOutsideWindow(t *testing.T) {
	now := time.Now().UnixMilli()

	// Exactly at the window boundary is accepted: the rule is strictly
	// greater than.
	assert.False(t, Collides(now-1000, "user_a", now, "user_b", SlideConflictWindow))
	assert.False(t, Collides(now-500, "user_a", now, "user_b", BlockConflictWindow))

	// Comfortably stale.
	assert.False(t, Collides(now-5000, "user_a", now, "user_b", SlideConflictWindow))
}

func TestCollidesWindowPerResourceType(t *testing.T) {
	now := time.Now().UnixMilli()

	// 700ms ago: inside the slide window, outside the block window.
	assert.True(t, Collides(now-700, "user_a", now, "user_b", SlideConflictWindow))
	assert.False(t, Collides(now-700, "user_a", now, "user_b", BlockConflictWindow))
}

func TestCollidesFutureStampStillConflicts(t *testing.T) {
	now := time.Now().UnixMilli()

	// A prior stamp ahead of the incoming timestamp counts as recent. Clock
	// skew between clients must not silently overwrite a newer write.
	assert.True(t, Collides(now+2000, "user_a", now, "user_b", SlideConflictWindow))
}
