/*
Package project contains the collaboration data model and the session registry.

This file implements the conflict detector: the pure rule deciding whether an
incoming mutation collides with the recorded state of a slide or block.
*/
package project

import "time"

const (
	// SlideConflictWindow is the race window for slide-level updates.
	SlideConflictWindow = 1000 * time.Millisecond

	// BlockConflictWindow is the race window for block-level updates.
	// Blocks are smaller-grained and update more frequently, so the tighter
	// window reduces false positives.
	BlockConflictWindow = 500 * time.Millisecond
)

// Resource type labels used in conflict notifications.
const (
	ResourceSlide = "slide"
	ResourceBlock = "block"
)

// Conflict describes a rejected mutation. It is delivered to the offending
// sender only, as protocol data rather than an error.
type Conflict struct {
	ResourceID      string `json:"resourceId"`
	ResourceType    string `json:"resourceType"`
	ConflictingUser string `json:"conflictingUser"`
	Timestamp       int64  `json:"timestamp"`
}

// Collides reports whether a proposed mutation (timestamp, userID) races with
// a prior snapshot stamped (lastModified, lastModifiedBy). A mutation
// collides iff the prior write landed inside the window before the proposed
// timestamp AND came from a different author. A mutation exactly at the
// window edge is accepted, as is any mutation by the prior author.
//
// Timestamps are Unix milliseconds as supplied by clients; the window exists
// precisely because their clocks race.
func Collides(lastModified int64, lastModifiedBy string, timestamp int64, userID string, window time.Duration) bool {
	return lastModified > timestamp-window.Milliseconds() && lastModifiedBy != userID
}
